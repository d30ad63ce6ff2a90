package scrolltap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/negativepl/SmoothScroll/pkg/scroll"
)

// Backend kinds accepted by Open.
const (
	KindAuto   = "auto"
	KindQuartz = "quartz"
	KindEvdev  = "evdev"
	KindReplay = "replay"
)

// DefaultVirtualName names the uinput device on Linux.
const DefaultVirtualName = "SmoothScroll virtual pointer"

// Options selects and configures a backend.
type Options struct {
	Kind        string
	Devices     []string
	VirtualName string
	Logger      *slog.Logger
}

// Backend pairs an interceptor with the emitter that posts downstream of it.
type Backend struct {
	Name        string
	Interceptor scroll.Interceptor
	Emitter     scroll.Emitter
	closers     []io.Closer
}

// Close releases every resource the backend holds beyond the interceptor
// subscription itself.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// NormalizeKind lower-cases kind and maps the empty string to KindAuto.
func NormalizeKind(kind string) (string, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	switch kind {
	case "":
		return KindAuto, nil
	case KindAuto, KindQuartz, KindEvdev, KindReplay:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown backend %q", kind)
	}
}

// Open constructs the backend named by opts.Kind. KindAuto resolves to the
// native backend of the running platform.
func Open(opts Options) (*Backend, error) {
	kind, err := NormalizeKind(opts.Kind)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.VirtualName == "" {
		opts.VirtualName = DefaultVirtualName
	}
	if kind == KindAuto {
		kind = NativeKind()
	}

	switch kind {
	case KindReplay:
		replay := NewReplay()
		return &Backend{Name: KindReplay, Interceptor: replay, Emitter: &Recorder{}}, nil
	case KindQuartz:
		return openQuartz(opts)
	case KindEvdev:
		return openEvdev(opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
}
