//go:build linux

package scrolltap

import (
	"fmt"
	"io"
)

// NativeKind reports the backend used when the kind is "auto".
func NativeKind() string {
	return KindEvdev
}

func openQuartz(Options) (*Backend, error) {
	return nil, ErrUnsupported
}

func openEvdev(opts Options) (*Backend, error) {
	out, err := OpenUinput(opts.VirtualName)
	if err != nil {
		return nil, fmt.Errorf("create virtual pointer: %w", err)
	}
	opts.Logger.Info("virtual pointer created", "name", opts.VirtualName)
	return &Backend{
		Name:        KindEvdev,
		Interceptor: NewEvdev(opts.Devices, out, opts.Logger),
		Emitter:     out,
		closers:     []io.Closer{out},
	}, nil
}
