//go:build linux

package scrolltap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/negativepl/SmoothScroll/pkg/scroll"
)

// DefaultDevicePatterns matches the stable symlinks udev creates for mice.
var DefaultDevicePatterns = []string{"/dev/input/by-id/*-event-mouse"}

const rearmBackoff = time.Second

// Evdev grabs physical pointer devices and routes their wheel frames through
// the engine. Frames the engine does not absorb are replayed on the virtual
// device, so grabbing does not swallow pointer motion or buttons.
type Evdev struct {
	patterns []string
	out      *Uinput
	logger   *slog.Logger

	mu      sync.Mutex
	handler scroll.Handler
	devices []*evdevDevice
	closed  chan struct{}
	wg      sync.WaitGroup
}

type evdevDevice struct {
	path string
	file *os.File
}

// NewEvdev prepares an interceptor for the devices matching patterns.
func NewEvdev(patterns []string, out *Uinput, logger *slog.Logger) *Evdev {
	if len(patterns) == 0 {
		patterns = DefaultDevicePatterns
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Evdev{patterns: patterns, out: out, logger: logger}
}

// Open grabs every matching device and starts one reader per device.
func (e *Evdev) Open(h scroll.Handler) error {
	paths, err := resolveDevices(e.patterns)
	if err != nil {
		return err
	}

	devices := make([]*evdevDevice, 0, len(paths))
	for _, path := range paths {
		file, err := openGrabbed(path)
		if err != nil {
			for _, d := range devices {
				d.file.Close()
			}
			return err
		}
		devices = append(devices, &evdevDevice{path: path, file: file})
	}

	e.mu.Lock()
	e.handler = h
	e.devices = devices
	e.closed = make(chan struct{})
	closed := e.closed
	e.mu.Unlock()

	for _, d := range devices {
		e.wg.Add(1)
		go e.read(d, h, closed)
		e.logger.Info("evdev device grabbed", "path", d.path)
	}
	return nil
}

// Rearm reopens every device whose descriptor was lost.
func (e *Evdev) Rearm() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	for _, d := range e.devices {
		if d.file != nil {
			continue
		}
		file, err := openGrabbed(d.path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d.file = file
	}
	return errors.Join(errs...)
}

// Close releases the grabs and waits for the readers to exit.
func (e *Evdev) Close() error {
	e.mu.Lock()
	if e.closed == nil {
		e.mu.Unlock()
		return nil
	}
	close(e.closed)
	e.closed = nil
	var errs []error
	for _, d := range e.devices {
		if d.file != nil {
			if err := d.file.Close(); err != nil {
				errs = append(errs, err)
			}
			d.file = nil
		}
	}
	e.mu.Unlock()

	e.wg.Wait()
	return errors.Join(errs...)
}

func (e *Evdev) read(d *evdevDevice, h scroll.Handler, closed <-chan struct{}) {
	defer e.wg.Done()
	buf := make([]byte, inputEventSize*64)
	var frames frameReader

	for {
		e.mu.Lock()
		file := d.file
		e.mu.Unlock()

		if file == nil {
			select {
			case <-closed:
				return
			case <-time.After(rearmBackoff):
			}
			h.Handle(scroll.Input{Kind: scroll.InputRevoked, Reason: "device unavailable: " + d.path})
			continue
		}

		n, err := file.Read(buf)
		if err != nil {
			select {
			case <-closed:
				return
			default:
			}
			e.logger.Warn("evdev read failed", "path", d.path, "error", err)
			e.mu.Lock()
			if d.file == file {
				file.Close()
				d.file = nil
			}
			e.mu.Unlock()
			frames = frameReader{}
			h.Handle(scroll.Input{Kind: scroll.InputRevoked, Reason: err.Error()})
			continue
		}

		for _, f := range frames.feed(buf[:n]) {
			e.dispatch(f, h)
		}
	}
}

func (e *Evdev) dispatch(f frame, h scroll.Handler) {
	if len(f) == 0 {
		return
	}
	if dy, dx, ok := f.wheel(); ok {
		verdict := h.Handle(scroll.Input{
			Kind:  scroll.InputScroll,
			Event: scroll.Event{DeltaY: dy, DeltaX: dx},
		})
		if verdict == scroll.Accumulate {
			f = f.withoutWheel()
		}
	}
	if err := e.out.forward(f); err != nil {
		e.logger.Warn("forward evdev frame", "error", err)
	}
}

func resolveDevices(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("device pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			resolved, err := filepath.EvalSymlinks(match)
			if err != nil {
				resolved = match
			}
			if _, ok := seen[resolved]; ok {
				continue
			}
			seen[resolved] = struct{}{}
			paths = append(paths, resolved)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w matching %v", ErrNoDevices, patterns)
	}
	return paths, nil
}

func openGrabbed(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: open %s: %v", scroll.ErrPermissionDenied, path, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := control(file, func(fd uintptr) error { return unix.IoctlSetInt(int(fd), evioCGrab, 1) }); err != nil {
		file.Close()
		if errors.Is(err, unix.EBUSY) {
			return nil, fmt.Errorf("grab %s: device already grabbed: %w", path, err)
		}
		return nil, fmt.Errorf("grab %s: %w", path, err)
	}
	return file, nil
}
