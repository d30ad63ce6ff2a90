//go:build linux

package scrolltap

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/negativepl/SmoothScroll/pkg/scroll"
)

const uinputPath = "/dev/uinput"

// Uinput is a virtual pointer that receives forwarded hardware frames and the
// engine's synthesized wheel motion. Its events never pass through the grabbed
// physical devices, so the engine cannot observe its own output.
type Uinput struct {
	mu   sync.Mutex
	file *os.File
	remY int32
	remX int32
}

// OpenUinput creates the virtual pointer device.
func OpenUinput(name string) (*Uinput, error) {
	file, err := os.OpenFile(uinputPath, os.O_WRONLY, 0)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: open %s: %v", scroll.ErrPermissionDenied, uinputPath, err)
		}
		return nil, fmt.Errorf("open %s: %w", uinputPath, err)
	}

	if err := setupUinput(file, name); err != nil {
		file.Close()
		return nil, err
	}
	return &Uinput{file: file}, nil
}

func setupUinput(file *os.File, name string) error {
	setup := uinputSetup{Bustype: 0x03, Vendor: 0x1d6b, Product: 0x5353, Version: 1}
	copy(setup.Name[:len(setup.Name)-1], name)

	return control(file, func(fd uintptr) error {
		for _, bit := range []int{evKey, evRel, evMsc} {
			if err := unix.IoctlSetInt(int(fd), uiSetEvBit, bit); err != nil {
				return fmt.Errorf("UI_SET_EVBIT: %w", err)
			}
		}
		for code := btnLeft; code <= btnTask; code++ {
			if err := unix.IoctlSetInt(int(fd), uiSetKeyBit, code); err != nil {
				return fmt.Errorf("UI_SET_KEYBIT: %w", err)
			}
		}
		for _, code := range []int{relX, relY, relWheel, relHWheel, relWheelHiRes, relHWheelHiRes} {
			if err := unix.IoctlSetInt(int(fd), uiSetRelBit, code); err != nil {
				return fmt.Errorf("UI_SET_RELBIT: %w", err)
			}
		}
		if err := unix.IoctlSetInt(int(fd), uiSetMscBit, mscScan); err != nil {
			return fmt.Errorf("UI_SET_MSCBIT: %w", err)
		}
		if err := ioctlPtr(fd, uiDevSetup, unsafe.Pointer(&setup)); err != nil {
			return fmt.Errorf("UI_DEV_SETUP: %w", err)
		}
		if err := unix.IoctlSetInt(int(fd), uiDevCreate, 0); err != nil {
			return fmt.Errorf("UI_DEV_CREATE: %w", err)
		}
		return nil
	})
}

// Emit writes a synthesized wheel step.
func (u *Uinput) Emit(d scroll.Delta) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.file == nil {
		return os.ErrClosed
	}
	f := wheelFrame(d.Y, d.X, &u.remY, &u.remX)
	if len(f) == 0 {
		return nil
	}
	_, err := u.file.Write(encodeFrame(f))
	return err
}

// forward replays a hardware frame that the engine did not absorb.
func (u *Uinput) forward(f frame) error {
	if len(f) == 0 {
		return nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.file == nil {
		return os.ErrClosed
	}
	_, err := u.file.Write(encodeFrame(f))
	return err
}

// Close destroys the virtual device.
func (u *Uinput) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.file == nil {
		return nil
	}
	_ = control(u.file, func(fd uintptr) error { return unix.IoctlSetInt(int(fd), uiDevDestroy, 0) })
	err := u.file.Close()
	u.file = nil
	return err
}

// ioctlPtr issues an ioctl whose argument is a struct, which x/sys/unix
// has no exported helper for.
func ioctlPtr(fd uintptr, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// control runs fn with the raw descriptor without switching the file into
// blocking mode, which os.File.Fd would do.
func control(file *os.File, fn func(fd uintptr) error) error {
	raw, err := file.SyscallConn()
	if err != nil {
		return err
	}
	var opErr error
	if err := raw.Control(func(fd uintptr) { opErr = fn(fd) }); err != nil {
		return err
	}
	return opErr
}
