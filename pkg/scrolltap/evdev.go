package scrolltap

import (
	"encoding/binary"
	"unsafe"
)

// Linux input event types and codes used by the evdev backend.
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evMsc = 0x04

	synReport = 0x00

	relX           = 0x00
	relY           = 0x01
	relHWheel      = 0x06
	relWheel       = 0x08
	relWheelHiRes  = 0x0b
	relHWheelHiRes = 0x0c

	mscScan = 0x04

	btnLeft = 0x110
	btnTask = 0x117
)

// hiResPerDetent is the number of high-resolution wheel units in one notch.
const hiResPerDetent = 120

// inputEventSize is sizeof(struct input_event) with a 64-bit timeval.
const inputEventSize = 24

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocNone  = 0
	iocWrite = 1
)

func ioc(dir, typ, nr, size uint32) uint {
	return uint((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

// uinputSetup mirrors struct uinput_setup.
type uinputSetup struct {
	Bustype      uint16
	Vendor       uint16
	Product      uint16
	Version      uint16
	Name         [80]byte
	FFEffectsMax uint32
}

var (
	// EVIOCGRAB = _IOW('E', 0x90, int)
	evioCGrab = ioc(iocWrite, 'E', 0x90, 4)

	uiSetEvBit   = ioc(iocWrite, 'U', 100, 4)
	uiSetKeyBit  = ioc(iocWrite, 'U', 101, 4)
	uiSetRelBit  = ioc(iocWrite, 'U', 102, 4)
	uiSetMscBit  = ioc(iocWrite, 'U', 104, 4)
	uiDevSetup   = ioc(iocWrite, 'U', 3, uint32(unsafe.Sizeof(uinputSetup{})))
	uiDevCreate  = ioc(iocNone, 'U', 1, 0)
	uiDevDestroy = ioc(iocNone, 'U', 2, 0)
)

// inputEvent is one decoded struct input_event.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

func decodeInputEvent(b []byte) inputEvent {
	return inputEvent{
		Sec:   int64(binary.LittleEndian.Uint64(b[0:8])),
		Usec:  int64(binary.LittleEndian.Uint64(b[8:16])),
		Type:  binary.LittleEndian.Uint16(b[16:18]),
		Code:  binary.LittleEndian.Uint16(b[18:20]),
		Value: int32(binary.LittleEndian.Uint32(b[20:24])),
	}
}

func appendInputEvent(dst []byte, ev inputEvent) []byte {
	var buf [inputEventSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(ev.Sec))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(ev.Usec))
	binary.LittleEndian.PutUint16(buf[16:18], ev.Type)
	binary.LittleEndian.PutUint16(buf[18:20], ev.Code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(ev.Value))
	return append(dst, buf[:]...)
}

// frame is the set of events reported between two SYN_REPORT markers,
// excluding the marker itself.
type frame []inputEvent

// frameReader splits a raw evdev byte stream into frames.
type frameReader struct {
	pending frame
	partial []byte
}

// feed consumes raw bytes and returns every frame completed by them.
func (r *frameReader) feed(b []byte) []frame {
	if len(r.partial) > 0 {
		b = append(r.partial, b...)
		r.partial = nil
	}
	var frames []frame
	for len(b) >= inputEventSize {
		ev := decodeInputEvent(b[:inputEventSize])
		b = b[inputEventSize:]
		if ev.Type == evSyn && ev.Code == synReport {
			frames = append(frames, r.pending)
			r.pending = nil
			continue
		}
		r.pending = append(r.pending, ev)
	}
	if len(b) > 0 {
		r.partial = append([]byte(nil), b...)
	}
	return frames
}

// wheel extracts the scroll deltas of a frame in high-resolution units.
// High-resolution codes win over legacy detents when both are present.
func (f frame) wheel() (dy, dx float64, ok bool) {
	var legacyY, legacyX, hiY, hiX int32
	var hasHiY, hasHiX bool
	for _, ev := range f {
		if ev.Type != evRel {
			continue
		}
		switch ev.Code {
		case relWheel:
			legacyY += ev.Value
			ok = true
		case relHWheel:
			legacyX += ev.Value
			ok = true
		case relWheelHiRes:
			hiY += ev.Value
			hasHiY = true
			ok = true
		case relHWheelHiRes:
			hiX += ev.Value
			hasHiX = true
			ok = true
		}
	}
	if !ok {
		return 0, 0, false
	}
	if hasHiY {
		dy = float64(hiY)
	} else {
		dy = float64(legacyY) * hiResPerDetent
	}
	if hasHiX {
		dx = float64(hiX)
	} else {
		dx = float64(legacyX) * hiResPerDetent
	}
	return dy, dx, true
}

// withoutWheel returns the frame with every wheel event removed.
func (f frame) withoutWheel() frame {
	out := make(frame, 0, len(f))
	for _, ev := range f {
		if ev.Type == evRel && isWheelCode(ev.Code) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func isWheelCode(code uint16) bool {
	switch code {
	case relWheel, relHWheel, relWheelHiRes, relHWheelHiRes:
		return true
	}
	return false
}

// encodeFrame serialises events followed by a SYN_REPORT.
func encodeFrame(f frame) []byte {
	buf := make([]byte, 0, (len(f)+1)*inputEventSize)
	for _, ev := range f {
		ev.Sec, ev.Usec = 0, 0
		buf = appendInputEvent(buf, ev)
	}
	return appendInputEvent(buf, inputEvent{Type: evSyn, Code: synReport})
}

// wheelFrame converts a synthesized delta into uinput events. Legacy detent
// events are derived from the running remainders so consumers without
// high-resolution support still scroll.
func wheelFrame(dy, dx int32, remY, remX *int32) frame {
	var f frame
	if dy != 0 {
		f = append(f, inputEvent{Type: evRel, Code: relWheelHiRes, Value: dy})
		if n := detents(dy, remY); n != 0 {
			f = append(f, inputEvent{Type: evRel, Code: relWheel, Value: n})
		}
	}
	if dx != 0 {
		f = append(f, inputEvent{Type: evRel, Code: relHWheelHiRes, Value: dx})
		if n := detents(dx, remX); n != 0 {
			f = append(f, inputEvent{Type: evRel, Code: relHWheel, Value: n})
		}
	}
	return f
}

func detents(delta int32, rem *int32) int32 {
	*rem += delta
	n := *rem / hiResPerDetent
	*rem -= n * hiResPerDetent
	return n
}
