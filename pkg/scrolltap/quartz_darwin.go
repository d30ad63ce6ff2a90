//go:build darwin

package scrolltap

/*
#cgo darwin CFLAGS: -x objective-c -fmodules -fobjc-arc
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices -framework Cocoa
#include <ApplicationServices/ApplicationServices.h>
#include <Cocoa/Cocoa.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

extern int goHandleScroll(uintptr_t handle, double dy, double dx, int64_t phase, int64_t momentum, int64_t userData);
extern void goTapDisabled(uintptr_t handle, int reason);

static CGEventRef scrollTapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *userInfo) {
        uintptr_t handle = (uintptr_t)userInfo;
        if (type == kCGEventTapDisabledByTimeout || type == kCGEventTapDisabledByUserInput) {
                goTapDisabled(handle, (int)type);
                return event;
        }
        if (type != kCGEventScrollWheel) {
                return event;
        }
        int suppress = goHandleScroll(handle,
                (double)CGEventGetIntegerValueField(event, kCGScrollWheelEventPointDeltaAxis1),
                (double)CGEventGetIntegerValueField(event, kCGScrollWheelEventPointDeltaAxis2),
                CGEventGetIntegerValueField(event, kCGScrollWheelEventScrollPhase),
                CGEventGetIntegerValueField(event, kCGScrollWheelEventMomentumPhase),
                CGEventGetIntegerValueField(event, kCGEventSourceUserData));
        return suppress ? NULL : event;
}

static CFMachPortRef createScrollTap(uintptr_t handle) {
        CGEventMask mask = ((CGEventMask)1) << kCGEventScrollWheel;
        return CGEventTapCreate(kCGHIDEventTap,
                                kCGHeadInsertEventTap,
                                kCGEventTapOptionDefault,
                                mask,
                                scrollTapCallback,
                                (void *)handle);
}

static CFRunLoopSourceRef addTapToCurrentRunLoop(CFMachPortRef tap) {
        CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
        if (source == NULL) {
                return NULL;
        }
        CFRunLoopAddSource(CFRunLoopGetCurrent(), source, kCFRunLoopCommonModes);
        CGEventTapEnable(tap, true);
        return source;
}

static CFRunLoopRef currentRunLoop(void) {
        return CFRunLoopGetCurrent();
}

static void runCurrentRunLoop(void) {
        CFRunLoopRun();
}

static void stopRunLoop(CFRunLoopRef loop) {
        CFRunLoopStop(loop);
}

static void enableTap(CFMachPortRef tap, bool enable) {
        CGEventTapEnable(tap, enable);
}

static void releaseTap(CFMachPortRef tap, CFRunLoopSourceRef source) {
        CGEventTapEnable(tap, false);
        if (source != NULL) {
                CFRunLoopRemoveSource(CFRunLoopGetCurrent(), source, kCFRunLoopCommonModes);
                CFRelease(source);
        }
        CFMachPortInvalidate(tap);
        CFRelease(tap);
}

static int postContinuousScroll(int32_t dy, int32_t dx, int64_t marker) {
        CGEventRef ev = CGEventCreateScrollWheelEvent2(NULL, kCGScrollEventUnitPixel, 2, dy, dx, 0);
        if (ev == NULL) {
                return 0;
        }
        CGEventSetIntegerValueField(ev, kCGScrollWheelEventIsContinuous, 1);
        CGEventSetIntegerValueField(ev, kCGEventSourceUserData, marker);
        CGEventPost(kCGSessionEventTap, ev);
        CFRelease(ev);
        return 1;
}

static CFStringRef copyFocusedAppBundle(void) {
        @autoreleasepool {
                NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
                if (app == nil) {
                        return NULL;
                }
                NSString *bundleID = app.bundleIdentifier ?: @"";
                return (__bridge_retained CFStringRef)bundleID;
        }
}
*/
import "C"

import (
	"errors"
	"io"
	"log/slog"
	"runtime"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/negativepl/SmoothScroll/pkg/permissions"
	"github.com/negativepl/SmoothScroll/pkg/scroll"
)

// syntheticMarker tags events posted by Quartz.Emit in kCGEventSourceUserData.
const syntheticMarker = 0x53534d4f4f5448

// Quartz intercepts scroll-wheel events with a CGEventTap at the HID level and
// posts synthesized continuous events at the session level, downstream of
// the tap.
type Quartz struct {
	logger *slog.Logger

	mu      sync.Mutex
	handler scroll.Handler
	tap     C.CFMachPortRef
	loop    C.CFRunLoopRef
	done    chan struct{}
}

// NewQuartz constructs an idle Quartz backend.
func NewQuartz(logger *slog.Logger) *Quartz {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Quartz{logger: logger}
}

// Open creates the event tap on a dedicated OS thread running a CFRunLoop.
func (q *Quartz) Open(h scroll.Handler) error {
	if !permissions.AccessibilityTrusted() {
		return scroll.ErrPermissionDenied
	}

	q.mu.Lock()
	if q.done != nil {
		q.mu.Unlock()
		return errors.New("quartz event tap already open")
	}
	q.handler = h
	q.mu.Unlock()

	ready := make(chan error, 1)
	go q.run(ready)
	return <-ready
}

func (q *Quartz) run(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	handle := cgo.NewHandle(q)
	defer handle.Delete()

	tap := C.createScrollTap(C.uintptr_t(handle))
	if tap == 0 {
		ready <- scroll.ErrPermissionDenied
		return
	}
	source := C.addTapToCurrentRunLoop(tap)
	if source == 0 {
		C.releaseTap(tap, source)
		ready <- errors.New("failed to create run loop source for event tap")
		return
	}

	done := make(chan struct{})
	q.mu.Lock()
	q.tap = tap
	q.loop = C.currentRunLoop()
	q.done = done
	q.mu.Unlock()
	ready <- nil

	C.runCurrentRunLoop()

	q.mu.Lock()
	q.tap = 0
	q.loop = 0
	q.mu.Unlock()
	C.releaseTap(tap, source)
	close(done)
}

// Rearm re-enables a tap the system disabled.
func (q *Quartz) Rearm() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tap == 0 {
		return errors.New("quartz event tap not open")
	}
	C.enableTap(q.tap, C.bool(true))
	return nil
}

// Close stops the run loop and releases the tap.
func (q *Quartz) Close() error {
	q.mu.Lock()
	loop := q.loop
	done := q.done
	q.done = nil
	q.mu.Unlock()
	if done == nil {
		return nil
	}
	if loop != 0 {
		C.stopRunLoop(loop)
	}
	<-done
	return nil
}

// Emit posts one continuous pixel scroll event.
func (q *Quartz) Emit(d scroll.Delta) error {
	if C.postContinuousScroll(C.int32_t(d.Y), C.int32_t(d.X), C.int64_t(syntheticMarker)) == 0 {
		return errors.New("create scroll event failed")
	}
	return nil
}

func (q *Quartz) currentHandler() scroll.Handler {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.handler
}

//export goHandleScroll
func goHandleScroll(handle C.uintptr_t, dy, dx C.double, phase, momentum, userData C.int64_t) C.int {
	q, ok := cgo.Handle(uintptr(handle)).Value().(*Quartz)
	if !ok {
		return 0
	}
	h := q.currentHandler()
	if h == nil {
		return 0
	}
	ev := scroll.Event{
		DeltaY:        float64(dy),
		DeltaX:        float64(dx),
		Phase:         int64(phase),
		MomentumPhase: int64(momentum),
		Synthetic:     int64(userData) == syntheticMarker,
	}
	if !ev.Synthetic {
		ev.Target = cfStringToGo(C.copyFocusedAppBundle())
	}
	if h.Handle(scroll.Input{Kind: scroll.InputScroll, Event: ev}) == scroll.Accumulate {
		return 1
	}
	return 0
}

//export goTapDisabled
func goTapDisabled(handle C.uintptr_t, reason C.int) {
	q, ok := cgo.Handle(uintptr(handle)).Value().(*Quartz)
	if !ok {
		return
	}
	cause := "disabled by user input"
	if C.CGEventType(reason) == C.kCGEventTapDisabledByTimeout {
		cause = "disabled by timeout"
	}
	if h := q.currentHandler(); h != nil {
		h.Handle(scroll.Input{Kind: scroll.InputRevoked, Reason: cause})
	}
}

func cfStringToGo(str C.CFStringRef) string {
	if str == 0 {
		return ""
	}
	defer C.CFRelease(C.CFTypeRef(str))
	length := C.CFStringGetLength(str)
	if length == 0 {
		return ""
	}
	bufSize := C.CFIndex(1 + 4*length)
	buf := make([]byte, int(bufSize))
	if C.CFStringGetCString(str, (*C.char)(unsafe.Pointer(&buf[0])), bufSize, C.kCFStringEncodingUTF8) == C.Boolean(0) {
		return ""
	}
	return C.GoString((*C.char)(unsafe.Pointer(&buf[0])))
}
