//go:build darwin

package permissions

/*
#cgo darwin LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>

static Boolean axTrusted(Boolean prompt) {
        const void *keys[] = { kAXTrustedCheckOptionPrompt };
        const void *values[] = { prompt ? kCFBooleanTrue : kCFBooleanFalse };
        CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
                                                     &kCFTypeDictionaryKeyCallBacks,
                                                     &kCFTypeDictionaryValueCallBacks);
        Boolean trusted = AXIsProcessTrustedWithOptions(options);
        CFRelease(options);
        return trusted;
}
*/
import "C"

const accessibilityGuidance = "grant access in System Settings > Privacy & Security > Accessibility, then wait for the next poll"

// AccessibilityTrusted reports whether the process is a trusted
// accessibility client, without prompting.
func AccessibilityTrusted() bool {
	return C.axTrusted(C.Boolean(0)) != 0
}

// RequestAccessibility asks the system to show the accessibility prompt and
// reports the current trust state.
func RequestAccessibility() bool {
	return C.axTrusted(C.Boolean(1)) != 0
}

func probePlatformAccessibility() ProbeResult {
	if AccessibilityTrusted() {
		return ProbeResult{Status: StatusGranted, Message: "process is a trusted accessibility client"}
	}
	return ProbeResult{Status: StatusDenied, Message: "accessibility trust required", Guidance: accessibilityGuidance}
}
