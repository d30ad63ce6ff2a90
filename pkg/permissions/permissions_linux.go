//go:build linux

package permissions

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

const inputGuidance = "add the user to the 'input' group and install a udev rule granting write access to /dev/uinput"

var (
	uinputPath   = "/dev/uinput"
	devicesGlob  = "/dev/input/event*"
	accessDevice = unix.Access
)

// AccessibilityTrusted reports whether input devices can be grabbed and the
// virtual pointer created.
func AccessibilityTrusted() bool {
	return probePlatformAccessibility().Granted()
}

// RequestAccessibility has no prompt on Linux; it reports the current state.
func RequestAccessibility() bool {
	return AccessibilityTrusted()
}

func probePlatformAccessibility() ProbeResult {
	if err := accessDevice(uinputPath, unix.W_OK); err != nil {
		return ProbeResult{Status: StatusDenied, Message: "cannot write " + uinputPath + ": " + err.Error(), Guidance: inputGuidance}
	}
	devices, _ := filepath.Glob(devicesGlob)
	if len(devices) == 0 {
		return ProbeResult{Status: StatusUnavailable, Message: "no input devices under " + filepath.Dir(devicesGlob)}
	}
	for _, device := range devices {
		if accessDevice(device, unix.R_OK) == nil {
			return ProbeResult{Status: StatusGranted, Message: "input devices readable and uinput writable"}
		}
	}
	return ProbeResult{Status: StatusDenied, Message: "no readable input devices", Guidance: inputGuidance}
}
