//go:build !darwin && !linux

package permissions

// AccessibilityTrusted is always false where no native backend exists.
func AccessibilityTrusted() bool {
	return false
}

// RequestAccessibility reports the current state; there is nothing to prompt.
func RequestAccessibility() bool {
	return false
}

func probePlatformAccessibility() ProbeResult {
	return ProbeResult{Status: StatusUnavailable, Message: "input interception unsupported on this platform"}
}
