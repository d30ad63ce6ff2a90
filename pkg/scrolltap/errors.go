package scrolltap

import "errors"

// ErrUnsupported indicates the requested backend does not exist on this platform.
var ErrUnsupported = errors.New("scroll backend unsupported on this platform")

// ErrNoDevices indicates no input device matched the configured patterns.
var ErrNoDevices = errors.New("no pointer devices found")
