package scroll

import "errors"

// ErrPermissionDenied indicates the host refused the input interception subscription.
var ErrPermissionDenied = errors.New("input interception permission denied")

// ErrAlreadyStarted is returned by Start when the engine already holds a subscription.
var ErrAlreadyStarted = errors.New("engine already started")

// ErrInvalidSetting reports a policy value outside its permitted range.
var ErrInvalidSetting = errors.New("invalid policy setting")
