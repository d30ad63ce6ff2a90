package scroll

// InputKind distinguishes scroll samples from control notifications.
type InputKind int

const (
	// InputScroll carries a raw scroll event.
	InputScroll InputKind = iota
	// InputRevoked reports that the host disabled the interception subscription.
	InputRevoked
)

// Event is one raw scroll sample as delivered by the interception backend.
type Event struct {
	DeltaY float64
	DeltaX float64
	// Phase is the gesture phase tag; non-zero for trackpads in an active gesture.
	Phase int64
	// MomentumPhase is non-zero while the host generates inertial scrolling.
	MomentumPhase int64
	// Target identifies the focused destination, e.g. an application bundle id.
	Target string
	// Synthetic is set by backends for events the engine posted itself.
	Synthetic bool
}

// Input is the single value type flowing into the engine.
type Input struct {
	Kind   InputKind
	Event  Event
	Reason string
}

// Verdict is the classifier's decision for one event.
type Verdict int

const (
	// Passthrough delivers the original event unchanged.
	Passthrough Verdict = iota
	// Accumulate absorbs the deltas and suppresses the original event.
	Accumulate
)

func (v Verdict) String() string {
	switch v {
	case Accumulate:
		return "accumulate"
	default:
		return "passthrough"
	}
}

// Delta is one synthesized continuous scroll step in whole pixels.
type Delta struct {
	Y int32
	X int32
}

// IsZero reports whether the delta carries no motion on either axis.
func (d Delta) IsZero() bool {
	return d.Y == 0 && d.X == 0
}

// Handler receives every input delivered by an interception backend and
// returns synchronously whether the original event must be suppressed.
type Handler interface {
	Handle(Input) Verdict
}

// HandlerFunc adapts a function literal to the Handler interface.
type HandlerFunc func(Input) Verdict

// Handle calls the underlying function.
func (f HandlerFunc) Handle(in Input) Verdict {
	return f(in)
}

// Interceptor owns the subscription to the host's raw scroll stream.
type Interceptor interface {
	// Open acquires the subscription and begins delivering input to h.
	// It returns ErrPermissionDenied when the host withholds the privilege.
	Open(h Handler) error
	// Rearm re-enables a subscription the host disabled.
	Rearm() error
	// Close releases the subscription.
	Close() error
}

// Emitter delivers synthesized continuous-class scroll events downstream of
// the interception point.
type Emitter interface {
	Emit(Delta) error
}
