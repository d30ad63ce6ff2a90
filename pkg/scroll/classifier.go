package scroll

import "math"

// Classify decides whether an event is smoothed or delivered untouched.
//
// Anything already continuous (a trackpad inside a gesture, or a wheel in a
// host-generated momentum phase) must pass through: smoothing it twice is
// visibly wrong. Only isolated discrete ticks are accumulated.
func Classify(ev Event, s Settings) Verdict {
	if !s.Enabled || ev.Synthetic {
		return Passthrough
	}
	if ev.Phase != 0 || ev.MomentumPhase != 0 {
		return Passthrough
	}
	if s.Exclusions.Contains(ev.Target) {
		return Passthrough
	}
	if ev.DeltaY == 0 && ev.DeltaX == 0 {
		return Passthrough
	}
	if !finite(ev.DeltaY) || !finite(ev.DeltaX) {
		return Passthrough
	}
	return Accumulate
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
