package scroll

import "math"

const (
	// minStep is the floor applied once exponential decay falls below a pixel.
	minStep = 1.0
	// settleThreshold is the outstanding distance below which an axis is at rest.
	settleThreshold = 0.5
	// maxPending bounds the outstanding distance so a step always fits an int32.
	maxPending = 1 << 24
)

// axis holds the outstanding distance and rounding remainder for one direction.
type axis struct {
	pending float64
	carry   float64
}

// accumulate folds a scaled delta into the outstanding distance. When reverse
// is set and the delta opposes the residual motion, the residue is dropped so
// a reversed gesture does not fight the old direction.
func (a *axis) accumulate(delta, speed float64, reverse bool) {
	scaled := float64(delta * speed)
	if scaled == 0 || math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		return
	}
	if reverse && a.pending != 0 && math.Signbit(delta) != math.Signbit(a.pending) {
		a.reset()
	}
	a.pending = math.Max(-maxPending, math.Min(maxPending, a.pending+scaled))
}

// advance consumes the next step of outstanding distance and returns it.
func (a *axis) advance(damping float64) float64 {
	if a.pending == 0 {
		return 0
	}
	// explicit conversion keeps the product from being fused into the subtraction
	step := float64(a.pending * damping)
	if math.Abs(step) < minStep && math.Abs(a.pending) >= minStep {
		step = math.Copysign(minStep, a.pending)
	}
	a.pending -= step
	return step
}

// quantize converts a fractional step into whole pixels, carrying the remainder.
func (a *axis) quantize(step float64) int32 {
	adjusted := step + a.carry
	px := math.Round(adjusted)
	a.carry = adjusted - px
	return int32(px)
}

func (a *axis) settled() bool {
	return math.Abs(a.pending) < settleThreshold
}

func (a *axis) reset() {
	a.pending = 0
	a.carry = 0
}
