package scroll

import "time"

// StopReason explains why an animation ended.
type StopReason string

const (
	StopSettled     StopReason = "settled"
	StopIdleTimeout StopReason = "idle_timeout"
	StopCancelled   StopReason = "cancelled"
)

// Motion is the accumulator and decay state for both axes. It performs no
// scheduling or I/O; the Engine drives it from its single tick task.
type Motion struct {
	y, x      axis
	lastInput time.Time
}

// Accumulate adds raw deltas scaled by the speed multiplier.
func (m *Motion) Accumulate(dy, dx float64, s Settings, now time.Time) {
	m.y.accumulate(dy, s.Speed, s.ReverseReset)
	m.x.accumulate(dx, s.Speed, s.ReverseReset)
	m.lastInput = now
}

// Tick advances both axes by one scheduler period and returns the whole-pixel
// delta to emit. The boolean is false once the motion has come to rest, at
// which point all state has been cleared.
func (m *Motion) Tick(s Settings, now time.Time) (Delta, bool, StopReason) {
	if s.IdleTimeout > 0 && !m.lastInput.IsZero() && now.Sub(m.lastInput) >= s.IdleTimeout {
		m.Reset()
		return Delta{}, false, StopIdleTimeout
	}

	stepY := m.y.advance(s.Damping)
	stepX := m.x.advance(s.Damping)
	delta := Delta{Y: m.y.quantize(stepY), X: m.x.quantize(stepX)}

	if m.y.settled() && m.x.settled() {
		m.Reset()
		return delta, false, StopSettled
	}
	return delta, true, ""
}

// Active reports whether either axis has outstanding distance.
func (m *Motion) Active() bool {
	return m.y.pending != 0 || m.x.pending != 0
}

// Pending returns the outstanding distance per axis.
func (m *Motion) Pending() (y, x float64) {
	return m.y.pending, m.x.pending
}

// Carry returns the rounding remainder per axis.
func (m *Motion) Carry() (y, x float64) {
	return m.y.carry, m.x.carry
}

// Reset zeroes both axes and forgets the last input time.
func (m *Motion) Reset() {
	m.y.reset()
	m.x.reset()
	m.lastInput = time.Time{}
}
