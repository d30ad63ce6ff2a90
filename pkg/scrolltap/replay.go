package scrolltap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/negativepl/SmoothScroll/pkg/scroll"
)

// Replay is an interceptor driven by a script instead of a device. Deny makes
// Open fail with scroll.ErrPermissionDenied until cleared.
type Replay struct {
	mu      sync.Mutex
	handler scroll.Handler
	deny    bool
	opens   int
	rearms  int
	closes  int
}

// NewReplay constructs an idle replay interceptor.
func NewReplay() *Replay {
	return &Replay{}
}

// Deny toggles whether Open reports a missing permission.
func (r *Replay) Deny(deny bool) {
	r.mu.Lock()
	r.deny = deny
	r.mu.Unlock()
}

// Open stores the handler inputs are delivered to.
func (r *Replay) Open(h scroll.Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deny {
		return scroll.ErrPermissionDenied
	}
	r.handler = h
	r.opens++
	return nil
}

// Rearm counts re-arm requests.
func (r *Replay) Rearm() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handler == nil {
		return errors.New("replay not open")
	}
	r.rearms++
	return nil
}

// Close drops the handler.
func (r *Replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = nil
	r.closes++
	return nil
}

// Play delivers inputs in order and returns each verdict. Inputs played
// while closed pass through.
func (r *Replay) Play(inputs ...scroll.Input) []scroll.Verdict {
	verdicts := make([]scroll.Verdict, 0, len(inputs))
	for _, in := range inputs {
		r.mu.Lock()
		h := r.handler
		r.mu.Unlock()
		if h == nil {
			verdicts = append(verdicts, scroll.Passthrough)
			continue
		}
		verdicts = append(verdicts, h.Handle(in))
	}
	return verdicts
}

// Counts reports how often Open, Rearm and Close succeeded.
func (r *Replay) Counts() (opens, rearms, closes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens, r.rearms, r.closes
}

// Recorder is an emitter that keeps every delta. When Loopback is set, each
// emitted delta is also delivered back through it as a synthetic event, the
// way a host would show a posted event to a tap upstream of the post point.
type Recorder struct {
	Loopback *Replay

	mu     sync.Mutex
	deltas []scroll.Delta
	err    error
}

// Fail makes subsequent Emit calls return err; nil restores success.
func (r *Recorder) Fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Emit records d.
func (r *Recorder) Emit(d scroll.Delta) error {
	r.mu.Lock()
	if r.err != nil {
		err := r.err
		r.mu.Unlock()
		return err
	}
	r.deltas = append(r.deltas, d)
	loop := r.Loopback
	r.mu.Unlock()

	if loop != nil {
		loop.Play(scroll.Input{Kind: scroll.InputScroll, Event: scroll.Event{
			DeltaY:    float64(d.Y),
			DeltaX:    float64(d.X),
			Synthetic: true,
		}})
	}
	return nil
}

// Deltas returns a copy of everything emitted so far.
func (r *Recorder) Deltas() []scroll.Delta {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]scroll.Delta, len(r.deltas))
	copy(out, r.deltas)
	return out
}

// Totals sums the emitted pixels per axis.
func (r *Recorder) Totals() (y, x int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deltas {
		y += int64(d.Y)
		x += int64(d.X)
	}
	return y, x
}

// ParseScript turns a whitespace- or semicolon-separated script into inputs.
//
// Each step is either "revoke" or an optional prefix, the vertical delta,
// an optional ",dx" and an optional "@target":
//
//	100         wheel down 100 px
//	0,-40       horizontal only
//	t:12        trackpad sample in an active gesture phase
//	m:8         momentum sample
//	30@com.app  wheel sample aimed at com.app
func ParseScript(script string) ([]scroll.Input, error) {
	fields := strings.FieldsFunc(script, func(r rune) bool {
		return r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	inputs := make([]scroll.Input, 0, len(fields))
	for i, field := range fields {
		in, err := parseStep(field)
		if err != nil {
			return nil, fmt.Errorf("step %d %q: %w", i+1, field, err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func parseStep(step string) (scroll.Input, error) {
	if strings.EqualFold(step, "revoke") {
		return scroll.Input{Kind: scroll.InputRevoked, Reason: "scripted revoke"}, nil
	}

	var ev scroll.Event
	switch {
	case strings.HasPrefix(step, "t:"):
		ev.Phase = 1
		step = step[2:]
	case strings.HasPrefix(step, "m:"):
		ev.MomentumPhase = 1
		step = step[2:]
	}
	if at := strings.IndexByte(step, '@'); at >= 0 {
		ev.Target = step[at+1:]
		step = step[:at]
		if ev.Target == "" {
			return scroll.Input{}, errors.New("empty target")
		}
	}

	dyText, dxText, hasX := strings.Cut(step, ",")
	dy, err := strconv.ParseFloat(dyText, 64)
	if err != nil {
		return scroll.Input{}, fmt.Errorf("parse vertical delta: %w", err)
	}
	ev.DeltaY = dy
	if hasX {
		dx, err := strconv.ParseFloat(dxText, 64)
		if err != nil {
			return scroll.Input{}, fmt.Errorf("parse horizontal delta: %w", err)
		}
		ev.DeltaX = dx
	}
	return scroll.Input{Kind: scroll.InputScroll, Event: ev}, nil
}
