package scroll

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Options wires an Engine to its collaborators.
type Options struct {
	Interceptor Interceptor
	Emitter     Emitter
	Policy      *Policy
	Scheduler   Scheduler
	Observer    Observer
	Logger      *slog.Logger
	Clock       func() time.Time
}

// Engine turns discrete wheel input into a continuous stream of pixel deltas.
//
// Input delivery and scheduler ticks are serialised by a single mutex, so an
// event is fully folded into the accumulator before the next tick reads it
// and ticks never overlap.
type Engine struct {
	interceptor Interceptor
	emitter     Emitter
	policy      *Policy
	scheduler   Scheduler
	observer    Observer
	logger      *slog.Logger
	clock       func() time.Time

	mu        sync.Mutex
	motion    Motion
	started   bool
	animating bool
	gen       uint64
	cancel    func()
	session   string
}

// NewEngine validates options and constructs an idle engine.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Interceptor == nil {
		return nil, errors.New("interceptor must not be nil")
	}
	if opts.Emitter == nil {
		return nil, errors.New("emitter must not be nil")
	}
	policy := opts.Policy
	if policy == nil {
		var err error
		policy, err = NewPolicy(DefaultSettings())
		if err != nil {
			return nil, err
		}
	}
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = TickerScheduler{}
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		interceptor: opts.Interceptor,
		emitter:     opts.Emitter,
		policy:      policy,
		scheduler:   scheduler,
		observer:    observer,
		logger:      logger,
		clock:       clock,
	}, nil
}

// Policy exposes the live settings surface.
func (e *Engine) Policy() *Policy {
	return e.policy
}

// Start acquires the interception subscription. It returns an error wrapping
// ErrPermissionDenied when the host has not granted the required privilege;
// callers are expected to poll the privilege and retry.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.started = true
	e.session = uuid.NewString()
	session := e.session
	e.mu.Unlock()

	if err := e.interceptor.Open(e); err != nil {
		e.mu.Lock()
		e.started = false
		e.session = ""
		e.mu.Unlock()
		if errors.Is(err, ErrPermissionDenied) {
			return err
		}
		return fmt.Errorf("open interceptor: %w", err)
	}

	e.logger.Info("smoothing engine started", "session", session)
	return nil
}

// Stop releases the subscription, cancels any running animation synchronously
// and clears all accumulated state. It is safe to call on a stopped engine.
func (e *Engine) Stop() {
	e.mu.Lock()
	wasStarted := e.started
	session := e.session
	cancel := e.haltLocked()
	e.started = false
	e.session = ""
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !wasStarted {
		return
	}
	if err := e.interceptor.Close(); err != nil {
		e.logger.Warn("close interceptor", "session", session, "error", err)
	}
	e.logger.Info("smoothing engine stopped", "session", session)
}

// Running reports whether the engine holds the interception subscription.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// Session returns the identifier of the current subscription, or "" when stopped.
func (e *Engine) Session() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Animating reports whether the scheduler task is active.
func (e *Engine) Animating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.animating
}

// Pending returns the outstanding distance per axis.
func (e *Engine) Pending() (y, x float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.motion.Pending()
}

// Handle is the single entry point for interception backends. It never
// panics: an unexpected condition fails safe by passing the event through.
func (e *Engine) Handle(in Input) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("scroll handler panic recovered", "panic", r)
			verdict = Passthrough
		}
	}()

	switch in.Kind {
	case InputRevoked:
		e.rearm(in.Reason)
		return Passthrough
	case InputScroll:
	default:
		return Passthrough
	}

	settings := e.policy.Snapshot()
	verdict = Classify(in.Event, settings)
	if verdict == Accumulate {
		verdict = e.accumulate(in.Event, settings)
	}
	e.observer.Classified(verdict)
	return verdict
}

func (e *Engine) accumulate(ev Event, settings Settings) Verdict {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return Passthrough
	}

	e.motion.Accumulate(ev.DeltaY, ev.DeltaX, settings, e.clock())
	if !e.animating && e.motion.Active() {
		e.gen++
		gen := e.gen
		e.animating = true
		e.cancel = e.scheduler.Every(settings.TickInterval(), func(now time.Time) bool {
			return e.tick(gen, now)
		})
		e.observer.AnimationStarted()
	}
	return Accumulate
}

// tick runs one scheduler period for the animation identified by gen.
func (e *Engine) tick(gen uint64, now time.Time) bool {
	e.mu.Lock()
	if gen != e.gen || !e.animating {
		e.mu.Unlock()
		return false
	}
	delta, more, reason := e.motion.Tick(e.policy.Snapshot(), now)
	if !more {
		e.animating = false
		e.cancel = nil
		e.observer.AnimationStopped(reason)
	}
	e.mu.Unlock()

	emitted := false
	if !delta.IsZero() {
		if err := e.emitter.Emit(delta); err != nil {
			e.observer.EmitFailed()
			e.logger.Warn("emit scroll delta", "dy", delta.Y, "dx", delta.X, "error", err)
		} else {
			emitted = true
		}
	}
	e.observer.Ticked(emitted)

	if !more {
		e.logger.Debug("scroll animation finished", "reason", string(reason))
	}
	return more
}

// haltLocked stops the animation and zeroes the accumulator. The returned
// cancel function must be called without holding e.mu.
func (e *Engine) haltLocked() func() {
	cancel := e.cancel
	if e.animating {
		e.observer.AnimationStopped(StopCancelled)
	}
	e.gen++
	e.animating = false
	e.cancel = nil
	e.motion.Reset()
	return cancel
}

func (e *Engine) rearm(reason string) {
	e.mu.Lock()
	started := e.started
	session := e.session
	e.mu.Unlock()
	if !started {
		return
	}

	if err := e.interceptor.Rearm(); err != nil {
		e.observer.Rearmed(false)
		e.logger.Error("re-arm interception", "session", session, "reason", reason, "error", err)
		return
	}
	e.observer.Rearmed(true)
	e.logger.Warn("interception re-armed", "session", session, "reason", reason)
}
