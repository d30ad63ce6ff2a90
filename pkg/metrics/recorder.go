// Package metrics exports engine diagnostics as Prometheus collectors.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/negativepl/SmoothScroll/pkg/scroll"
)

const namespace = "smoothscroll"

// Recorder implements scroll.Observer on top of Prometheus collectors.
type Recorder struct {
	events     *prometheus.CounterVec
	ticks      *prometheus.CounterVec
	emitErrors prometheus.Counter
	rearms     *prometheus.CounterVec
	animations prometheus.Counter
	stops      *prometheus.CounterVec
	animating  prometheus.Gauge
	glide      prometheus.Histogram
	clock      func() time.Time

	mu          sync.Mutex
	glideOrigin time.Time
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Raw scroll events by classifier verdict.",
			},
			[]string{"verdict"},
		),
		ticks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ticks_total",
				Help:      "Scheduler ticks by whether a synthesized event was posted.",
			},
			[]string{"result"},
		),
		emitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emit_errors_total",
			Help:      "Synthesized events the backend failed to post.",
		}),
		rearms: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rearms_total",
				Help:      "Re-arm attempts after the host disabled interception.",
			},
			[]string{"result"},
		),
		animations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "animations_total",
			Help:      "Animations started.",
		}),
		stops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "animation_stops_total",
				Help:      "Animations stopped, by reason.",
			},
			[]string{"reason"},
		),
		animating: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "animating",
			Help:      "1 while the scheduler task is running.",
		}),
		glide: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "animation_seconds",
			Help:      "Duration of each animation from first accumulate to stop.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		clock: time.Now,
	}

	collectors := []prometheus.Collector{r.events, r.ticks, r.emitErrors, r.rearms, r.animations, r.stops, r.animating, r.glide}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	for _, v := range []scroll.Verdict{scroll.Passthrough, scroll.Accumulate} {
		r.events.WithLabelValues(v.String())
	}
	r.ticks.WithLabelValues("emitted")
	r.ticks.WithLabelValues("skipped")
	r.rearms.WithLabelValues("ok")
	r.rearms.WithLabelValues("failed")
	for _, reason := range []scroll.StopReason{scroll.StopSettled, scroll.StopIdleTimeout, scroll.StopCancelled} {
		r.stops.WithLabelValues(string(reason))
	}
	return r, nil
}

// Classified counts one classified event.
func (r *Recorder) Classified(v scroll.Verdict) {
	r.events.WithLabelValues(v.String()).Inc()
}

// Ticked counts one scheduler tick.
func (r *Recorder) Ticked(emitted bool) {
	if emitted {
		r.ticks.WithLabelValues("emitted").Inc()
		return
	}
	r.ticks.WithLabelValues("skipped").Inc()
}

// EmitFailed counts a failed post.
func (r *Recorder) EmitFailed() {
	r.emitErrors.Inc()
}

// AnimationStarted counts a new animation and notes its start time.
func (r *Recorder) AnimationStarted() {
	r.animations.Inc()
	r.animating.Set(1)
	r.mu.Lock()
	r.glideOrigin = r.clock()
	r.mu.Unlock()
}

// AnimationStopped records the stop reason and the animation duration.
func (r *Recorder) AnimationStopped(reason scroll.StopReason) {
	r.stops.WithLabelValues(string(reason)).Inc()
	r.animating.Set(0)
	r.mu.Lock()
	origin := r.glideOrigin
	r.glideOrigin = time.Time{}
	r.mu.Unlock()
	if !origin.IsZero() {
		r.glide.Observe(r.clock().Sub(origin).Seconds())
	}
}

// Rearmed counts a re-arm attempt.
func (r *Recorder) Rearmed(ok bool) {
	if ok {
		r.rearms.WithLabelValues("ok").Inc()
		return
	}
	r.rearms.WithLabelValues("failed").Inc()
}
