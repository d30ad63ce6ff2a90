package scroll

import (
	"sync"
	"time"
)

// Scheduler runs a periodic task. The task returns false to finish; the
// returned cancel function stops the task and waits until it is no longer
// running. Implementations never run the same task concurrently with itself.
type Scheduler interface {
	Every(interval time.Duration, task func(now time.Time) bool) (cancel func())
}

// TickerScheduler runs tasks on a goroutine driven by time.Ticker.
type TickerScheduler struct{}

// Every starts the task on its own goroutine. The first run happens
// immediately, the rest once per interval.
func (TickerScheduler) Every(interval time.Duration, task func(time.Time) bool) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-stop:
			return
		default:
		}
		if !task(time.Now()) {
			return
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				if !task(now) {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
		<-done
	}
}

// ManualScheduler runs the registered task only when Step is called. It makes
// tick sequences deterministic for tests and offline simulation.
type ManualScheduler struct {
	mu       sync.Mutex
	task     func(time.Time) bool
	interval time.Duration
	gen      uint64
	started  int
}

// Every registers the task, replacing any previous one.
func (m *ManualScheduler) Every(interval time.Duration, task func(time.Time) bool) func() {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.task = task
	m.interval = interval
	m.started++
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		if m.gen == gen {
			m.task = nil
		}
		m.mu.Unlock()
	}
}

// Step runs the task once with the supplied time. It reports whether a task
// is still registered afterwards.
func (m *ManualScheduler) Step(now time.Time) bool {
	m.mu.Lock()
	task := m.task
	gen := m.gen
	m.mu.Unlock()
	if task == nil {
		return false
	}

	more := task(now)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !more && m.gen == gen {
		m.task = nil
	}
	return m.task != nil
}

// Active reports whether a task is registered.
func (m *ManualScheduler) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.task != nil
}

// Interval returns the period requested by the current task.
func (m *ManualScheduler) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// Starts counts how many tasks have been registered.
func (m *ManualScheduler) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}
