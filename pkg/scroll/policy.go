package scroll

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Default policy values.
const (
	DefaultSpeed    = 1.0
	DefaultDamping  = 0.05
	DefaultTickRate = 120
)

// Settings is an immutable snapshot of the policy consulted for one event or tick.
type Settings struct {
	Enabled bool
	// Speed multiplies every raw delta before it is accumulated.
	Speed float64
	// Damping is the fraction of outstanding distance consumed per tick.
	Damping float64
	// TickRate is the scheduler frequency in Hz.
	TickRate float64
	// ReverseReset discards residual motion when the scroll direction flips.
	ReverseReset bool
	// IdleTimeout stops the animation when no discrete input arrived within the
	// window. Zero lets the animation coast to rest.
	IdleTimeout time.Duration
	Exclusions  Exclusions
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Enabled:      true,
		Speed:        DefaultSpeed,
		Damping:      DefaultDamping,
		TickRate:     DefaultTickRate,
		ReverseReset: true,
	}
}

// Validate checks the numeric ranges of the settings.
func (s Settings) Validate() error {
	if !(s.Speed > 0) || math.IsInf(s.Speed, 0) {
		return fmt.Errorf("%w: speed must be positive and finite, got %v", ErrInvalidSetting, s.Speed)
	}
	if !(s.Damping > 0 && s.Damping < 1) {
		return fmt.Errorf("%w: damping must be within (0,1), got %v", ErrInvalidSetting, s.Damping)
	}
	if !(s.TickRate > 0) || math.IsInf(s.TickRate, 0) {
		return fmt.Errorf("%w: tick rate must be positive, got %v", ErrInvalidSetting, s.TickRate)
	}
	if s.IdleTimeout < 0 {
		return fmt.Errorf("%w: idle timeout must not be negative", ErrInvalidSetting)
	}
	return nil
}

// TickInterval converts the tick rate into a scheduler period.
func (s Settings) TickInterval() time.Duration {
	rate := s.TickRate
	if !(rate > 0) || math.IsInf(rate, 0) {
		rate = DefaultTickRate
	}
	return time.Duration(float64(time.Second) / rate)
}

// Exclusions is a set of destination identifiers the engine never smooths.
// Matching is case-insensitive and ignores surrounding whitespace. The zero
// value excludes nothing. Values are never mutated after construction.
type Exclusions struct {
	targets map[string]struct{}
}

// NewExclusions builds a set from the supplied identifiers.
func NewExclusions(targets ...string) Exclusions {
	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		key := normalizeTarget(target)
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	if len(set) == 0 {
		return Exclusions{}
	}
	return Exclusions{targets: set}
}

// Contains reports whether target is excluded.
func (e Exclusions) Contains(target string) bool {
	if len(e.targets) == 0 {
		return false
	}
	key := normalizeTarget(target)
	if key == "" {
		return false
	}
	_, ok := e.targets[key]
	return ok
}

// Len returns the number of excluded identifiers.
func (e Exclusions) Len() int {
	return len(e.targets)
}

// List returns the excluded identifiers in sorted order.
func (e Exclusions) List() []string {
	out := make([]string, 0, len(e.targets))
	for target := range e.targets {
		out = append(out, target)
	}
	sort.Strings(out)
	return out
}

func (e Exclusions) with(target string, present bool) Exclusions {
	list := e.List()
	key := normalizeTarget(target)
	filtered := list[:0]
	for _, existing := range list {
		if existing != key {
			filtered = append(filtered, existing)
		}
	}
	if present {
		filtered = append(filtered, key)
	}
	return NewExclusions(filtered...)
}

func normalizeTarget(target string) string {
	return strings.ToLower(strings.TrimSpace(target))
}

// Policy is the live-mutable settings surface shared between the engine and
// its collaborators. Changes take effect on the next classified event or tick.
type Policy struct {
	mu       sync.RWMutex
	settings Settings
}

// NewPolicy validates the initial settings and returns a policy.
func NewPolicy(initial Settings) (*Policy, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &Policy{settings: initial}, nil
}

// Snapshot returns the current settings.
func (p *Policy) Snapshot() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// Apply replaces every setting at once, keeping the old values on error.
func (p *Policy) Apply(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.settings = next
	p.mu.Unlock()
	return nil
}

// SetEnabled switches smoothing on or off.
func (p *Policy) SetEnabled(enabled bool) {
	p.mu.Lock()
	p.settings.Enabled = enabled
	p.mu.Unlock()
}

// Toggle flips the enabled flag and returns the new value.
func (p *Policy) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings.Enabled = !p.settings.Enabled
	return p.settings.Enabled
}

// SetSpeed changes the speed multiplier.
func (p *Policy) SetSpeed(speed float64) error {
	return p.Update(func(s *Settings) { s.Speed = speed })
}

// SetDamping changes the damping fraction.
func (p *Policy) SetDamping(damping float64) error {
	return p.Update(func(s *Settings) { s.Damping = damping })
}

// SetExcluded replaces the exclusion set.
func (p *Policy) SetExcluded(targets []string) {
	excl := NewExclusions(targets...)
	p.mu.Lock()
	p.settings.Exclusions = excl
	p.mu.Unlock()
}

// Exclude adds a single destination to the exclusion set.
func (p *Policy) Exclude(target string) {
	p.mu.Lock()
	p.settings.Exclusions = p.settings.Exclusions.with(target, true)
	p.mu.Unlock()
}

// Include removes a destination from the exclusion set.
func (p *Policy) Include(target string) {
	p.mu.Lock()
	p.settings.Exclusions = p.settings.Exclusions.with(target, false)
	p.mu.Unlock()
}

// Update applies fn to a copy of the settings and commits the result only if
// it validates.
func (p *Policy) Update(fn func(*Settings)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.settings
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	p.settings = next
	return nil
}
