package scroll

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSettingsValidate(t *testing.T) {
	cases := map[string]func(*Settings){
		"zero speed":       func(s *Settings) { s.Speed = 0 },
		"negative speed":   func(s *Settings) { s.Speed = -1 },
		"infinite speed":   func(s *Settings) { s.Speed = math.Inf(1) },
		"NaN speed":        func(s *Settings) { s.Speed = math.NaN() },
		"NaN damping":      func(s *Settings) { s.Damping = math.NaN() },
		"infinite rate":    func(s *Settings) { s.TickRate = math.Inf(1) },
		"zero damping":     func(s *Settings) { s.Damping = 0 },
		"full damping":     func(s *Settings) { s.Damping = 1 },
		"zero tick rate":   func(s *Settings) { s.TickRate = 0 },
		"negative timeout": func(s *Settings) { s.IdleTimeout = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := DefaultSettings()
			mutate(&s)
			err := s.Validate()
			if !errors.Is(err, ErrInvalidSetting) {
				t.Fatalf("expected ErrInvalidSetting, got %v", err)
			}
		})
	}
	require.NoError(t, DefaultSettings().Validate())
}

func TestTickInterval(t *testing.T) {
	s := DefaultSettings()
	require.Equal(t, time.Second/120, s.TickInterval())
	s.TickRate = 60
	require.Equal(t, time.Second/60, s.TickInterval())
}

func TestPolicySettersRejectInvalidValues(t *testing.T) {
	p, err := NewPolicy(DefaultSettings())
	require.NoError(t, err)

	require.ErrorIs(t, p.SetSpeed(0), ErrInvalidSetting)
	require.ErrorIs(t, p.SetDamping(1.5), ErrInvalidSetting)
	require.Equal(t, DefaultSpeed, p.Snapshot().Speed)
	require.Equal(t, DefaultDamping, p.Snapshot().Damping)

	require.NoError(t, p.SetSpeed(2))
	require.NoError(t, p.SetDamping(0.25))
	require.Equal(t, 2.0, p.Snapshot().Speed)
	require.Equal(t, 0.25, p.Snapshot().Damping)
}

func TestPolicyToggle(t *testing.T) {
	p, err := NewPolicy(DefaultSettings())
	require.NoError(t, err)

	require.False(t, p.Toggle())
	require.False(t, p.Snapshot().Enabled)
	require.True(t, p.Toggle())
	p.SetEnabled(false)
	require.False(t, p.Snapshot().Enabled)
}

func TestPolicyExclusions(t *testing.T) {
	p, err := NewPolicy(DefaultSettings())
	require.NoError(t, err)

	p.SetExcluded([]string{" com.Example.A ", "", "com.example.b"})
	require.Equal(t, []string{"com.example.a", "com.example.b"}, p.Snapshot().Exclusions.List())

	snapshot := p.Snapshot()
	p.Exclude("com.example.c")
	p.Include("COM.EXAMPLE.A")
	require.Equal(t, []string{"com.example.b", "com.example.c"}, p.Snapshot().Exclusions.List())
	require.True(t, snapshot.Exclusions.Contains("com.example.a"), "earlier snapshots must not change")

	p.Exclude("com.example.b")
	require.Equal(t, 2, p.Snapshot().Exclusions.Len())
}

func TestPolicyApplyKeepsPreviousOnError(t *testing.T) {
	p, err := NewPolicy(DefaultSettings())
	require.NoError(t, err)

	bad := DefaultSettings()
	bad.Damping = 0
	require.Error(t, p.Apply(bad))
	require.Equal(t, DefaultDamping, p.Snapshot().Damping)

	good := DefaultSettings()
	good.IdleTimeout = 100 * time.Millisecond
	require.NoError(t, p.Apply(good))
	require.Equal(t, 100*time.Millisecond, p.Snapshot().IdleTimeout)
}

func TestNewPolicyValidates(t *testing.T) {
	s := DefaultSettings()
	s.Speed = 0
	_, err := NewPolicy(s)
	require.ErrorIs(t, err, ErrInvalidSetting)
}
