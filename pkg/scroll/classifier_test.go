package scroll

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	enabled := DefaultSettings()
	disabled := DefaultSettings()
	disabled.Enabled = false
	excluding := DefaultSettings()
	excluding.Exclusions = NewExclusions("com.example.Editor")

	cases := map[string]struct {
		event    Event
		settings Settings
		expected Verdict
	}{
		"discrete wheel tick":      {Event{DeltaY: 3}, enabled, Accumulate},
		"horizontal tick":          {Event{DeltaX: -2}, enabled, Accumulate},
		"trackpad gesture":         {Event{DeltaY: 3, Phase: 2}, enabled, Passthrough},
		"momentum coast":           {Event{DeltaY: 3, MomentumPhase: 1}, enabled, Passthrough},
		"disabled":                 {Event{DeltaY: 3}, disabled, Passthrough},
		"excluded target":          {Event{DeltaY: 3, Target: "com.example.editor "}, excluding, Passthrough},
		"other target":             {Event{DeltaY: 3, Target: "com.example.browser"}, excluding, Accumulate},
		"engine output":            {Event{DeltaY: 3, Synthetic: true}, enabled, Passthrough},
		"zero deltas":              {Event{}, enabled, Passthrough},
		"disabled trackpad":        {Event{DeltaY: 3, Phase: 1}, disabled, Passthrough},
		"excluded without deltas":  {Event{Target: "com.example.Editor"}, excluding, Passthrough},
		"empty target not matched": {Event{DeltaY: 1}, excluding, Accumulate},
		"NaN delta":                {Event{DeltaY: math.NaN()}, enabled, Passthrough},
		"infinite horizontal":      {Event{DeltaY: 1, DeltaX: math.Inf(-1)}, enabled, Passthrough},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := Classify(tc.event, tc.settings); got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}
