package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SpeedPresets maps the named speed levels to multipliers.
var SpeedPresets = map[string]float64{
	"slow":      0.5,
	"normal":    1.0,
	"fast":      2.0,
	"very-fast": 4.0,
}

// SmoothnessPresets maps the named smoothness levels to damping fractions.
// Lower damping means a longer, smoother glide.
var SmoothnessPresets = map[string]float64{
	"very-smooth": 0.03,
	"smooth":      0.05,
	"normal":      0.10,
	"responsive":  0.25,
}

// ParseSpeed accepts a speed preset name or a literal multiplier.
func ParseSpeed(value string) (float64, error) {
	return parsePreset("speed", value, SpeedPresets)
}

// ParseSmoothness accepts a smoothness preset name or a literal damping fraction.
func ParseSmoothness(value string) (float64, error) {
	return parsePreset("smoothness", value, SmoothnessPresets)
}

// PresetName returns the preset whose value equals v, or "custom".
func PresetName(presets map[string]float64, v float64) string {
	for _, name := range presetNames(presets) {
		if presets[name] == v {
			return name
		}
	}
	return "custom"
}

func parsePreset(kind, value string, presets map[string]float64) (float64, error) {
	normalised := strings.ToLower(strings.TrimSpace(value))
	normalised = strings.ReplaceAll(normalised, "_", "-")
	if v, ok := presets[normalised]; ok {
		return v, nil
	}
	v, err := strconv.ParseFloat(normalised, 64)
	if err != nil {
		return 0, fmt.Errorf("unsupported %s %q (presets: %s)", kind, value, strings.Join(presetNames(presets), ", "))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a finite number, got %q", kind, value)
	}
	return v, nil
}

func presetNames(presets map[string]float64) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Speed is a speed multiplier written either as a number or a preset name.
type Speed float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Speed) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodePresetNode(node, ParseSpeed)
	if err != nil {
		return err
	}
	*s = Speed(v)
	return nil
}

// Smoothness is a damping fraction written either as a number or a preset name.
type Smoothness float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Smoothness) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodePresetNode(node, ParseSmoothness)
	if err != nil {
		return err
	}
	*s = Smoothness(v)
	return nil
}

func decodePresetNode(node *yaml.Node, parse func(string) (float64, error)) (float64, error) {
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: expected a number or preset name", node.Line)
	}
	v, err := parse(node.Value)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", node.Line, err)
	}
	return v, nil
}
