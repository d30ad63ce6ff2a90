package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	defer os.Chdir(cwd)

	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir temp dir: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Source != "<defaults>" {
		t.Fatalf("expected default source marker, got %q", cfg.Source)
	}
	settings := cfg.Settings()
	if !settings.Enabled || settings.Speed != 1.0 || settings.Damping != 0.05 {
		t.Fatalf("unexpected default settings: %+v", settings)
	}
	if settings.TickRate != 120 {
		t.Fatalf("unexpected default tick rate: %v", settings.TickRate)
	}
	if !settings.ReverseReset || settings.IdleTimeout != 0 {
		t.Fatalf("expected reversal reset and coasting by default: %+v", settings)
	}
	if cfg.Backend.Kind != "auto" {
		t.Fatalf("unexpected default backend: %q", cfg.Backend.Kind)
	}
	if cfg.PermissionPollInterval() != time.Second {
		t.Fatalf("unexpected poll interval: %v", cfg.PermissionPollInterval())
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit path")
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `engine:
  enabled: false
  speed: fast
  smoothness: 0.2
  tick_hz: 240
  reverse_reset: false
  idle_timeout_ms: 150
  excluded_targets:
    - " com.example.Games "
    - ""
backend:
  kind: Replay
  devices: [/dev/input/event3]
  virtual_device_name: test pointer
  permission_poll_seconds: 5
logging:
  level: DEBUG
  format: text
server:
  listen_addr: 127.0.0.1:9120
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	settings := cfg.Settings()
	if settings.Enabled {
		t.Fatalf("expected engine disabled")
	}
	if settings.Speed != 2.0 {
		t.Fatalf("unexpected speed: %v", settings.Speed)
	}
	if settings.Damping != 0.2 {
		t.Fatalf("unexpected damping: %v", settings.Damping)
	}
	if settings.TickRate != 240 {
		t.Fatalf("unexpected tick rate: %v", settings.TickRate)
	}
	if settings.ReverseReset {
		t.Fatalf("expected reversal reset disabled")
	}
	if settings.IdleTimeout != 150*time.Millisecond {
		t.Fatalf("unexpected idle timeout: %v", settings.IdleTimeout)
	}
	if !settings.Exclusions.Contains("com.example.games") || settings.Exclusions.Len() != 1 {
		t.Fatalf("unexpected exclusions: %v", settings.Exclusions.List())
	}
	if cfg.Backend.Kind != "replay" {
		t.Fatalf("unexpected backend kind: %q", cfg.Backend.Kind)
	}
	if len(cfg.Backend.Devices) != 1 || cfg.Backend.Devices[0] != "/dev/input/event3" {
		t.Fatalf("unexpected devices: %v", cfg.Backend.Devices)
	}
	if cfg.Backend.VirtualDeviceName != "test pointer" {
		t.Fatalf("unexpected virtual device name: %q", cfg.Backend.VirtualDeviceName)
	}
	if cfg.PermissionPollInterval() != 5*time.Second {
		t.Fatalf("unexpected poll interval: %v", cfg.PermissionPollInterval())
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:9120" {
		t.Fatalf("unexpected server address: %q", cfg.Server.ListenAddr)
	}
	if cfg.Source != cfgPath {
		t.Fatalf("expected source to equal path, got %q", cfg.Source)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("engine:\n  smoothness: very-smooth\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Engine.Enabled || float64(cfg.Engine.Speed) != 1.0 {
		t.Fatalf("expected untouched defaults, got %+v", cfg.Engine)
	}
	if float64(cfg.Engine.Smoothness) != 0.03 {
		t.Fatalf("unexpected smoothness: %v", cfg.Engine.Smoothness)
	}
}

func TestEmptyFileYieldsDefaults(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, nil, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Engine.TickHz != 120 {
		t.Fatalf("unexpected tick rate: %v", cfg.Engine.TickHz)
	}
}

func TestInvalidValuesReturnError(t *testing.T) {
	cases := map[string]struct {
		content string
		want    string
	}{
		"unknown key":    {"engine:\n  unsupported: true\n", "unsupported"},
		"unknown preset": {"engine:\n  speed: ludicrous\n", "ludicrous"},
		"damping range":  {"engine:\n  smoothness: 1.5\n", "damping"},
		"negative speed": {"engine:\n  speed: -1\n", "speed"},
		"tick range":     {"engine:\n  tick_hz: 5000\n", "tick_hz"},
		"idle negative":  {"engine:\n  idle_timeout_ms: -1\n", "idle_timeout_ms"},
		"backend kind":   {"backend:\n  kind: joystick\n", "joystick"},
		"log level":      {"logging:\n  level: loud\n", "loud"},
		"speed mapping":  {"engine:\n  speed:\n    a: 1\n", "preset"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(cfgPath, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, err := Load(cfgPath)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParsePresets(t *testing.T) {
	cases := map[string]struct {
		parse    func(string) (float64, error)
		value    string
		expected float64
	}{
		"speed preset":         {ParseSpeed, "Very_Fast", 4.0},
		"speed literal":        {ParseSpeed, "1.5", 1.5},
		"smoothness preset":    {ParseSmoothness, "responsive", 0.25},
		"smoothness literal":   {ParseSmoothness, " 0.07 ", 0.07},
		"normal is per family": {ParseSmoothness, "normal", 0.10},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := tc.parse(tc.value)
			if err != nil {
				t.Fatalf("parse %q: %v", tc.value, err)
			}
			if got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestParsePresetsRejectNonFinite(t *testing.T) {
	for _, value := range []string{"inf", "+Inf", "-inf", "NaN"} {
		if _, err := ParseSpeed(value); err == nil {
			t.Fatalf("expected speed %q to be rejected", value)
		}
		if _, err := ParseSmoothness(value); err == nil {
			t.Fatalf("expected smoothness %q to be rejected", value)
		}
	}
}

func TestPresetName(t *testing.T) {
	if got := PresetName(SpeedPresets, 2.0); got != "fast" {
		t.Fatalf("expected fast, got %q", got)
	}
	if got := PresetName(SmoothnessPresets, 0.07); got != "custom" {
		t.Fatalf("expected custom, got %q", got)
	}
}
