package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/negativepl/SmoothScroll/pkg/scroll"
)

const DefaultFileName = "config.yaml"

// Config captures the user-adjustable knobs for the smoothing daemon.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Backend BackendConfig `yaml:"backend"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `yaml:"-"`
}

// EngineConfig holds the live smoothing policy.
type EngineConfig struct {
	Enabled         bool       `yaml:"enabled"`
	Speed           Speed      `yaml:"speed"`
	Smoothness      Smoothness `yaml:"smoothness"`
	TickHz          float64    `yaml:"tick_hz"`
	ReverseReset    bool       `yaml:"reverse_reset"`
	IdleTimeoutMS   int        `yaml:"idle_timeout_ms"`
	ExcludedTargets []string   `yaml:"excluded_targets"`
}

// BackendConfig selects the interception backend.
type BackendConfig struct {
	Kind                  string   `yaml:"kind"`
	Devices               []string `yaml:"devices"`
	VirtualDeviceName     string   `yaml:"virtual_device_name"`
	PermissionPollSeconds int      `yaml:"permission_poll_seconds"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig controls the local control server exposing health, metrics and
// the live policy. An empty address disables it.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

var backendKinds = map[string]struct{}{
	"auto":   {},
	"quartz": {},
	"evdev":  {},
	"replay": {},
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Enabled:      true,
			Speed:        Speed(scroll.DefaultSpeed),
			Smoothness:   Smoothness(scroll.DefaultDamping),
			TickHz:       scroll.DefaultTickRate,
			ReverseReset: true,
		},
		Backend: BackendConfig{
			Kind:                  "auto",
			PermissionPollSeconds: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Source: "<defaults>",
	}
}

// Load reads configuration from disk if present, otherwise returning defaults.
// When path is empty, the loader attempts to read ./config.yaml but tolerates a missing file.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	file, err := os.Open(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return cfg, fmt.Errorf("config file %q not found", candidate)
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config file %q: %w", candidate, err)
	}
	defer file.Close()

	if err := decodeYAML(file, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %q: %w", candidate, err)
	}
	cfg.Source = candidate
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}

	if c.Engine.TickHz < 1 || c.Engine.TickHz > 1000 {
		return fmt.Errorf("engine.tick_hz must be within [1,1000], got %v", c.Engine.TickHz)
	}
	if c.Engine.IdleTimeoutMS < 0 {
		return errors.New("engine.idle_timeout_ms must not be negative")
	}
	if err := c.Settings().Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	if _, ok := backendKinds[c.Backend.Kind]; !ok {
		return fmt.Errorf("backend.kind %q unsupported", c.Backend.Kind)
	}
	if c.Backend.PermissionPollSeconds <= 0 {
		return errors.New("backend.permission_poll_seconds must be positive")
	}

	return nil
}

// Settings converts the engine section into the policy snapshot the engine consumes.
func (c Config) Settings() scroll.Settings {
	return scroll.Settings{
		Enabled:      c.Engine.Enabled,
		Speed:        float64(c.Engine.Speed),
		Damping:      float64(c.Engine.Smoothness),
		TickRate:     c.Engine.TickHz,
		ReverseReset: c.Engine.ReverseReset,
		IdleTimeout:  time.Duration(c.Engine.IdleTimeoutMS) * time.Millisecond,
		Exclusions:   scroll.NewExclusions(c.Engine.ExcludedTargets...),
	}
}

// PermissionPollInterval is the delay between permission probes while waiting to start.
func (c Config) PermissionPollInterval() time.Duration {
	return time.Duration(c.Backend.PermissionPollSeconds) * time.Second
}

func (c *Config) normalize() {
	defaults := Default()

	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if level, err := NormalizeLogLevel(c.Logging.Level); err == nil {
		c.Logging.Level = level
	}
	if format, err := NormalizeFormat(c.Logging.Format); err == nil {
		c.Logging.Format = format
	}

	c.Backend.Kind = strings.ToLower(strings.TrimSpace(c.Backend.Kind))
	if c.Backend.Kind == "" {
		c.Backend.Kind = defaults.Backend.Kind
	}
	if c.Backend.PermissionPollSeconds == 0 {
		c.Backend.PermissionPollSeconds = defaults.Backend.PermissionPollSeconds
	}
	c.Backend.VirtualDeviceName = strings.TrimSpace(c.Backend.VirtualDeviceName)
	c.Backend.Devices = trimList(c.Backend.Devices)

	if c.Engine.TickHz == 0 {
		c.Engine.TickHz = defaults.Engine.TickHz
	}
	c.Engine.ExcludedTargets = trimList(c.Engine.ExcludedTargets)
	c.Server.ListenAddr = strings.TrimSpace(c.Server.ListenAddr)
}

func trimList(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// NormalizeLogLevel validates and lowercases known logging levels.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes logging format identifiers.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return "json", nil
	case "console", "text":
		return "console", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}
