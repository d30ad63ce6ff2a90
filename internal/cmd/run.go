package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/negativepl/SmoothScroll/internal/api"
	"github.com/negativepl/SmoothScroll/pkg/config"
	"github.com/negativepl/SmoothScroll/pkg/logging"
	"github.com/negativepl/SmoothScroll/pkg/metrics"
	"github.com/negativepl/SmoothScroll/pkg/permissions"
	"github.com/negativepl/SmoothScroll/pkg/scroll"
	"github.com/negativepl/SmoothScroll/pkg/scrolltap"
)

func newRunCommand() command {
	return command{
		name:        "run",
		description: "Start the smoothing daemon",
		configure: func(fs *flag.FlagSet) {
			fs.Bool("plan-only", false, "Print the resolved configuration without intercepting input")
		},
		run: runDaemon,
	}
}

type daemonAction int

const (
	actionStop daemonAction = iota
	actionReload
	actionToggle
)

var (
	timeNow           = time.Now
	openBackend       = scrolltap.Open
	requestPermission = permissions.RequestAccessibility
	probePermission   = func() permissions.ProbeResult { return permissions.ProbeAccessibility(nil) }
	loadConfig        = config.Load
)

func runDaemon(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	planOnly := boolFlag(fs, "plan-only")
	ctx.Logger.Info("run command invoked", "plan_only", planOnly, "backend", ctx.Config.Backend.Kind, "config_source", ctx.Config.Source)

	if planOnly {
		printRunPlan(ctx, stdout)
		return nil
	}

	d, err := newDaemon(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	sigCh := make(chan os.Signal, 4)
	watched := make([]os.Signal, 0, len(daemonSignals))
	for sig := range daemonSignals {
		watched = append(watched, sig)
	}
	signal.Notify(sigCh, watched...)
	defer signal.Stop(sigCh)

	actions := make(chan daemonAction, 4)
	done := make(chan struct{})
	defer close(done)
	go forwardSignals(sigCh, actions, done, ctx.Logger)

	return d.run(context.Background(), actions)
}

// forwardSignals translates OS signals into daemon actions until done is closed.
func forwardSignals(sigCh <-chan os.Signal, actions chan<- daemonAction, done <-chan struct{}, logger *slog.Logger) {
	for {
		select {
		case <-done:
			return
		case sig := <-sigCh:
			action, ok := daemonSignals[sig]
			if !ok {
				continue
			}
			logger.Info("signal received", "signal", sig.String())
			select {
			case actions <- action:
			case <-done:
				return
			}
		}
	}
}

// daemon owns the engine for the lifetime of the run command.
type daemon struct {
	app      *AppContext
	backend  *scrolltap.Backend
	engine   *scroll.Engine
	registry *prometheus.Registry
	poll     time.Duration
	prompted bool
}

func newDaemon(app *AppContext) (*daemon, error) {
	cfg := app.Config
	backend, err := openBackend(scrolltap.Options{
		Kind:        cfg.Backend.Kind,
		Devices:     cfg.Backend.Devices,
		VirtualName: cfg.Backend.VirtualDeviceName,
		Logger:      app.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend.Kind, err)
	}

	policy, err := scroll.NewPolicy(cfg.Settings())
	if err != nil {
		backend.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	engine, err := scroll.NewEngine(scroll.Options{
		Interceptor: backend.Interceptor,
		Emitter:     backend.Emitter,
		Policy:      policy,
		Observer:    recorder,
		Logger:      app.Logger.With("backend", backend.Name),
		Clock:       timeNow,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &daemon{
		app:      app,
		backend:  backend,
		engine:   engine,
		registry: registry,
		poll:     cfg.PermissionPollInterval(),
	}, nil
}

// run starts the engine, retrying while the permission is missing, and
// serves actions until actionStop arrives or ctx ends.
func (d *daemon) run(ctx context.Context, actions <-chan daemonAction) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	if addr := d.app.Config.Server.ListenAddr; addr != "" {
		srv := api.NewServer(addr, d.engine, d.backend.Name, d.registry, d.app.Logger)
		go func() { serverErr <- srv.Run(ctx) }()
	}

	retry := time.NewTimer(0)
	defer retry.Stop()

	for {
		select {
		case <-ctx.Done():
			d.engine.Stop()
			return nil
		case err := <-serverErr:
			d.engine.Stop()
			if err != nil {
				return fmt.Errorf("control server: %w", err)
			}
			return nil
		case <-retry.C:
			started, err := d.tryStart()
			if err != nil {
				return err
			}
			if !started {
				retry.Reset(d.poll)
			}
		case action := <-actions:
			switch action {
			case actionStop:
				d.engine.Stop()
				d.app.Logger.Info("daemon stopping")
				return nil
			case actionToggle:
				enabled := d.engine.Policy().Toggle()
				d.app.Logger.Info("smoothing toggled", "enabled", enabled)
			case actionReload:
				if err := d.reload(); err != nil {
					d.app.Logger.Error("reload configuration", "error", err)
				}
			}
		}
	}
}

// tryStart reports whether the engine is running after one attempt. A
// missing permission is not an error; the caller polls again.
func (d *daemon) tryStart() (bool, error) {
	err := d.engine.Start()
	switch {
	case err == nil, errors.Is(err, scroll.ErrAlreadyStarted):
		return true, nil
	case errors.Is(err, scroll.ErrPermissionDenied):
		probe := probePermission()
		if !d.prompted {
			d.prompted = true
			requestPermission()
			d.app.Logger.Warn("input interception not permitted; waiting for access",
				"permission", probe.StatusString(),
				"guidance", probe.Guidance,
				"poll_interval", d.poll.String(),
			)
		} else {
			d.app.Logger.Debug("permission still missing", "permission", probe.StatusString())
		}
		return false, nil
	default:
		return false, fmt.Errorf("start engine: %w", err)
	}
}

// reload re-reads the configuration file into the live policy and logger.
// Backend settings only take effect on restart.
func (d *daemon) reload() error {
	cfg, err := loadConfig(d.app.ConfigPath)
	if err != nil {
		return err
	}
	if err := d.engine.Policy().Apply(cfg.Settings()); err != nil {
		return err
	}
	level := cfg.Logging.Level
	if d.app.levelOverride != "" {
		level = d.app.levelOverride
	}
	if d.app.LogLevel != nil {
		if err := logging.SetLevel(d.app.LogLevel, level); err != nil {
			return err
		}
	}
	d.app.Config.Engine = cfg.Engine
	d.app.Logger.Info("configuration reloaded", "source", cfg.Source, "enabled", cfg.Engine.Enabled, "speed", float64(cfg.Engine.Speed), "damping", float64(cfg.Engine.Smoothness))
	return nil
}

func (d *daemon) close() {
	d.engine.Stop()
	if err := d.backend.Close(); err != nil {
		d.app.Logger.Warn("close backend", "error", err)
	}
}

func printRunPlan(ctx *AppContext, stdout io.Writer) {
	cfg := ctx.Config
	settings := cfg.Settings()
	fmt.Fprintf(stdout, "Resolved configuration (source: %s)\n", cfg.Source)
	fmt.Fprintf(stdout, "  engine.enabled: %t\n", settings.Enabled)
	fmt.Fprintf(stdout, "  engine.speed: %g (%s)\n", settings.Speed, config.PresetName(config.SpeedPresets, settings.Speed))
	fmt.Fprintf(stdout, "  engine.smoothness: %g (%s)\n", settings.Damping, config.PresetName(config.SmoothnessPresets, settings.Damping))
	fmt.Fprintf(stdout, "  engine.tick_hz: %g (interval %s)\n", settings.TickRate, settings.TickInterval())
	fmt.Fprintf(stdout, "  engine.reverse_reset: %t\n", settings.ReverseReset)
	fmt.Fprintf(stdout, "  engine.idle_timeout: %s\n", idleLabel(settings.IdleTimeout))
	fmt.Fprintf(stdout, "  engine.excluded_targets: %s\n", listLabel(settings.Exclusions.List()))
	fmt.Fprintf(stdout, "  backend.kind: %s\n", cfg.Backend.Kind)
	fmt.Fprintf(stdout, "  backend.devices: %s\n", listLabel(cfg.Backend.Devices))
	fmt.Fprintf(stdout, "  backend.permission_poll: %s\n", cfg.PermissionPollInterval())
	fmt.Fprintf(stdout, "  server.listen_addr: %s\n", orNone(cfg.Server.ListenAddr))
	fmt.Fprintf(stdout, "  logging.level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(stdout, "  logging.format: %s\n", cfg.Logging.Format)
}

func idleLabel(d time.Duration) string {
	if d <= 0 {
		return "off (coast to rest)"
	}
	return d.String()
}

func listLabel(values []string) string {
	if len(values) == 0 {
		return "<none>"
	}
	return strings.Join(values, ", ")
}

func orNone(value string) string {
	if value == "" {
		return "<disabled>"
	}
	return value
}

func boolFlag(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	value, err := strconv.ParseBool(f.Value.String())
	if err != nil {
		return false
	}
	return value
}
