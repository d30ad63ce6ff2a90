package cmd

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/negativepl/SmoothScroll/pkg/config"
	"github.com/negativepl/SmoothScroll/pkg/scroll"
	"github.com/negativepl/SmoothScroll/pkg/scrolltap"
)

const defaultScript = "120 120 ~10 -40"

// maxSimulatedTicks bounds a simulation in case the script never settles.
const maxSimulatedTicks = 100000

func newSimulateCommand() command {
	return command{
		name:        "simulate",
		description: "Replay a scripted wheel sequence through the engine and print the synthesized output",
		configure: func(fs *flag.FlagSet) {
			fs.String("script", defaultScript, "Steps: DY[,DX][@TARGET], t:DY (trackpad), m:DY (momentum), revoke, ~N (advance N ticks)")
			fs.String("speed", "", "Speed preset or multiplier (default: from config)")
			fs.String("smoothness", "", "Smoothness preset or damping fraction (default: from config)")
			fs.Float64("tick-hz", 0, "Scheduler frequency (default: from config)")
			fs.Duration("idle-timeout", -1, "Stop animations after this much idle time; 0 coasts (default: from config)")
			fs.Bool("verbose", false, "Print every tick")
		},
		run: runSimulate,
	}
}

// simulationResult summarises one scripted replay.
type simulationResult struct {
	Ticks    int
	Events   int
	Verdicts map[scroll.Verdict]int
	TotalY   int64
	TotalX   int64
	Rearms   int
}

func runSimulate(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	settings, err := simulationSettings(fs, ctx.Config)
	if err != nil {
		return err
	}
	script := fs.Lookup("script").Value.String()
	if len(args) > 0 {
		script = strings.Join(args, " ")
	}

	result, err := simulate(script, settings, boolFlag(fs, "verbose"), stdout)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Settings: speed=%g damping=%g tick_hz=%g reverse_reset=%t idle_timeout=%s\n",
		settings.Speed, settings.Damping, settings.TickRate, settings.ReverseReset, idleLabel(settings.IdleTimeout))
	fmt.Fprintf(stdout, "Inputs: %d accumulated, %d passed through\n", result.Verdicts[scroll.Accumulate], result.Verdicts[scroll.Passthrough])
	fmt.Fprintf(stdout, "Ticks: %d (%s)\n", result.Ticks, time.Duration(result.Ticks)*settings.TickInterval())
	fmt.Fprintf(stdout, "Events: %d\n", result.Events)
	fmt.Fprintf(stdout, "Total: dy=%d dx=%d\n", result.TotalY, result.TotalX)
	if result.Rearms > 0 {
		fmt.Fprintf(stdout, "Re-arms: %d\n", result.Rearms)
	}
	return nil
}

func simulationSettings(fs *flag.FlagSet, cfg config.Config) (scroll.Settings, error) {
	settings := cfg.Settings()
	if value := fs.Lookup("speed").Value.String(); value != "" {
		speed, err := config.ParseSpeed(value)
		if err != nil {
			return settings, err
		}
		settings.Speed = speed
	}
	if value := fs.Lookup("smoothness").Value.String(); value != "" {
		damping, err := config.ParseSmoothness(value)
		if err != nil {
			return settings, err
		}
		settings.Damping = damping
	}
	if rate, _ := strconv.ParseFloat(fs.Lookup("tick-hz").Value.String(), 64); rate > 0 {
		settings.TickRate = rate
	}
	if idle, err := time.ParseDuration(fs.Lookup("idle-timeout").Value.String()); err == nil && idle >= 0 {
		settings.IdleTimeout = idle
	}
	settings.Enabled = true
	return settings, settings.Validate()
}

// simulate drives a real engine with a manual scheduler, so the output is a
// pure function of the script and settings.
func simulate(script string, settings scroll.Settings, verbose bool, stdout io.Writer) (simulationResult, error) {
	result := simulationResult{Verdicts: make(map[scroll.Verdict]int)}

	policy, err := scroll.NewPolicy(settings)
	if err != nil {
		return result, err
	}

	now := time.Unix(0, 0).UTC()
	clock := func() time.Time { return now }
	scheduler := &scroll.ManualScheduler{}
	replay := scrolltap.NewReplay()
	recorder := &scrolltap.Recorder{Loopback: replay}

	engine, err := scroll.NewEngine(scroll.Options{
		Interceptor: replay,
		Emitter:     recorder,
		Policy:      policy,
		Scheduler:   scheduler,
		Clock:       clock,
	})
	if err != nil {
		return result, err
	}
	if err := engine.Start(); err != nil {
		return result, err
	}
	defer engine.Stop()

	tick := func() bool {
		now = now.Add(settings.TickInterval())
		before := len(recorder.Deltas())
		more := scheduler.Step(now)
		result.Ticks++
		if verbose {
			deltas := recorder.Deltas()
			if len(deltas) > before {
				d := deltas[len(deltas)-1]
				fmt.Fprintf(stdout, "tick %4d  dy=%+d dx=%+d\n", result.Ticks, d.Y, d.X)
			} else {
				fmt.Fprintf(stdout, "tick %4d  (no event)\n", result.Ticks)
			}
		}
		return more
	}

	for i, step := range strings.Fields(strings.ReplaceAll(script, ";", " ")) {
		if strings.HasPrefix(step, "~") {
			n, err := strconv.Atoi(step[1:])
			if err != nil || n < 0 {
				return result, fmt.Errorf("step %d %q: tick count must be a non-negative integer", i+1, step)
			}
			for j := 0; j < n; j++ {
				if scheduler.Active() {
					tick()
				} else {
					now = now.Add(settings.TickInterval())
				}
			}
			continue
		}

		inputs, err := scrolltap.ParseScript(step)
		if err != nil {
			return result, fmt.Errorf("step %d: %w", i+1, err)
		}
		for _, in := range inputs {
			if in.Kind == scroll.InputRevoked {
				replay.Play(in)
				continue
			}
			for _, v := range replay.Play(in) {
				result.Verdicts[v]++
			}
		}
	}

	for scheduler.Active() && result.Ticks < maxSimulatedTicks {
		tick()
	}

	_, result.Rearms, _ = replay.Counts()
	for _, d := range recorder.Deltas() {
		result.Events++
		result.TotalY += int64(d.Y)
		result.TotalX += int64(d.X)
	}
	return result, nil
}
