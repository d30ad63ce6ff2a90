package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/negativepl/SmoothScroll/pkg/scrolltap"
)

func newDoctorCommand() command {
	return command{
		name:        "doctor",
		description: "Report backend availability and input permissions",
		configure: func(fs *flag.FlagSet) {
			fs.String("backend", "", "Backend to check (default: from config)")
		},
		run: runDoctor,
	}
}

// detectEnvironment is swapped in tests.
var detectEnvironment = scrolltap.DetectEnvironment

func runDoctor(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	kind := ctx.Config.Backend.Kind
	if f := fs.Lookup("backend"); f != nil && f.Value.String() != "" {
		kind = f.Value.String()
	}

	env := detectEnvironment(kind)
	ctx.Logger.Info("doctor environment", "backend", env.Backend, "available", env.Available, "permission", env.Permission)

	fmt.Fprintf(stdout, "Version: %s\n", versionString())
	fmt.Fprintf(stdout, "Config: %s\n", ctx.Config.Source)
	fmt.Fprintf(stdout, "Backend: %s (native: %s)\n", env.Backend, scrolltap.NativeKind())
	fmt.Fprintf(stdout, "  available: %t\n", env.Available)
	fmt.Fprintf(stdout, "  permission: %s\n", env.Permission)
	if env.Message != "" {
		fmt.Fprintf(stdout, "  message: %s\n", env.Message)
	}
	if env.Guidance != "" {
		fmt.Fprintf(stdout, "  guidance: %s\n", env.Guidance)
	}
	if len(ctx.Config.Backend.Devices) > 0 {
		fmt.Fprintf(stdout, "  devices: %s\n", listLabel(ctx.Config.Backend.Devices))
	}

	settings := ctx.Config.Settings()
	fmt.Fprintf(stdout, "Engine: enabled=%t speed=%g damping=%g tick_hz=%g\n", settings.Enabled, settings.Speed, settings.Damping, settings.TickRate)

	if !env.Available {
		fmt.Fprintln(stdout, "Status: not ready")
		return nil
	}
	fmt.Fprintln(stdout, "Status: ready")
	return nil
}
