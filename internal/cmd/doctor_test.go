package cmd

import (
	"bytes"
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/negativepl/SmoothScroll/pkg/config"
	"github.com/negativepl/SmoothScroll/pkg/scrolltap"
)

func TestDoctorReportsEnvironment(t *testing.T) {
	cases := map[string]struct {
		env    scrolltap.Environment
		status string
	}{
		"ready": {
			env:    scrolltap.Environment{Backend: "evdev", Available: true, Permission: "granted", Message: "ok"},
			status: "Status: ready",
		},
		"denied": {
			env:    scrolltap.Environment{Backend: "quartz", Permission: "denied", Message: "accessibility trust required", Guidance: "open settings"},
			status: "Status: not ready",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var requested string
			orig := detectEnvironment
			detectEnvironment = func(kind string) scrolltap.Environment {
				requested = kind
				return tc.env
			}
			defer func() { detectEnvironment = orig }()

			fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
			newDoctorCommand().configure(fs)
			if err := fs.Parse([]string{"-backend", "replay"}); err != nil {
				t.Fatalf("parse flags: %v", err)
			}

			var stdout bytes.Buffer
			if err := runDoctor(fs, nil, newTestApp(config.Default()), &stdout, io.Discard); err != nil {
				t.Fatalf("runDoctor: %v", err)
			}
			if requested != "replay" {
				t.Fatalf("expected backend flag to win, got %q", requested)
			}
			out := stdout.String()
			if !strings.Contains(out, tc.status) {
				t.Fatalf("expected %q in %q", tc.status, out)
			}
			if !strings.Contains(out, "permission: "+tc.env.Permission) {
				t.Fatalf("missing permission line in %q", out)
			}
			if tc.env.Guidance != "" && !strings.Contains(out, "guidance: "+tc.env.Guidance) {
				t.Fatalf("missing guidance in %q", out)
			}
		})
	}
}
