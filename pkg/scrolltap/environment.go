package scrolltap

import "github.com/negativepl/SmoothScroll/pkg/permissions"

// Environment summarises backend support on the running host.
type Environment struct {
	Backend    string
	Available  bool
	Permission string
	Message    string
	Guidance   string
}

// probeAccessibility is swapped in tests.
var probeAccessibility = func() permissions.ProbeResult {
	return permissions.ProbeAccessibility(nil)
}

// DetectEnvironment reports whether the backend named by kind can run here.
func DetectEnvironment(kind string) Environment {
	resolved, err := NormalizeKind(kind)
	if err != nil {
		return Environment{Backend: kind, Permission: "not_applicable", Message: err.Error()}
	}
	if resolved == KindAuto {
		resolved = NativeKind()
	}

	env := Environment{Backend: resolved}
	if resolved == KindReplay {
		env.Available = true
		env.Permission = "not_applicable"
		env.Message = "scripted replay backend"
		return env
	}
	if resolved != NativeKind() {
		env.Permission = "not_applicable"
		env.Message = resolved + " backend unsupported on this platform"
		return env
	}

	access := probeAccessibility()
	env.Permission = access.StatusString()
	env.Message = access.Message
	env.Guidance = access.Guidance
	env.Available = access.Status != permissions.StatusDenied && access.Status != permissions.StatusUnavailable
	if !env.Available && env.Message == "" {
		env.Message = "input interception permission missing"
	}
	return env
}
