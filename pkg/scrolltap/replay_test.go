package scrolltap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/negativepl/SmoothScroll/pkg/scroll"
)

func TestParseScript(t *testing.T) {
	inputs, err := ParseScript("100; 0,-40 t:12 m:8\n30@com.example.app revoke")
	require.NoError(t, err)
	require.Len(t, inputs, 6)

	require.Equal(t, scroll.Event{DeltaY: 100}, inputs[0].Event)
	require.Equal(t, scroll.Event{DeltaX: -40}, inputs[1].Event)
	require.Equal(t, scroll.Event{DeltaY: 12, Phase: 1}, inputs[2].Event)
	require.Equal(t, scroll.Event{DeltaY: 8, MomentumPhase: 1}, inputs[3].Event)
	require.Equal(t, scroll.Event{DeltaY: 30, Target: "com.example.app"}, inputs[4].Event)
	require.Equal(t, scroll.InputRevoked, inputs[5].Kind)
}

func TestParseScriptErrors(t *testing.T) {
	cases := map[string]string{
		"not a number":   "abc",
		"bad horizontal": "1,x",
		"empty target":   "5@",
	}
	for name, script := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScript(script)
			require.Error(t, err)
		})
	}
}

func TestReplayDeliversToHandler(t *testing.T) {
	replay := NewReplay()
	require.Equal(t, []scroll.Verdict{scroll.Passthrough}, replay.Play(scroll.Input{}))

	var seen []scroll.Input
	require.NoError(t, replay.Open(scroll.HandlerFunc(func(in scroll.Input) scroll.Verdict {
		seen = append(seen, in)
		return scroll.Accumulate
	})))
	verdicts := replay.Play(scroll.Input{Event: scroll.Event{DeltaY: 1}}, scroll.Input{Event: scroll.Event{DeltaY: 2}})
	require.Equal(t, []scroll.Verdict{scroll.Accumulate, scroll.Accumulate}, verdicts)
	require.Len(t, seen, 2)

	require.NoError(t, replay.Rearm())
	require.NoError(t, replay.Close())
	require.Error(t, replay.Rearm())
	opens, rearms, closes := replay.Counts()
	require.Equal(t, 1, opens)
	require.Equal(t, 1, rearms)
	require.Equal(t, 1, closes)
}

func TestReplayDeny(t *testing.T) {
	replay := NewReplay()
	replay.Deny(true)
	require.ErrorIs(t, replay.Open(scroll.HandlerFunc(func(scroll.Input) scroll.Verdict { return scroll.Passthrough })), scroll.ErrPermissionDenied)
	replay.Deny(false)
	require.NoError(t, replay.Open(scroll.HandlerFunc(func(scroll.Input) scroll.Verdict { return scroll.Passthrough })))
}

func TestRecorderLoopbackMarksSynthetic(t *testing.T) {
	replay := NewReplay()
	var synthetic int
	require.NoError(t, replay.Open(scroll.HandlerFunc(func(in scroll.Input) scroll.Verdict {
		if in.Event.Synthetic {
			synthetic++
		}
		return scroll.Passthrough
	})))

	rec := &Recorder{Loopback: replay}
	require.NoError(t, rec.Emit(scroll.Delta{Y: 3}))
	require.NoError(t, rec.Emit(scroll.Delta{Y: -1, X: 2}))
	require.Equal(t, 2, synthetic)

	y, x := rec.Totals()
	require.EqualValues(t, 2, y)
	require.EqualValues(t, 2, x)
	require.Len(t, rec.Deltas(), 2)

	boom := errors.New("boom")
	rec.Fail(boom)
	require.ErrorIs(t, rec.Emit(scroll.Delta{Y: 1}), boom)
	require.Len(t, rec.Deltas(), 2)
}

func TestOpenReplayBackend(t *testing.T) {
	backend, err := Open(Options{Kind: " Replay "})
	require.NoError(t, err)
	require.Equal(t, KindReplay, backend.Name)
	require.IsType(t, &Replay{}, backend.Interceptor)
	require.IsType(t, &Recorder{}, backend.Emitter)
	require.NoError(t, backend.Close())
}

func TestOpenRejectsUnknownKind(t *testing.T) {
	_, err := Open(Options{Kind: "joystick"})
	require.Error(t, err)
}

func TestOpenForeignBackendUnsupported(t *testing.T) {
	foreign := KindQuartz
	if NativeKind() == KindQuartz {
		foreign = KindEvdev
	}
	_, err := Open(Options{Kind: foreign})
	require.ErrorIs(t, err, ErrUnsupported)
}
