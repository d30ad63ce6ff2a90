package scrolltap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func rawFrame(events ...inputEvent) []byte {
	return encodeFrame(events)
}

func TestIoctlRequestEncoding(t *testing.T) {
	require.Equal(t, uint(0x40044590), evioCGrab)
	require.Equal(t, uint(0x40045564), uiSetEvBit)
	require.Equal(t, uint(0x40045565), uiSetKeyBit)
	require.Equal(t, uint(0x40045566), uiSetRelBit)
	require.Equal(t, uint(0x405c5503), uiDevSetup)
	require.Equal(t, uint(0x5501), uiDevCreate)
	require.Equal(t, uint(0x5502), uiDevDestroy)
}

func TestInputEventRoundTrip(t *testing.T) {
	ev := inputEvent{Sec: 12, Usec: 34, Type: evRel, Code: relWheel, Value: -1}
	buf := appendInputEvent(nil, ev)
	require.Len(t, buf, inputEventSize)
	require.Equal(t, ev, decodeInputEvent(buf))
}

func TestFrameReaderSplitsOnSynReport(t *testing.T) {
	stream := rawFrame(inputEvent{Type: evRel, Code: relX, Value: 3})
	stream = append(stream, rawFrame(
		inputEvent{Type: evRel, Code: relWheel, Value: 1},
		inputEvent{Type: evRel, Code: relWheelHiRes, Value: 120},
	)...)

	var r frameReader
	first := r.feed(stream[:30])
	require.Len(t, first, 0)
	rest := r.feed(stream[30:])
	require.Len(t, rest, 2)
	require.Len(t, rest[0], 1)
	require.Len(t, rest[1], 2)
}

func TestFrameWheelPrefersHighResolution(t *testing.T) {
	cases := map[string]struct {
		frame  frame
		dy, dx float64
		ok     bool
	}{
		"legacy only": {
			frame: frame{{Type: evRel, Code: relWheel, Value: -2}},
			dy:    -240, ok: true,
		},
		"hi-res wins": {
			frame: frame{
				{Type: evRel, Code: relWheel, Value: 1},
				{Type: evRel, Code: relWheelHiRes, Value: 60},
			},
			dy: 60, ok: true,
		},
		"horizontal": {
			frame: frame{{Type: evRel, Code: relHWheel, Value: 1}},
			dx:    120, ok: true,
		},
		"motion only": {
			frame: frame{{Type: evRel, Code: relX, Value: 5}, {Type: evKey, Code: btnLeft, Value: 1}},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dy, dx, ok := tc.frame.wheel()
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.dy, dy)
			require.Equal(t, tc.dx, dx)
		})
	}
}

func TestFrameWithoutWheelKeepsOtherEvents(t *testing.T) {
	f := frame{
		{Type: evRel, Code: relX, Value: 1},
		{Type: evRel, Code: relWheel, Value: 1},
		{Type: evRel, Code: relWheelHiRes, Value: 120},
		{Type: evKey, Code: btnLeft, Value: 0},
	}
	out := f.withoutWheel()
	require.Equal(t, frame{{Type: evRel, Code: relX, Value: 1}, {Type: evKey, Code: btnLeft, Value: 0}}, out)
}

func TestWheelFrameDerivesLegacyDetents(t *testing.T) {
	var remY, remX int32

	f := wheelFrame(100, 0, &remY, &remX)
	require.Equal(t, frame{{Type: evRel, Code: relWheelHiRes, Value: 100}}, f)

	f = wheelFrame(30, -130, &remY, &remX)
	require.Equal(t, frame{
		{Type: evRel, Code: relWheelHiRes, Value: 30},
		{Type: evRel, Code: relWheel, Value: 1},
		{Type: evRel, Code: relHWheelHiRes, Value: -130},
		{Type: evRel, Code: relHWheel, Value: -1},
	}, f)
	require.EqualValues(t, 10, remY)
	require.EqualValues(t, -10, remX)
}
