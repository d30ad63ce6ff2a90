package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/negativepl/SmoothScroll/pkg/metrics"
	"github.com/negativepl/SmoothScroll/pkg/scroll"
	"github.com/negativepl/SmoothScroll/pkg/scrolltap"
)

type testHarness struct {
	engine *scroll.Engine
	replay *scrolltap.Replay
	ts     *httptest.Server
}

func newTestServer(t *testing.T) *testHarness {
	t.Helper()
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	replay := scrolltap.NewReplay()
	eng, err := scroll.NewEngine(scroll.Options{
		Interceptor: replay,
		Emitter:     &scrolltap.Recorder{},
		Scheduler:   &scroll.ManualScheduler{},
		Observer:    rec,
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	srv := NewServer(":0", eng, scrolltap.KindReplay, reg, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testHarness{engine: eng, replay: replay, ts: ts}
}

func (h *testHarness) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, h.ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealthzReflectsEngineState(t *testing.T) {
	h := newTestServer(t)

	resp, _ := h.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, h.engine.Start())
	defer h.engine.Stop()

	resp, body := h.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health healthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	require.Equal(t, "ok", health.Status)
}

func TestStatusReportsPendingDistance(t *testing.T) {
	h := newTestServer(t)
	require.NoError(t, h.engine.Start())
	defer h.engine.Stop()
	h.replay.Play(scroll.Input{Event: scroll.Event{DeltaY: 40}})

	resp, body := h.do(t, http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status statusResponse
	require.NoError(t, json.Unmarshal(body, &status))
	require.True(t, status.Running)
	require.True(t, status.Animating)
	require.Equal(t, 40.0, status.PendingY)
	require.Equal(t, "replay", status.Backend)
	require.NotEmpty(t, status.Session)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	require.NoError(t, h.engine.Start())
	defer h.engine.Stop()
	h.replay.Play(scroll.Input{Event: scroll.Event{DeltaY: 5}})

	resp, body := h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `smoothscroll_events_total{verdict="accumulate"} 1`)
}

func TestPatchPolicy(t *testing.T) {
	h := newTestServer(t)

	resp, body := h.do(t, http.MethodPatch, "/v1/policy", `{"enabled":false,"speed":"fast","smoothness":0.25,"excluded_targets":["com.example.Game"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var policy policyResponse
	require.NoError(t, json.Unmarshal(body, &policy))
	require.False(t, policy.Enabled)
	require.Equal(t, 2.0, policy.Speed)
	require.Equal(t, "fast", policy.SpeedPreset)
	require.Equal(t, "responsive", policy.SmoothnessLevel)
	require.Equal(t, []string{"com.example.game"}, policy.ExcludedTargets)

	settings := h.engine.Policy().Snapshot()
	require.False(t, settings.Enabled)
	require.Equal(t, 0.25, settings.Damping)
}

func TestPatchPolicyRejectsInvalidValues(t *testing.T) {
	h := newTestServer(t)
	before := h.engine.Policy().Snapshot()

	cases := map[string]struct {
		body string
		code int
	}{
		"malformed":      {`{"speed":`, http.StatusBadRequest},
		"unknown field":  {`{"volume":3}`, http.StatusBadRequest},
		"bad preset":     {`{"speed":"warp"}`, http.StatusBadRequest},
		"infinite speed": {`{"speed":"inf"}`, http.StatusBadRequest},
		"out of range":   {`{"smoothness":1.5}`, http.StatusUnprocessableEntity},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp, _ := h.do(t, http.MethodPatch, "/v1/policy", tc.body)
			require.Equal(t, tc.code, resp.StatusCode)
		})
	}
	require.Equal(t, before, h.engine.Policy().Snapshot())
}

func TestToggleAndExclusions(t *testing.T) {
	h := newTestServer(t)

	resp, body := h.do(t, http.MethodPost, "/v1/policy/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var policy policyResponse
	require.NoError(t, json.Unmarshal(body, &policy))
	require.False(t, policy.Enabled)

	resp, _ = h.do(t, http.MethodPut, "/v1/policy/exclusions/X", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, h.engine.Policy().Snapshot().Exclusions.Contains("x"))

	resp, _ = h.do(t, http.MethodDelete, "/v1/policy/exclusions/x", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Zero(t, h.engine.Policy().Snapshot().Exclusions.Len())
}

func TestServeStopsOnContextCancel(t *testing.T) {
	h := newTestServer(t)
	srv := NewServer("127.0.0.1:0", h.engine, "replay", prometheus.NewRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/v1/policy")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
