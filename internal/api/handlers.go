package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/negativepl/SmoothScroll/pkg/config"
	"github.com/negativepl/SmoothScroll/pkg/scroll"
)

type healthResponse struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Running   bool    `json:"running"`
	Animating bool    `json:"animating"`
	PendingY  float64 `json:"pending_y"`
	PendingX  float64 `json:"pending_x"`
	Session   string  `json:"session,omitempty"`
	Backend   string  `json:"backend"`
}

type policyResponse struct {
	Enabled         bool     `json:"enabled"`
	Speed           float64  `json:"speed"`
	SpeedPreset     string   `json:"speed_preset"`
	Smoothness      float64  `json:"smoothness"`
	SmoothnessLevel string   `json:"smoothness_preset"`
	TickHz          float64  `json:"tick_hz"`
	ReverseReset    bool     `json:"reverse_reset"`
	IdleTimeoutMS   int64    `json:"idle_timeout_ms"`
	ExcludedTargets []string `json:"excluded_targets"`
}

// patchPolicyRequest is the JSON body for PATCH /v1/policy. Speed and
// smoothness accept a number or a preset name.
type patchPolicyRequest struct {
	Enabled         *bool           `json:"enabled"`
	Speed           json.RawMessage `json:"speed"`
	Smoothness      json.RawMessage `json:"smoothness"`
	ExcludedTargets *[]string       `json:"excluded_targets"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if !s.engine.Running() {
		status = "waiting"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, healthResponse{Status: status})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	y, x := s.engine.Pending()
	s.writeJSON(w, http.StatusOK, statusResponse{
		Running:   s.engine.Running(),
		Animating: s.engine.Animating(),
		PendingY:  y,
		PendingX:  x,
		Session:   s.engine.Session(),
		Backend:   s.backend,
	})
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, policyView(s.engine.Policy().Snapshot()))
}

func (s *Server) handlePatchPolicy(w http.ResponseWriter, r *http.Request) {
	var req patchPolicyRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var speed, smoothness *float64
	var err error
	if speed, err = decodeLevel(req.Speed, config.ParseSpeed); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if smoothness, err = decodeLevel(req.Smoothness, config.ParseSmoothness); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.engine.Policy().Update(func(settings *scroll.Settings) {
		if req.Enabled != nil {
			settings.Enabled = *req.Enabled
		}
		if speed != nil {
			settings.Speed = *speed
		}
		if smoothness != nil {
			settings.Damping = *smoothness
		}
		if req.ExcludedTargets != nil {
			settings.Exclusions = scroll.NewExclusions(*req.ExcludedTargets...)
		}
	})
	if err != nil {
		if errors.Is(err, scroll.ErrInvalidSetting) {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("update policy", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to update policy")
		return
	}

	settings := s.engine.Policy().Snapshot()
	s.logger.Info("policy updated", "enabled", settings.Enabled, "speed", settings.Speed, "damping", settings.Damping)
	s.writeJSON(w, http.StatusOK, policyView(settings))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	enabled := s.engine.Policy().Toggle()
	s.logger.Info("smoothing toggled", "enabled", enabled)
	s.writeJSON(w, http.StatusOK, policyView(s.engine.Policy().Snapshot()))
}

func (s *Server) handleExclude(w http.ResponseWriter, r *http.Request) {
	s.engine.Policy().Exclude(chi.URLParam(r, "target"))
	s.writeJSON(w, http.StatusOK, policyView(s.engine.Policy().Snapshot()))
}

func (s *Server) handleInclude(w http.ResponseWriter, r *http.Request) {
	s.engine.Policy().Include(chi.URLParam(r, "target"))
	s.writeJSON(w, http.StatusOK, policyView(s.engine.Policy().Snapshot()))
}

func policyView(settings scroll.Settings) policyResponse {
	excluded := settings.Exclusions.List()
	if excluded == nil {
		excluded = []string{}
	}
	return policyResponse{
		Enabled:         settings.Enabled,
		Speed:           settings.Speed,
		SpeedPreset:     config.PresetName(config.SpeedPresets, settings.Speed),
		Smoothness:      settings.Damping,
		SmoothnessLevel: config.PresetName(config.SmoothnessPresets, settings.Damping),
		TickHz:          settings.TickRate,
		ReverseReset:    settings.ReverseReset,
		IdleTimeoutMS:   settings.IdleTimeout.Milliseconds(),
		ExcludedTargets: excluded,
	}
}

func decodeLevel(raw json.RawMessage, parse func(string) (float64, error)) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
	} else {
		text = string(raw)
	}
	v, err := parse(text)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
