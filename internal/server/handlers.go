package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/promptdb/promptdb/pkg/agent"
	"github.com/promptdb/promptdb/pkg/plan"
)

// queryRequest carries either a natural-language prompt or a pre-built
// plan. When both are present the plan wins, so callers can review a plan
// from /v1/plan and replay it unchanged.
type queryRequest struct {
	Prompt string         `json:"prompt,omitempty"`
	Plan   map[string]any `json:"plan,omitempty"`
}

// queryResponse mirrors agent.Result plus the plan that produced it.
type queryResponse struct {
	Rows      []map[string]any `json:"rows"`
	RawQuery  string           `json:"rawQuery"`
	QueryType string           `json:"queryType"`
	Plan      *plan.Plan       `json:"plan"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.agent.Introspect(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Prompt == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("prompt is required"))
		return
	}

	raw, err := s.agent.GeneratePlan(r.Context(), s.gen, req.Prompt, s.model)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	ctx := r.Context()

	raw := req.Plan
	if raw == nil {
		if req.Prompt == "" {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("prompt or plan is required"))
			return
		}
		generated, err := s.agent.GeneratePlan(ctx, s.gen, req.Prompt, s.model)
		if err != nil {
			s.writeError(w, http.StatusBadGateway, err)
			return
		}
		raw = generated
	} else {
		// Pre-built plans skip generation, but table resolution still
		// needs a fresh introspection.
		if _, err := s.agent.Introspect(ctx); err != nil {
			s.writeError(w, http.StatusBadGateway, err)
			return
		}
	}

	p, err := plan.Decode(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if !p.Validate() {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("plan is missing operation or table"))
		return
	}

	res, err := s.agent.Execute(ctx, p)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, agent.ErrUnsupportedOperation) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Rows:      res.Rows,
		RawQuery:  res.RawQuery,
		QueryType: res.QueryType,
		Plan:      p,
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("request failed", slog.Int("status", status), slog.Any("error", err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
