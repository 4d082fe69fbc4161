package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/capacity"
	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/roster"
	"github.com/jakechorley/duty-roster/pkg/core/services"
)

// RosterRequest is the body of POST /rosters and POST /rosters/check
type RosterRequest struct {
	WeekStart string `json:"week_start" validate:"required,datetime=2006-01-02"`

	// RelaxedStaffing overrides the configured staffing mode
	RelaxedStaffing *bool `json:"relaxed_staffing"`

	Tables model.Tables `json:"tables"`
}

// CandidateEvaluation is one hypothetical solve with an extra doctor
type CandidateEvaluation struct {
	Candidate string  `json:"candidate"`
	Cost      float64 `json:"cost"`
	Status    string  `json:"status"`
	Resolved  bool    `json:"resolved"`
	Shortfall int     `json:"shortfall"`
	Objective *int64  `json:"objective,omitempty"`
}

// RosterResponse is the data of a successful POST /rosters
type RosterResponse struct {
	RunID        string                  `json:"run_id,omitempty"`
	WeekStart    string                  `json:"week_start"`
	State        capacity.State          `json:"state"`
	Status       string                  `json:"status"`
	Unresolved   bool                    `json:"unresolved"`
	ExtendedWith string                  `json:"extended_with,omitempty"`
	Schedule     []roster.ScheduleRecord `json:"schedule"`
	Doctors      []roster.StatsRecord    `json:"doctors"`
	Summary      roster.SummaryRecord    `json:"summary"`
	Evaluations  []CandidateEvaluation   `json:"evaluations,omitempty"`
}

// Health reports the service is up
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "ok", nil)
}

// requestConfig reads and validates a roster request and returns the
// configuration to solve it with
func (h *Handler) requestConfig(w http.ResponseWriter, r *http.Request) (*config.Config, model.Tables, bool) {
	var req RosterRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return nil, model.Tables{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return nil, model.Tables{}, false
	}

	cfg := *h.config
	cfg.WeekStart = req.WeekStart
	if req.RelaxedStaffing != nil {
		cfg.Rules.RelaxedStaffing = *req.RelaxedStaffing
	}

	weekStart, err := cfg.WeekStartDate()
	if err != nil {
		h.badRequest(w, r, err)
		return nil, model.Tables{}, false
	}
	if weekStart.Weekday() != time.Monday {
		h.errorResponse(w, r, http.StatusBadRequest, "week_start must be a Monday", nil)
		return nil, model.Tables{}, false
	}

	return &cfg, req.Tables, true
}

// SolveRoster computes, stores and returns the roster of one week
func (h *Handler) SolveRoster(w http.ResponseWriter, r *http.Request) {
	cfg, tables, ok := h.requestConfig(w, r)
	if !ok {
		return
	}

	result, err := services.SolveRoster(r.Context(), services.StaticSource(tables), h.store, nil, h.backend, cfg, h.logger)
	if err != nil {
		var cfgErr *model.ConfigError
		if errors.As(err, &cfgErr) {
			h.invalidInput(w, r, cfgErr)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "roster computed", newRosterResponse(result))
}

// CheckRoster validates a week and builds its model without solving
func (h *Handler) CheckRoster(w http.ResponseWriter, r *http.Request) {
	cfg, tables, ok := h.requestConfig(w, r)
	if !ok {
		return
	}

	result, err := services.CheckInputs(services.StaticSource(tables), cfg, h.logger)
	if err != nil {
		var cfgErr *model.ConfigError
		if errors.As(err, &cfgErr) {
			h.invalidInput(w, r, cfgErr)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "input is consistent", result)
}

// ListRuns returns stored runs, newest first. ?limit=N bounds the count.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.errorResponse(w, r, http.StatusBadRequest, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	runs, err := services.ListRuns(r.Context(), h.store, h.logger, limit)
	if err != nil {
		if errors.Is(err, services.ErrNoRunStore) {
			h.errorResponse(w, r, http.StatusNotFound, err.Error(), nil)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", runs)
}

// GetRun returns one stored run with its assignments
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	details, err := services.GetRun(r.Context(), h.store, h.logger, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrNoRunStore) || errors.Is(err, services.ErrRunNotFound) {
			h.errorResponse(w, r, http.StatusNotFound, err.Error(), nil)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", details)
}

func newRosterResponse(result *services.SolveRosterResult) RosterResponse {
	outcome := result.Outcome
	resp := RosterResponse{
		RunID:      result.RunID,
		WeekStart:  result.WeekStart.Format(config.DateFormat),
		State:      outcome.State,
		Status:     result.Result.Status.String(),
		Unresolved: outcome.Unresolved,
		Schedule:   result.Result.ScheduleRecords(),
		Doctors:    result.Result.StatsRecords(),
		Summary:    result.Result.SummaryRecord(),
	}
	if outcome.Hired != nil {
		resp.ExtendedWith = outcome.Hired.Doctor.ID
	}

	for _, e := range outcome.Evaluations {
		resp.Evaluations = append(resp.Evaluations, CandidateEvaluation{
			Candidate: e.Candidate.Doctor.ID,
			Cost:      e.Candidate.Cost,
			Status:    e.Result.Status.String(),
			Resolved:  e.Resolved(),
			Shortfall: e.Result.TotalShortfall(),
			Objective: e.Result.Summary.ObjectiveValue,
		})
	}

	return resp
}
