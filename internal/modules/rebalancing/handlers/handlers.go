// Package handlers provides HTTP handlers for rebalancing operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/menabung/rebalancer/internal/domain"
	"github.com/menabung/rebalancer/internal/modules/rebalancing"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	service  *rebalancing.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(service *rebalancing.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		log:      log.With().Str("handler", "rebalancing").Logger(),
	}
}

// AllocationBody is the leg-keyed allocation sent by clients.
type AllocationBody struct {
	Options *float64 `json:"options" validate:"required"`
	LP      *float64 `json:"lp" validate:"required"`
	Staking *float64 `json:"staking" validate:"required"`
}

// AnalyzeRequestBody represents a request to analyze an allocation
type AnalyzeRequestBody struct {
	Allocation  *AllocationBody              `json:"allocation" validate:"required"`
	TotalValue  decimal.Decimal              `json:"totalValue"`
	RiskProfile string                       `json:"riskProfile"`
	Config      *rebalancing.ConfigOverrides `json:"config"`
}

// DismissRequest represents a request to dismiss a suggestion
type DismissRequest struct {
	ID string `json:"id" validate:"required"`
}

// ExplainRequest represents a request to explain a suggestion
type ExplainRequest struct {
	Suggestion rebalancing.RebalanceSuggestion `json:"suggestion"`
	TotalValue decimal.Decimal                 `json:"totalValue"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HandleAnalyze handles POST /api/rebalance
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequestBody
	if !h.decode(w, r, &body) {
		return
	}
	if err := h.validate.Struct(body); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && strings.Contains(verrs[0].Namespace(), ".Config.") {
			h.writeError(w, http.StatusBadRequest, "Invalid config: "+verrs[0].Field()+" failed "+verrs[0].Tag())
			return
		}
		h.writeError(w, http.StatusBadRequest, "Invalid allocation. Must include options, lp, and staking percentages.")
		return
	}

	var profile domain.RiskProfile
	if body.RiskProfile != "" {
		p, err := domain.ParseRiskProfile(body.RiskProfile)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		profile = p
	}

	result, err := h.service.Analyze(r.Context(), rebalancing.AnalyzeRequest{
		Allocation: domain.Allocation{
			Options: *body.Allocation.Options,
			LP:      *body.Allocation.LP,
			Staking: *body.Allocation.Staking,
		},
		TotalValue:  body.TotalValue,
		RiskProfile: profile,
		Overrides:   body.Config,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		rebalancing.AnalyzeResult
	}{true, result})
}

// HandleCheck handles GET /api/rebalance
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	threshold := 0.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			threshold = v
		}
	}

	result := h.service.CheckRebalance(r.Context(), threshold)
	h.writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		rebalancing.CheckResult
	}{true, result})
}

// HandleDismiss handles POST /api/rebalance/dismiss
func (h *Handler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	var req DismissRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Suggestion id is required")
		return
	}

	if err := h.service.Dismiss(r.Context(), req.ID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      req.ID,
	})
}

// HandleGetHistory handles GET /api/rebalance/history
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	view := h.service.History(r.Context())
	h.writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		rebalancing.HistoryView
	}{true, view})
}

// HandleRecordHistory handles POST /api/rebalance/history
func (h *Handler) HandleRecordHistory(w http.ResponseWriter, r *http.Request) {
	var entry rebalancing.RebalanceHistory
	if !h.decode(w, r, &entry) {
		return
	}
	if err := h.validate.Struct(entry); err != nil || !entry.Execution.Status.Valid() {
		h.writeError(w, http.StatusBadRequest, "Invalid execution status")
		return
	}

	if err := h.service.RecordHistory(r.Context(), entry); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true})
}

// HandleExplain handles POST /api/rebalance/explain
func (h *Handler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	var req ExplainRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !req.Suggestion.FromStrategy.Valid() || !req.Suggestion.ToStrategy.Valid() {
		h.writeError(w, http.StatusBadRequest, "Invalid suggestion strategies")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"explanation": h.service.Explain(req.Suggestion, req.TotalValue),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.log.Debug().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}
	return true
}

// writeServiceError maps domain errors to 400 and everything else to 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAllocation),
		errors.Is(err, domain.ErrInvalidRiskProfile),
		errors.Is(err, domain.ErrInvalidStrategy),
		errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Rebalance request failed")
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
