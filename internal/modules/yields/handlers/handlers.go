// Package handlers provides HTTP handlers for yield data.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/menabung/rebalancer/internal/domain"
	"github.com/menabung/rebalancer/internal/modules/yields"
)

// minSuggestedGain is the weighted APY gain below which no optimal allocation is offered.
const minSuggestedGain = 0.5

// Handler handles yield HTTP requests
type Handler struct {
	aggregator *yields.Aggregator
	validate   *validator.Validate
	now        func() time.Time
	log        zerolog.Logger
}

// NewHandler creates a new yields handler
func NewHandler(aggregator *yields.Aggregator, log zerolog.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		validate:   validator.New(),
		now:        time.Now,
		log:        log.With().Str("handler", "yields").Logger(),
	}
}

// StrategyAPYs is an APY (or weight) per strategy key.
type StrategyAPYs struct {
	Thetanuts *float64 `json:"thetanuts" validate:"required,gte=0,lte=100"`
	Aerodrome *float64 `json:"aerodrome" validate:"required,gte=0,lte=100"`
	Staking   *float64 `json:"staking" validate:"required,gte=0,lte=100"`
}

func (a StrategyAPYs) byStrategy() map[domain.StrategyKey]float64 {
	return map[domain.StrategyKey]float64{
		domain.StrategyThetanuts: *a.Thetanuts,
		domain.StrategyAerodrome: *a.Aerodrome,
		domain.StrategyStaking:   *a.Staking,
	}
}

// Suggestion is an optimal allocation offered alongside the yields.
type Suggestion struct {
	OptimalAllocation domain.StrategyWeights `json:"optimalAllocation"`
	PotentialGain     float64                `json:"potentialGain"`
	RiskProfile       domain.RiskProfile     `json:"riskProfile"`
}

// YieldsResponse is the body of both yield endpoints.
type YieldsResponse struct {
	Success     bool                    `json:"success"`
	Yields      *yields.StrategyYields  `json:"yields,omitempty"`
	Timestamp   int64                   `json:"timestamp,omitempty"`
	Comparison  *yields.YieldComparison `json:"comparison,omitempty"`
	WeightedAPY *float64                `json:"weightedAPY,omitempty"`
	Suggestions *Suggestion             `json:"suggestions,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// HandleGetYields handles GET /api/yields
func (h *Handler) HandleGetYields(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	forceRefresh := q.Get("refresh") == "true"

	snap := h.aggregator.FetchOrMock(r.Context(), forceRefresh)
	resp := YieldsResponse{
		Success:   true,
		Yields:    &snap.Yields,
		Timestamp: snap.Timestamp,
	}

	if q.Get("compare") == "true" {
		var prev *yields.StrategyYields
		if p, ok := h.aggregator.Previous(); ok {
			prev = &p
		}
		cmp := yields.CompareYields(snap.Yields, prev, h.aggregator.Config().SignificantChangeThreshold, h.now())
		resp.Comparison = &cmp
	}

	if raw := q.Get("allocation"); raw != "" {
		h.applyAllocation(&resp, snap.Yields, raw, q.Get("riskProfile"))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// applyAllocation adds the weighted APY and, for a known risk profile, an
// optimal allocation when it beats the current one meaningfully. A malformed
// allocation is ignored.
func (h *Handler) applyAllocation(resp *YieldsResponse, y yields.StrategyYields, raw, profile string) {
	var weights StrategyAPYs
	if err := json.Unmarshal([]byte(raw), &weights); err != nil || weights.Thetanuts == nil || weights.Aerodrome == nil || weights.Staking == nil {
		h.log.Warn().Str("allocation", raw).Msg("Invalid allocation parameter")
		return
	}

	current := domain.StrategyWeights(weights.byStrategy()).Allocation()
	weighted := yields.CalculateWeightedAPY(y, current)
	resp.WeightedAPY = &weighted

	if profile == "" {
		return
	}
	rp, err := domain.ParseRiskProfile(profile)
	if err != nil {
		h.log.Warn().Str("riskProfile", profile).Msg("Invalid risk profile parameter")
		return
	}
	optimal := yields.FindOptimalAllocation(y, rp)
	gain := yields.CalculateRebalanceGain(y, current, optimal)
	if gain > minSuggestedGain {
		resp.Suggestions = &Suggestion{
			OptimalAllocation: optimal.ByStrategy(),
			PotentialGain:     gain,
			RiskProfile:       rp,
		}
	}
}

// HandleSetYields handles POST /api/yields. The snapshot is built from the
// body and returned without being cached.
func (h *Handler) HandleSetYields(w http.ResponseWriter, r *http.Request) {
	var req StrategyAPYs
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Tag() == "required" {
			h.writeError(w, http.StatusBadRequest, "Invalid yields. All values must be numbers.")
			return
		}
		h.writeError(w, http.StatusBadRequest, "APY values must be between 0 and 100")
		return
	}

	now := h.now()
	y := yields.YieldsFromAPYs(req.byStrategy(), yields.SourceMock, now)
	h.writeJSON(w, http.StatusOK, YieldsResponse{
		Success:   true,
		Yields:    &y,
		Timestamp: now.UnixMilli(),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, YieldsResponse{Success: false, Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
