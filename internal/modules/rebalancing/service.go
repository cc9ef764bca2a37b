// Package rebalancing analyzes allocations against current yields and manages
// the suggestion lifecycle: dismissal, execution history and notifications.
package rebalancing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/menabung/rebalancer/internal/domain"
	"github.com/menabung/rebalancer/internal/metrics"
	"github.com/menabung/rebalancer/internal/modules/yields"
)

// requestSumTolerance is how far from 100 a submitted allocation may be.
const requestSumTolerance = 1.0

// Service orchestrates yield fetching, analysis and the suggestion lifecycle.
type Service struct {
	aggregator     *yields.Aggregator
	analyzer       *Analyzer
	lifecycle      *Lifecycle
	config         Config
	notifyCooldown time.Duration
	now            func() time.Time
	metrics        *metrics.Recorder
	log            zerolog.Logger
}

// NewService creates a rebalancing service.
func NewService(
	aggregator *yields.Aggregator,
	lifecycle *Lifecycle,
	cfg Config,
	notifyCooldown time.Duration,
	m *metrics.Recorder,
	log zerolog.Logger,
) *Service {
	if notifyCooldown <= 0 {
		notifyCooldown = DefaultNotifyCooldown
	}
	return &Service{
		aggregator:     aggregator,
		analyzer:       NewAnalyzer(),
		lifecycle:      lifecycle,
		config:         cfg,
		notifyCooldown: notifyCooldown,
		now:            time.Now,
		metrics:        m,
		log:            log.With().Str("service", "rebalancing").Logger(),
	}
}

// AnalyzeRequest is one analysis call from the outer layer.
type AnalyzeRequest struct {
	Allocation  domain.Allocation
	TotalValue  decimal.Decimal
	RiskProfile domain.RiskProfile
	Overrides   *ConfigOverrides
}

// AnalyzeResult bundles the analysis with its UI and chat renderings.
type AnalyzeResult struct {
	Analysis    RebalanceAnalysis `json:"analysis"`
	CTA         CTA               `json:"cta"`
	ChatMessage string            `json:"chatMessage"`
}

// Validate checks the boundary rules for an analysis request.
func (r AnalyzeRequest) Validate() error {
	for _, s := range domain.Strategies {
		v := r.Allocation.Get(s)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidAllocation, s.Leg())
		}
	}
	if sum := r.Allocation.Sum(); math.Abs(sum-100) > requestSumTolerance {
		return fmt.Errorf("%w: allocation must sum to 100, current sum: %s", domain.ErrInvalidAllocation, formatNumber(sum))
	}
	if !r.TotalValue.IsPositive() {
		return fmt.Errorf("%w: totalValue must be a positive number", domain.ErrInvalidAllocation)
	}
	if r.RiskProfile != "" && !r.RiskProfile.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidRiskProfile, r.RiskProfile)
	}
	return nil
}

// Analyze fetches yields (falling back to mock data), runs the analyzer and
// hides suggestions the user already dismissed.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	if err := req.Validate(); err != nil {
		return AnalyzeResult{}, err
	}

	cfg := s.config
	if req.RiskProfile != "" {
		cfg.RiskProfile = req.RiskProfile
	}
	cfg = req.Overrides.Apply(cfg)
	if !cfg.RiskProfile.Valid() {
		return AnalyzeResult{}, fmt.Errorf("%w: %q", domain.ErrInvalidRiskProfile, cfg.RiskProfile)
	}

	snap := s.aggregator.FetchOrMock(ctx, false)
	analysis := s.analyzer.Analyze(req.Allocation, snap.Yields, req.TotalValue, cfg)

	analysis.Suggestions = s.lifecycle.FilterDismissed(ctx, analysis.Suggestions)
	if len(analysis.Suggestions) == 0 && analysis.ShouldRebalance {
		analysis.ShouldRebalance = false
		analysis.PrimaryReason = ReasonAllDismissed
	}

	s.metrics.RecordAnalysis(analysis.ShouldRebalance)
	s.log.Debug().
		Float64("current_apy", analysis.CurrentAPY).
		Float64("apy_gain", analysis.APYGain).
		Int("suggestions", len(analysis.Suggestions)).
		Bool("should_rebalance", analysis.ShouldRebalance).
		Msg("Rebalance analyzed")

	return AnalyzeResult{
		Analysis:    analysis,
		CTA:         GenerateRebalanceCTA(analysis),
		ChatMessage: FormatSuggestionForChat(analysis),
	}, nil
}

// CheckResult is the outcome of a forced refresh and comparison.
type CheckResult struct {
	RebalanceCheck
	Comparison    yields.YieldComparison `json:"comparison"`
	CurrentYields yields.StrategyYields  `json:"currentYields"`
	Notification  string                 `json:"notification,omitempty"`
}

// CheckRebalance force-refreshes yields and compares them against the
// snapshot they displaced.
func (s *Service) CheckRebalance(ctx context.Context, threshold float64) CheckResult {
	if threshold <= 0 {
		threshold = s.aggregator.Config().SignificantChangeThreshold
	}

	snap := s.aggregator.FetchOrMock(ctx, true)
	var prev *yields.StrategyYields
	if p, ok := s.aggregator.Previous(); ok {
		prev = &p
	}

	cmp := yields.CompareYields(snap.Yields, prev, threshold, s.now())
	result := CheckResult{
		RebalanceCheck: ShouldCheckRebalance(cmp, threshold),
		Comparison:     cmp,
		CurrentYields:  snap.Yields,
	}
	if result.ShouldCheck && cmp.MostSignificantChange != nil {
		result.Notification = GenerateYieldChangeNotification(*cmp.MostSignificantChange)
	}
	return result
}

// Dismiss hides a suggestion id from future analyses.
func (s *Service) Dismiss(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty suggestion id", domain.ErrNotFound)
	}
	return s.lifecycle.Dismiss(ctx, id)
}

// HistoryView is the rendered rebalance history.
type HistoryView struct {
	Entries       []RebalanceHistory `json:"entries"`
	Summary       string             `json:"summary"`
	Gains         HistoricalGains    `json:"gains"`
	LastRebalance string             `json:"lastRebalance"`
}

// History returns saved rebalances with their summary.
func (s *Service) History(ctx context.Context) HistoryView {
	entries := s.lifecycle.History(ctx)
	return HistoryView{
		Entries:       entries,
		Summary:       GenerateHistorySummary(entries),
		Gains:         CalculateHistoricalGains(entries),
		LastRebalance: TimeSinceLastRebalance(s.lifecycle.LastExecutedAt(ctx), s.now()),
	}
}

// RecordHistory stores an executed rebalance.
func (s *Service) RecordHistory(ctx context.Context, entry RebalanceHistory) error {
	if !entry.Execution.Status.Valid() {
		return fmt.Errorf("unknown execution status %q", entry.Execution.Status)
	}
	if entry.Execution.StartedAt == 0 {
		entry.Execution.StartedAt = s.now().UnixMilli()
	}
	return s.lifecycle.SaveHistory(ctx, entry)
}

// Explain renders the detail view for a suggestion.
func (s *Service) Explain(suggestion RebalanceSuggestion, totalValue decimal.Decimal) SuggestionExplanation {
	return GenerateSuggestionExplanation(suggestion, totalValue)
}

// ShouldNotify applies the configured cooldown to an analysis.
func (s *Service) ShouldNotify(a RebalanceAnalysis, last *time.Time) bool {
	return ShouldNotifyUser(a, last, s.notifyCooldown, s.now())
}
