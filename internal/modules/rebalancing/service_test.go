package rebalancing

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menabung/rebalancer/internal/domain"
	"github.com/menabung/rebalancer/internal/modules/yields"
)

func newTestService(t *testing.T, store domain.KeyValueStore) *Service {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	agg, err := yields.NewAggregator(yields.DefaultAggregatorConfig(), yields.Remotes{}, yields.NewMemoryCache(), nil, log)
	require.NoError(t, err)

	svc := NewService(agg, NewLifecycle(store, nil, log), DefaultConfig(), 0, nil, log)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func demoRequest() AnalyzeRequest {
	return AnalyzeRequest{
		Allocation: domain.Allocation{Options: 40, LP: 40, Staking: 20},
		TotalValue: decimal.NewFromInt(1_000_000),
	}
}

func TestAnalyzeRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *AnalyzeRequest)
		wantErr error
	}{
		{"valid", func(r *AnalyzeRequest) {}, nil},
		{"sum within one point", func(r *AnalyzeRequest) { r.Allocation.Staking = 20.9 }, nil},
		{"sum off", func(r *AnalyzeRequest) { r.Allocation.Staking = 25 }, domain.ErrInvalidAllocation},
		{"negative leg", func(r *AnalyzeRequest) { r.Allocation = domain.Allocation{Options: -10, LP: 90, Staking: 20} }, domain.ErrInvalidAllocation},
		{"zero total", func(r *AnalyzeRequest) { r.TotalValue = decimal.Zero }, domain.ErrInvalidAllocation},
		{"unknown profile", func(r *AnalyzeRequest) { r.RiskProfile = "yolo" }, domain.ErrInvalidRiskProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := demoRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestService_Analyze(t *testing.T) {
	svc := newTestService(t, newMemStore())

	res, err := svc.Analyze(context.Background(), demoRequest())
	require.NoError(t, err)

	assert.True(t, res.Analysis.ShouldRebalance)
	require.NotEmpty(t, res.Analysis.Suggestions)
	assert.Equal(t, domain.StrategyAerodrome, res.Analysis.Suggestions[0].ToStrategy)
	assert.Equal(t, UrgencyMedium, res.CTA.Urgency)
	assert.Contains(t, res.ChatMessage, "Suggested moves:")
}

func TestService_Analyze_RiskProfileAndOverrides(t *testing.T) {
	svc := newTestService(t, newMemStore())
	req := demoRequest()
	req.RiskProfile = domain.RiskConservative

	res, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.Allocation{Options: 30, LP: 40, Staking: 30}, res.Analysis.SuggestedAllocation)

	minGain := 10.0
	req.Overrides = &ConfigOverrides{MinAPYGain: &minGain}
	res, err = svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Analysis.ShouldRebalance)
}

func TestService_Analyze_AllDismissed(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	first, err := svc.Analyze(ctx, demoRequest())
	require.NoError(t, err)
	for _, s := range first.Analysis.Suggestions {
		require.NoError(t, svc.Dismiss(ctx, s.ID))
	}

	// Ids are per-run, so dismiss what the next run will produce.
	svc.analyzer.newID = func() string { return "rebal_fixed" }
	require.NoError(t, svc.Dismiss(ctx, "rebal_fixed"))

	res, err := svc.Analyze(ctx, demoRequest())
	require.NoError(t, err)
	assert.Empty(t, res.Analysis.Suggestions)
	assert.False(t, res.Analysis.ShouldRebalance)
	assert.Equal(t, ReasonAllDismissed, res.Analysis.PrimaryReason)
	assert.Equal(t, "Portfolio Optimized", res.CTA.Headline)
}

func TestService_Analyze_InvalidRequest(t *testing.T) {
	svc := newTestService(t, newMemStore())
	req := demoRequest()
	req.Allocation.Options = 90

	_, err := svc.Analyze(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidAllocation)
}

func TestService_CheckRebalance(t *testing.T) {
	svc := newTestService(t, newMemStore())
	ctx := context.Background()

	first := svc.CheckRebalance(ctx, 2)
	assert.False(t, first.ShouldCheck)
	assert.Equal(t, ReasonNoSignificant, first.Reason)

	// A forced refresh moves the cached demo snapshot into previous.
	res := svc.CheckRebalance(ctx, 2)
	assert.False(t, res.ShouldCheck)
	assert.Equal(t, ReasonNoSignificant, res.Reason)

	svc.aggregator.Clear()
	svc.aggregator.SetPrevious(yields.YieldsFromAPYs(yields.BaselineAPYs, yields.SourceMock, fixedNow))
	res = svc.CheckRebalance(ctx, 2)
	assert.True(t, res.ShouldCheck)
	require.NotNil(t, res.Comparison.MostSignificantChange)
	assert.Equal(t, domain.StrategyAerodrome, res.Comparison.MostSignificantChange.Strategy)
	assert.Equal(t, "LP Position APY increased by 10.0% (now 22.0%).", res.Reason)
	assert.Contains(t, res.Notification, "↑ LP Position APY increased by 83%!")
	assert.Equal(t, 22.0, res.CurrentYields.Aerodrome.APY)
}

func TestService_History(t *testing.T) {
	svc := newTestService(t, newMemStore())
	ctx := context.Background()

	empty := svc.History(ctx)
	assert.Empty(t, empty.Entries)
	assert.Equal(t, "Never", empty.LastRebalance)

	entry := historyWith(StatusCompleted, 0.73)
	entry.Execution.StartedAt = fixedNow.Add(-2 * time.Hour).UnixMilli()
	require.NoError(t, svc.RecordHistory(ctx, entry))

	view := svc.History(ctx)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "1 rebalances • 100% success • +0.73% total APY gain", view.Summary)
	assert.Equal(t, "2 hours ago", view.LastRebalance)
	assert.InDelta(t, 0.73, view.Gains.TotalGain, 1e-9)

	assert.Error(t, svc.RecordHistory(ctx, historyWith("bogus", 1)))
}

func TestService_DismissRejectsEmptyID(t *testing.T) {
	svc := newTestService(t, newMemStore())
	assert.ErrorIs(t, svc.Dismiss(context.Background(), ""), domain.ErrNotFound)
}

func TestService_ShouldNotify(t *testing.T) {
	svc := newTestService(t, newMemStore())
	ready := RebalanceAnalysis{ShouldRebalance: true, APYGain: 1}
	recent := fixedNow.Add(-time.Hour)

	assert.True(t, svc.ShouldNotify(ready, nil))
	assert.False(t, svc.ShouldNotify(ready, &recent))
}
