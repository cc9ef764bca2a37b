package rebalancing

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menabung/rebalancer/internal/domain"
	"github.com/menabung/rebalancer/internal/modules/yields"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestAnalyzer() *Analyzer {
	n := 0
	return &Analyzer{
		now: func() time.Time { return fixedNow },
		newID: func() string {
			n++
			return fmt.Sprintf("rebal_test_%d", n)
		},
	}
}

func demoYields() yields.StrategyYields {
	return yields.YieldsFromAPYs(yields.DemoAPYs, yields.SourceMock, fixedNow)
}

func yieldsOf(thetanuts, aerodrome, staking float64) yields.StrategyYields {
	return yields.YieldsFromAPYs(map[domain.StrategyKey]float64{
		domain.StrategyThetanuts: thetanuts,
		domain.StrategyAerodrome: aerodrome,
		domain.StrategyStaking:   staking,
	}, yields.SourceMock, fixedNow)
}

func TestAnalyze_DemoScenario(t *testing.T) {
	a := newTestAnalyzer()
	current := domain.Allocation{Options: 40, LP: 40, Staking: 20}

	analysis := a.Analyze(current, demoYields(), decimal.NewFromInt(1_000_000), DefaultConfig())

	assert.Equal(t, current, analysis.CurrentAllocation)
	assert.Equal(t, domain.Allocation{Options: 35, LP: 50, Staking: 15}, analysis.SuggestedAllocation)
	assert.InDelta(t, 14.6, analysis.CurrentAPY, 1e-9)
	assert.InDelta(t, 15.73, analysis.PotentialAPY, 1e-9)
	assert.InDelta(t, 1.13, analysis.APYGain, 1e-9)
	assert.True(t, analysis.ShouldRebalance)
	assert.Equal(t, fixedNow.UnixMilli(), analysis.Timestamp)

	require.Len(t, analysis.Suggestions, 2)
	top := analysis.Suggestions[0]
	assert.Equal(t, domain.StrategyThetanuts, top.FromStrategy)
	assert.Equal(t, domain.StrategyAerodrome, top.ToStrategy)
	assert.Equal(t, 5.0, top.PercentageToMove)
	assert.True(t, decimal.NewFromInt(50_000).Equal(top.Amount))
	assert.InDelta(t, 0.73, top.PotentialGain, 0.006)
	assert.Equal(t, domain.RiskImpactLower, top.RiskImpact)
	assert.Equal(t, 1.0, top.Confidence)
	assert.Equal(t, "Move 5% from Options Vault (7.5% APY) to LP Position (22.0% APY) for +14.5% yield", top.Reason)
	assert.False(t, top.Dismissed)

	second := analysis.Suggestions[1]
	assert.Equal(t, domain.StrategyStaking, second.FromStrategy)
	assert.Equal(t, domain.StrategyAerodrome, second.ToStrategy)
	assert.Equal(t, domain.RiskImpactHigher, second.RiskImpact)
	assert.InDelta(t, 0.85, second.Confidence, 1e-9)
	assert.NotEqual(t, top.ID, second.ID)

	assert.Equal(t, "LP Position yields are up to 22.0%! Rebalancing could improve your APY by +1.13%.", analysis.PrimaryReason)
}

func TestAnalyze_AlreadyOptimal(t *testing.T) {
	a := newTestAnalyzer()
	y := demoYields()
	current := yields.FindOptimalAllocation(y, domain.RiskBalanced)

	analysis := a.Analyze(current, y, decimal.NewFromInt(1_000_000), DefaultConfig())

	assert.Equal(t, 0.0, analysis.APYGain)
	assert.Empty(t, analysis.Suggestions)
	assert.NotNil(t, analysis.Suggestions)
	assert.False(t, analysis.ShouldRebalance)
	assert.Equal(t, ReasonWellOptimized, analysis.PrimaryReason)
}

func TestAnalyze_AmountBelowMinimum(t *testing.T) {
	a := newTestAnalyzer()

	analysis := a.Analyze(domain.Allocation{Options: 40, LP: 40, Staking: 20}, demoYields(), decimal.NewFromInt(50), DefaultConfig())

	assert.Greater(t, analysis.APYGain, 0.0)
	assert.Empty(t, analysis.Suggestions)
	assert.False(t, analysis.ShouldRebalance)
}

func TestAnalyze_NonPositiveTotalValue(t *testing.T) {
	a := newTestAnalyzer()

	for _, v := range []int64{0, -1_000_000} {
		analysis := a.Analyze(domain.Allocation{Options: 40, LP: 40, Staking: 20}, demoYields(), decimal.NewFromInt(v), DefaultConfig())
		assert.Empty(t, analysis.Suggestions)
		assert.False(t, analysis.ShouldRebalance)
	}
}

func TestAnalyze_MaxMovePercentageCapsMove(t *testing.T) {
	a := newTestAnalyzer()
	cfg := DefaultConfig()
	cfg.MaxMovePercentage = 10

	// Everything in staking; balanced optimum moves 50 points into LP.
	analysis := a.Analyze(domain.Allocation{Staking: 100}, demoYields(), decimal.NewFromInt(1_000_000), cfg)

	require.NotEmpty(t, analysis.Suggestions)
	for _, s := range analysis.Suggestions {
		assert.LessOrEqual(t, s.PercentageToMove, 10.0)
	}
}

func TestAnalyze_NeverSuggestsLosingMove(t *testing.T) {
	a := newTestAnalyzer()
	start := yields.HourBucket(fixedNow)
	allocations := []domain.Allocation{
		{Options: 40, LP: 40, Staking: 20},
		{Options: 10, LP: 10, Staking: 80},
		{Options: 70, LP: 0, Staking: 30},
		{Options: 0, LP: 100, Staking: 0},
	}
	profiles := []domain.RiskProfile{domain.RiskConservative, domain.RiskBalanced, domain.RiskAggressive}

	for h := start; h < start+48; h++ {
		y := yieldsOf(
			yields.MockAPY(domain.StrategyThetanuts, h),
			yields.MockAPY(domain.StrategyAerodrome, h),
			yields.MockAPY(domain.StrategyStaking, h),
		)
		for _, alloc := range allocations {
			for _, p := range profiles {
				cfg := DefaultConfig()
				cfg.RiskProfile = p
				analysis := a.Analyze(alloc, y, decimal.NewFromInt(10_000_000), cfg)

				assert.LessOrEqual(t, len(analysis.Suggestions), 3)
				for i, s := range analysis.Suggestions {
					assert.Greater(t, y.APY(s.ToStrategy), y.APY(s.FromStrategy))
					assert.GreaterOrEqual(t, s.Confidence, 0.0)
					assert.LessOrEqual(t, s.Confidence, 1.0)
					if i > 0 {
						assert.GreaterOrEqual(t, analysis.Suggestions[i-1].PotentialGain, s.PotentialGain)
					}
				}
				if analysis.ShouldRebalance {
					assert.GreaterOrEqual(t, analysis.APYGain, cfg.MinAPYGain)
					assert.NotEmpty(t, analysis.Suggestions)
				}
			}
		}
	}
}

func TestAnalyze_MinAPYGainGatesRebalance(t *testing.T) {
	a := newTestAnalyzer()
	cfg := DefaultConfig()
	cfg.MinAPYGain = 5

	analysis := a.Analyze(domain.Allocation{Options: 40, LP: 40, Staking: 20}, demoYields(), decimal.NewFromInt(1_000_000), cfg)

	assert.NotEmpty(t, analysis.Suggestions)
	assert.False(t, analysis.ShouldRebalance)
	assert.Equal(t, ReasonWellOptimized, analysis.PrimaryReason)
}

func TestAnalyzeRebalance_UsesRandomIDs(t *testing.T) {
	current := domain.Allocation{Options: 40, LP: 40, Staking: 20}
	first := AnalyzeRebalance(current, demoYields(), decimal.NewFromInt(1_000_000), DefaultConfig())
	second := AnalyzeRebalance(current, demoYields(), decimal.NewFromInt(1_000_000), DefaultConfig())

	require.NotEmpty(t, first.Suggestions)
	assert.Regexp(t, `^rebal_`, first.Suggestions[0].ID)
	assert.NotEqual(t, first.Suggestions[0].ID, second.Suggestions[0].ID)
}

func TestCalculateConfidence(t *testing.T) {
	tests := []struct {
		name    string
		apyDiff float64
		movePct float64
		impact  domain.RiskImpact
		want    float64
	}{
		{"base", 0.5, 25, domain.RiskImpactSame, 0.5},
		{"wide gap small move lower risk clamps", 6, 5, domain.RiskImpactLower, 1},
		{"medium gap", 4, 12, domain.RiskImpactSame, 0.8},
		{"small gap riskier", 2, 18, domain.RiskImpactHigher, 0.55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateConfidence(tt.apyDiff, tt.movePct, tt.impact), 1e-9)
		})
	}
}

func TestCalculateConfidence_MonotonicInGap(t *testing.T) {
	for _, impact := range []domain.RiskImpact{domain.RiskImpactLower, domain.RiskImpactSame, domain.RiskImpactHigher} {
		for _, move := range []float64{5, 12, 18, 25} {
			prev := CalculateConfidence(0, move, impact)
			for gap := 0.25; gap <= 10; gap += 0.25 {
				c := CalculateConfidence(gap, move, impact)
				assert.GreaterOrEqual(t, c, prev)
				prev = c
			}
		}
	}
}

func TestShouldCheckRebalance(t *testing.T) {
	prev := yieldsOf(8, 10, 15)

	t.Run("no change", func(t *testing.T) {
		cmp := yields.CompareYields(prev, &prev, 2, fixedNow)
		check := ShouldCheckRebalance(cmp, 2)
		assert.False(t, check.ShouldCheck)
		assert.Equal(t, ReasonNoSignificant, check.Reason)
	})

	t.Run("significant increase", func(t *testing.T) {
		cmp := yields.CompareYields(yieldsOf(8, 12.5, 15), &prev, 2, fixedNow)
		check := ShouldCheckRebalance(cmp, 2)
		assert.True(t, check.ShouldCheck)
		assert.Equal(t, "LP Position APY increased by 2.5% (now 12.5%).", check.Reason)
	})

	t.Run("significant decrease", func(t *testing.T) {
		cmp := yields.CompareYields(yieldsOf(8, 10, 12), &prev, 2, fixedNow)
		check := ShouldCheckRebalance(cmp, 2)
		assert.True(t, check.ShouldCheck)
		assert.Equal(t, "Staking APY decreased by 3.0% (now 12.0%).", check.Reason)
	})

	t.Run("trusts the comparison's significance", func(t *testing.T) {
		cmp := yields.CompareYields(yieldsOf(8, 12.5, 15), &prev, 2, fixedNow)
		check := ShouldCheckRebalance(cmp, 3)
		assert.True(t, check.ShouldCheck)
		assert.Equal(t, "LP Position APY increased by 2.5% (now 12.5%).", check.Reason)
	})

	t.Run("flag without change", func(t *testing.T) {
		check := ShouldCheckRebalance(yields.YieldComparison{HasSignificantChange: true}, 2)
		assert.False(t, check.ShouldCheck)
		assert.Equal(t, ReasonNoComparison, check.Reason)
	})
}
