package yields

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/menabung/rebalancer/internal/domain"
)

// stableBand is the APY delta below which a strategy is reported as stable.
const stableBand = 0.01

// CompareYields diffs two yield sets. A nil previous yields an empty comparison.
func CompareYields(current StrategyYields, previous *StrategyYields, threshold float64, now time.Time) YieldComparison {
	cmp := YieldComparison{Changes: []YieldChange{}, Timestamp: now.UnixMilli()}
	if previous == nil {
		return cmp
	}

	for _, s := range domain.Strategies {
		prev := previous.APY(s)
		curr := current.APY(s)
		abs := curr - prev

		pct := 0.0
		if prev != 0 {
			pct = abs / prev
		}

		dir := DirectionStable
		switch {
		case abs > stableBand:
			dir = DirectionUp
		case abs < -stableBand:
			dir = DirectionDown
		}

		cmp.Changes = append(cmp.Changes, YieldChange{
			Strategy:         s,
			PreviousAPY:      prev,
			CurrentAPY:       curr,
			AbsoluteChange:   abs,
			PercentageChange: pct,
			Direction:        dir,
		})
	}

	for i := range cmp.Changes {
		c := &cmp.Changes[i]
		if math.Abs(c.AbsoluteChange) < threshold {
			continue
		}
		cmp.HasSignificantChange = true
		// Strictly greater keeps the first of equal deltas.
		if cmp.MostSignificantChange == nil || math.Abs(c.AbsoluteChange) > math.Abs(cmp.MostSignificantChange.AbsoluteChange) {
			change := *c
			cmp.MostSignificantChange = &change
		}
	}

	return cmp
}

// CalculateWeightedAPY is the allocation-weighted mean APY rounded to 2
// decimals. A zero total allocation returns 0.
func CalculateWeightedAPY(yields StrategyYields, alloc domain.Allocation) float64 {
	apys := make([]float64, 0, len(domain.Strategies))
	weights := make([]float64, 0, len(domain.Strategies))
	for _, s := range domain.Strategies {
		apys = append(apys, yields.APY(s))
		weights = append(weights, alloc.Get(s))
	}

	if alloc.Sum() == 0 {
		return 0
	}
	return round2(stat.Mean(apys, weights))
}

// RiskConstraints bound the optimal allocation for a risk profile, in percent.
type RiskConstraints struct {
	MaxOptions float64 `json:"maxOptions"`
	MaxLP      float64 `json:"maxLP"`
	MinStaking float64 `json:"minStaking"`
}

var riskConstraints = map[domain.RiskProfile]RiskConstraints{
	domain.RiskConservative: {MaxOptions: 30, MaxLP: 40, MinStaking: 30},
	domain.RiskBalanced:     {MaxOptions: 50, MaxLP: 50, MinStaking: 15},
	domain.RiskAggressive:   {MaxOptions: 70, MaxLP: 60, MinStaking: 5},
}

// ConstraintsFor returns the bounds for a profile. Unknown profiles get balanced.
func ConstraintsFor(profile domain.RiskProfile) RiskConstraints {
	if c, ok := riskConstraints[profile]; ok {
		return c
	}
	return riskConstraints[domain.RiskBalanced]
}

func (c RiskConstraints) maxFor(s domain.StrategyKey) float64 {
	switch s {
	case domain.StrategyThetanuts:
		return c.MaxOptions
	case domain.StrategyAerodrome:
		return c.MaxLP
	}
	return 100
}

// FindOptimalAllocation greedily fills the highest-APY volatile strategies up
// to their caps after reserving the profile's staking minimum. Any remainder
// goes to staking.
//
// The greedy fill is not a true constrained optimum; ties keep the canonical
// strategy order.
func FindOptimalAllocation(yields StrategyYields, profile domain.RiskProfile) domain.Allocation {
	c := ConstraintsFor(profile)

	alloc := domain.Allocation{Staking: c.MinStaking}
	remaining := 100 - c.MinStaking

	ranked := append([]domain.StrategyKey(nil), domain.Strategies...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return yields.APY(ranked[i]) > yields.APY(ranked[j])
	})

	for _, s := range ranked {
		if s == domain.StrategyStaking {
			continue
		}
		take := math.Min(remaining, c.maxFor(s))
		alloc = alloc.With(s, take)
		remaining -= take
		if remaining <= 0 {
			break
		}
	}

	if remaining > 0 {
		alloc.Staking += remaining
	}
	return alloc
}

// CalculateRebalanceGain is the weighted APY difference between two allocations.
func CalculateRebalanceGain(yields StrategyYields, current, suggested domain.Allocation) float64 {
	return round2(CalculateWeightedAPY(yields, suggested) - CalculateWeightedAPY(yields, current))
}

// FormatAPY renders an APY with two decimals.
func FormatAPY(apy float64) string {
	return fmt.Sprintf("%.2f%%", apy)
}

// FormatYieldChange renders a change as "📈 +2.50% (12.50%)".
func FormatYieldChange(c YieldChange) string {
	sign, icon := "", "➖"
	switch c.Direction {
	case DirectionUp:
		sign, icon = "+", "📈"
	case DirectionDown:
		icon = "📉"
	}
	return fmt.Sprintf("%s %s%.2f%% (%s)", icon, sign, c.AbsoluteChange, FormatAPY(c.CurrentAPY))
}
