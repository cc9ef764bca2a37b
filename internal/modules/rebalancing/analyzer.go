package rebalancing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/menabung/rebalancer/internal/domain"
	"github.com/menabung/rebalancer/internal/modules/yields"
)

const (
	// maxSuggestions caps how many moves a single analysis returns.
	maxSuggestions = 3
	// minLegShift is the smallest per-leg difference, in points, worth a move.
	minLegShift = 1.0
)

// Reason texts that callers may match on.
const (
	ReasonWellOptimized    = "Your current allocation is well-optimized. No rebalancing needed."
	ReasonNoBeneficialMove = "Yields have changed, but no beneficial rebalancing moves available."
	ReasonAllDismissed     = "All suggestions have been dismissed. Check back later for new opportunities."
	ReasonNoSignificant    = "No significant yield changes detected."
	ReasonNoComparison     = "No yield data available for comparison."
)

var hundred = decimal.NewFromInt(100)

// Analyzer turns an allocation and a yield set into rebalance suggestions.
// It is pure apart from the clock and the suggestion id generator.
type Analyzer struct {
	now   func() time.Time
	newID func() string
}

// NewAnalyzer creates an analyzer using the wall clock and random ids.
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now, newID: GenerateSuggestionID}
}

var defaultAnalyzer = NewAnalyzer()

// AnalyzeRebalance runs the default analyzer. The allocation is trusted as
// given; validate or normalize it before calling.
func AnalyzeRebalance(current domain.Allocation, y yields.StrategyYields, totalValue decimal.Decimal, cfg Config) RebalanceAnalysis {
	return defaultAnalyzer.Analyze(current, y, totalValue, cfg)
}

// Analyze compares the current allocation with the optimal one for
// cfg.RiskProfile and proposes up to three moves ordered by gain.
func (a *Analyzer) Analyze(current domain.Allocation, y yields.StrategyYields, totalValue decimal.Decimal, cfg Config) RebalanceAnalysis {
	now := a.now()

	currentAPY := yields.CalculateWeightedAPY(y, current)
	suggested := yields.FindOptimalAllocation(y, cfg.RiskProfile)
	potentialAPY := yields.CalculateWeightedAPY(y, suggested)
	apyGain := round2(potentialAPY - currentAPY)

	suggestions := a.generateSuggestions(current, suggested, y, totalValue, cfg, now)
	shouldRebalance := apyGain >= cfg.MinAPYGain && len(suggestions) > 0

	return RebalanceAnalysis{
		CurrentAllocation:   current,
		SuggestedAllocation: suggested,
		CurrentAPY:          currentAPY,
		PotentialAPY:        potentialAPY,
		APYGain:             apyGain,
		Suggestions:         suggestions,
		ShouldRebalance:     shouldRebalance,
		PrimaryReason:       primaryReason(suggestions, y, apyGain, shouldRebalance),
		Timestamp:           now.UnixMilli(),
	}
}

type legShift struct {
	strategy domain.StrategyKey
	diff     float64
}

func (a *Analyzer) generateSuggestions(current, suggested domain.Allocation, y yields.StrategyYields, totalValue decimal.Decimal, cfg Config, now time.Time) []RebalanceSuggestion {
	var decreasing, increasing []legShift
	for _, s := range domain.Strategies {
		diff := suggested.Get(s) - current.Get(s)
		switch {
		case diff <= -minLegShift:
			decreasing = append(decreasing, legShift{strategy: s, diff: -diff})
		case diff >= minLegShift:
			increasing = append(increasing, legShift{strategy: s, diff: diff})
		}
	}
	byDiff := func(shifts []legShift) {
		sort.SliceStable(shifts, func(i, j int) bool { return shifts[i].diff > shifts[j].diff })
	}
	byDiff(decreasing)
	byDiff(increasing)

	minAmount := decimal.NewFromInt(cfg.MinMoveAmount)
	suggestions := []RebalanceSuggestion{}

	for _, from := range decreasing {
		for _, to := range increasing {
			movePct := math.Min(math.Min(from.diff, to.diff), cfg.MaxMovePercentage)

			amount := totalValue.Mul(decimal.NewFromFloat(movePct)).Div(hundred).Floor()
			if amount.LessThan(minAmount) {
				continue
			}

			fromAPY := y.APY(from.strategy)
			toAPY := y.APY(to.strategy)
			apyDiff := toAPY - fromAPY
			if apyDiff <= 0 {
				continue
			}

			impact := domain.CompareRisk(from.strategy, to.strategy)
			suggestions = append(suggestions, RebalanceSuggestion{
				ID:               a.newID(),
				FromStrategy:     from.strategy,
				ToStrategy:       to.strategy,
				Amount:           amount,
				PercentageToMove: movePct,
				Reason:           suggestionReason(from.strategy, to.strategy, fromAPY, toAPY, movePct),
				PotentialGain:    round2(apyDiff * movePct / 100),
				RiskImpact:       impact,
				Confidence:       CalculateConfidence(apyDiff, movePct, impact),
				Timestamp:        now.UnixMilli(),
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].PotentialGain > suggestions[j].PotentialGain
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

// CalculateConfidence scores a move in [0, 1]. Wider APY gaps and smaller
// moves score higher; moving into a riskier strategy scores lower.
func CalculateConfidence(apyDiff, movePct float64, impact domain.RiskImpact) float64 {
	confidence := 0.5

	switch {
	case apyDiff > 5:
		confidence += 0.3
	case apyDiff > 3:
		confidence += 0.2
	case apyDiff > 1:
		confidence += 0.1
	}

	switch {
	case movePct <= 10:
		confidence += 0.15
	case movePct <= 15:
		confidence += 0.1
	case movePct <= 20:
		confidence += 0.05
	}

	switch impact {
	case domain.RiskImpactLower:
		confidence += 0.1
	case domain.RiskImpactHigher:
		confidence -= 0.1
	}

	return math.Min(1, math.Max(0, confidence))
}

func suggestionReason(from, to domain.StrategyKey, fromAPY, toAPY, pct float64) string {
	return fmt.Sprintf("Move %s%% from %s (%.1f%% APY) to %s (%.1f%% APY) for +%.1f%% yield",
		formatNumber(pct), from.DisplayName(), fromAPY, to.DisplayName(), toAPY, toAPY-fromAPY)
}

func primaryReason(suggestions []RebalanceSuggestion, y yields.StrategyYields, apyGain float64, shouldRebalance bool) string {
	if !shouldRebalance {
		return ReasonWellOptimized
	}
	if len(suggestions) == 0 {
		return ReasonNoBeneficialMove
	}
	top := suggestions[0]
	return fmt.Sprintf("%s yields are up to %.1f%%! Rebalancing could improve your APY by +%.2f%%.",
		top.ToStrategy.DisplayName(), y.APY(top.ToStrategy), apyGain)
}

// ShouldCheckRebalance decides whether a yield comparison is worth a fresh
// analysis. Significance is decided when cmp is built; threshold only names
// the caller's cutoff and does not re-filter the change.
func ShouldCheckRebalance(cmp yields.YieldComparison, threshold float64) RebalanceCheck {
	if !cmp.HasSignificantChange {
		return RebalanceCheck{Reason: ReasonNoSignificant}
	}
	change := cmp.MostSignificantChange
	if change == nil {
		return RebalanceCheck{Reason: ReasonNoComparison}
	}

	direction := "decreased"
	if change.Direction == yields.DirectionUp {
		direction = "increased"
	}
	return RebalanceCheck{
		ShouldCheck: true,
		Reason: fmt.Sprintf("%s APY %s by %.1f%% (now %.1f%%).",
			change.Strategy.DisplayName(), direction, math.Abs(change.AbsoluteChange), change.CurrentAPY),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatNumber prints a float without trailing zeros (5 not 5.00).
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
