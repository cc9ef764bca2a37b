package rebalancing

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/menabung/rebalancer/internal/domain"
	"github.com/menabung/rebalancer/internal/modules/yields"
)

// GenerateYieldChangeNotification renders a one-line alert for a yield move.
func GenerateYieldChangeNotification(change yields.YieldChange) string {
	arrow, direction := "↓", "decreased"
	if change.Direction == yields.DirectionUp {
		arrow, direction = "↑", "increased"
	}
	return fmt.Sprintf("%s %s APY %s by %.0f%%! Now at %s (was %s).",
		arrow, change.Strategy.DisplayName(), direction,
		math.Abs(change.PercentageChange*100),
		yields.FormatAPY(change.CurrentAPY), yields.FormatAPY(change.PreviousAPY))
}

// GenerateRebalanceCTA picks the headline for an analysis. Urgency is high
// above 2 points of gain and medium above 1.
func GenerateRebalanceCTA(a RebalanceAnalysis) CTA {
	if !a.ShouldRebalance || len(a.Suggestions) == 0 {
		return CTA{
			Headline: "Portfolio Optimized",
			Subtext:  "Your current allocation is earning great yields.",
			Urgency:  UrgencyLow,
		}
	}

	top := a.Suggestions[0]
	gain := fmt.Sprintf("+%.2f%%", a.APYGain)

	switch {
	case a.APYGain > 2:
		return CTA{
			Headline: "Big Opportunity: " + gain + " APY",
			Subtext:  fmt.Sprintf("%s yields jumped! Move funds from %s to maximize returns.", top.ToStrategy.DisplayName(), top.FromStrategy.DisplayName()),
			Urgency:  UrgencyHigh,
		}
	case a.APYGain > 1:
		return CTA{
			Headline: "Optimize: " + gain + " APY",
			Subtext:  fmt.Sprintf("Yields changed. Rebalance to earn more with %s.", top.ToStrategy.DisplayName()),
			Urgency:  UrgencyMedium,
		}
	}
	return CTA{
		Headline: "Small Gain: " + gain + " APY",
		Subtext:  "Minor yield changes detected. Consider rebalancing when convenient.",
		Urgency:  UrgencyLow,
	}
}

// GenerateSuggestionExplanation builds the detail view for a suggestion.
func GenerateSuggestionExplanation(s RebalanceSuggestion, totalValue decimal.Decimal) SuggestionExplanation {
	fromName := s.FromStrategy.DisplayName()
	toName := s.ToStrategy.DisplayName()
	amount := FormatIDRX(s.Amount)
	pct := FormatPercentage(s.PercentageToMove, 1)

	annual := s.Amount.Mul(decimal.NewFromFloat(s.PotentialGain)).Div(hundred)
	impact := []string{
		fmt.Sprintf("Expected APY improvement: +%.2f%%", s.PotentialGain),
		"Annual gain: ~" + FormatIDRX(annual),
	}
	if totalValue.IsPositive() {
		share := s.Amount.Div(totalValue).Mul(hundred).InexactFloat64()
		impact = append(impact, fmt.Sprintf("Affects %s of your portfolio", FormatPercentage(share, 1)))
	}

	warnings := []string{}
	if s.RiskImpact == domain.RiskImpactHigher {
		warnings = append(warnings, fmt.Sprintf("This move increases portfolio risk (%s is more volatile)", toName))
	}
	if s.PercentageToMove > 15 {
		warnings = append(warnings, "Large rebalance - consider doing it in smaller steps")
	}
	if s.Confidence < 0.6 {
		warnings = append(warnings, "Moderate confidence - yields may change again soon")
	}

	return SuggestionExplanation{
		Title:       fmt.Sprintf("Move %s to %s", pct, toName),
		Description: fmt.Sprintf("Move %s (%s) from %s to %s. %s", amount, pct, fromName, toName, s.Reason),
		Impact:      impact,
		Warnings:    warnings,
	}
}

// FormatSuggestionForChat renders a plain-text summary for an assistant prompt.
func FormatSuggestionForChat(a RebalanceAnalysis) string {
	if !a.ShouldRebalance {
		return fmt.Sprintf("Your portfolio is well-balanced. Current APY: %s.", yields.FormatAPY(a.CurrentAPY))
	}

	var b strings.Builder
	b.WriteString("I noticed some yield changes that could benefit your portfolio!\n\n")
	fmt.Fprintf(&b, "Current APY: %s\n", yields.FormatAPY(a.CurrentAPY))
	fmt.Fprintf(&b, "Potential APY: %s (+%.2f%%)\n\n", yields.FormatAPY(a.PotentialAPY), a.APYGain)

	if len(a.Suggestions) > 0 {
		b.WriteString("Suggested moves:\n")
		for _, s := range a.Suggestions {
			fmt.Fprintf(&b, "• Move %s from %s to %s\n",
				FormatPercentage(s.PercentageToMove, 1), s.FromStrategy.DisplayName(), s.ToStrategy.DisplayName())
		}
		b.WriteString("\nWant me to help you rebalance?")
	}
	return b.String()
}

// GetRiskMessage warns when a move runs against the user's risk profile.
// ok is false when there is nothing to say.
func GetRiskMessage(impact domain.RiskImpact, profile domain.RiskProfile) (msg string, ok bool) {
	switch {
	case impact == domain.RiskImpactHigher && profile == domain.RiskConservative:
		return "Warning: This increases risk beyond your conservative profile.", true
	case impact == domain.RiskImpactLower && profile == domain.RiskAggressive:
		return "Note: This reduces risk - you could consider more aggressive options.", true
	}
	return "", false
}

// CalculateHistoricalGains sums gains over completed executions.
func CalculateHistoricalGains(histories []RebalanceHistory) HistoricalGains {
	if len(histories) == 0 {
		return HistoricalGains{}
	}

	var total float64
	completed := 0
	for _, h := range histories {
		if h.Execution.Status != StatusCompleted {
			continue
		}
		completed++
		total += h.ActualGain
	}

	g := HistoricalGains{
		TotalGain:   total,
		SuccessRate: float64(completed) / float64(len(histories)),
	}
	if completed > 0 {
		g.AvgGain = total / float64(completed)
	}
	return g
}

// GenerateHistorySummary renders a one-line history summary.
func GenerateHistorySummary(histories []RebalanceHistory) string {
	if len(histories) == 0 {
		return "You haven't done any rebalances yet."
	}
	g := CalculateHistoricalGains(histories)

	gain := fmt.Sprintf("%.2f%%", g.TotalGain)
	if g.TotalGain >= 0 {
		gain = "+" + gain
	}
	return fmt.Sprintf("%d rebalances • %.0f%% success • %s total APY gain", len(histories), g.SuccessRate*100, gain)
}
