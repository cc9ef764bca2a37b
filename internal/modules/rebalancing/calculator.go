package rebalancing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/menabung/rebalancer/internal/domain"
)

const (
	gasEstimateUSD = 0.5
	idrPerUSD      = 15_700
)

// GenerateSuggestionID returns an opaque id such as "rebal_<uuid>".
func GenerateSuggestionID() string {
	return "rebal_" + uuid.NewString()
}

// AllocationAmounts is an allocation with the smallest-unit amount of each leg.
type AllocationAmounts struct {
	domain.Allocation
	TotalValue    decimal.Decimal `json:"totalValue"`
	OptionsAmount decimal.Decimal `json:"optionsAmount"`
	LPAmount      decimal.Decimal `json:"lpAmount"`
	StakingAmount decimal.Decimal `json:"stakingAmount"`
}

// CalculateAllocationAmounts converts percentages to floored amounts.
func CalculateAllocationAmounts(alloc domain.Allocation, totalValue decimal.Decimal) AllocationAmounts {
	legAmount := func(pct float64) decimal.Decimal {
		return totalValue.Mul(decimal.NewFromFloat(pct)).Div(hundred).Floor()
	}
	return AllocationAmounts{
		Allocation:    alloc,
		TotalValue:    totalValue,
		OptionsAmount: legAmount(alloc.Options),
		LPAmount:      legAmount(alloc.LP),
		StakingAmount: legAmount(alloc.Staking),
	}
}

// CalculateNewAllocation applies a move, clamping each leg to [0, 100].
func CalculateNewAllocation(current domain.Allocation, from, to domain.StrategyKey, pct float64) domain.Allocation {
	next := current.With(from, math.Max(0, current.Get(from)-pct))
	return next.With(to, math.Min(100, current.Get(to)+pct))
}

// CalculateAnnualGain is the yearly gain in smallest units for an APY gain in points.
func CalculateAnnualGain(totalValue decimal.Decimal, apyGain float64) float64 {
	return totalValue.InexactFloat64() * apyGain / 100
}

func CalculateMonthlyGain(totalValue decimal.Decimal, apyGain float64) float64 {
	return CalculateAnnualGain(totalValue, apyGain) / 12
}

func CalculateDailyGain(totalValue decimal.Decimal, apyGain float64) float64 {
	return CalculateAnnualGain(totalValue, apyGain) / 365
}

// CalculateBreakEvenDays returns the days until gains cover gasCost, or +Inf
// when the daily gain is not positive.
func CalculateBreakEvenDays(dailyGain, gasCost float64) float64 {
	if dailyGain <= 0 {
		return math.Inf(1)
	}
	return math.Ceil(gasCost / dailyGain)
}

// ValidateAllocation reports whether the legs sum to 100 within tolerance.
func ValidateAllocation(alloc domain.Allocation) bool {
	return math.Abs(alloc.Sum()-100) < domain.AllocationTolerance
}

// NormalizeAllocation rescales to whole percentages summing to exactly 100.
// An all-zero allocation becomes the 40/40/20 default.
func NormalizeAllocation(alloc domain.Allocation) domain.Allocation {
	sum := alloc.Sum()
	if sum == 0 {
		return domain.Allocation{Options: 40, LP: 40, Staking: 20}
	}
	options := roundHalfUp(alloc.Options / sum * 100)
	lp := roundHalfUp(alloc.LP / sum * 100)
	return domain.Allocation{Options: options, LP: lp, Staking: 100 - options - lp}
}

// ProjectPortfolioValue compounds value daily at apy for days.
func ProjectPortfolioValue(value, apy, days float64) float64 {
	return value * math.Pow(1+apy/100/365, days)
}

// AllocationDiff is the per-leg change from one allocation to another.
type AllocationDiff struct {
	Options     float64 `json:"options"`
	LP          float64 `json:"lp"`
	Staking     float64 `json:"staking"`
	TotalChange float64 `json:"totalChange"`
}

// CompareAllocations diffs suggested against current.
func CompareAllocations(current, suggested domain.Allocation) AllocationDiff {
	d := AllocationDiff{
		Options: suggested.Options - current.Options,
		LP:      suggested.LP - current.LP,
		Staking: suggested.Staking - current.Staking,
	}
	d.TotalChange = math.Abs(d.Options) + math.Abs(d.LP) + math.Abs(d.Staking)
	return d
}

// CalculateMinimumMove is minPct of totalValue, floored.
func CalculateMinimumMove(totalValue decimal.Decimal, minPct float64) decimal.Decimal {
	return totalValue.Mul(decimal.NewFromFloat(minPct)).Div(hundred).Floor()
}

// EstimateGasCost is a flat, conservative gas estimate in smallest IDRX units.
func EstimateGasCost() decimal.Decimal {
	return decimal.NewFromFloat(gasEstimateUSD).Mul(decimal.NewFromInt(idrPerUSD)).Mul(hundred).Ceil()
}

// TimeSinceLastRebalance renders a coarse relative time.
func TimeSinceLastRebalance(last *time.Time, now time.Time) string {
	if last == nil || last.IsZero() {
		return "Never"
	}
	diff := now.Sub(*last)
	days := int(diff / (24 * time.Hour))
	hours := int(diff % (24 * time.Hour) / time.Hour)

	switch {
	case days > 0:
		return plural(days, "day") + " ago"
	case hours > 0:
		return plural(hours, "hour") + " ago"
	}
	return "Just now"
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatIDRX renders a smallest-unit amount as rupiah with Indonesian
// separators, e.g. 123456789 -> "Rp 1.234.567,89".
func FormatIDRX(amount decimal.Decimal) string {
	v := amount.Div(hundred).Round(2)
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Abs()
	}

	whole, frac, _ := strings.Cut(v.StringFixed(2), ".")
	frac = strings.TrimRight(frac, "0")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return "Rp " + sign + b.String()
}

// FormatPercentage renders value with the given number of decimals.
func FormatPercentage(value float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, value)
}

// FormatAPYChange renders the signed difference between two APYs.
func FormatAPYChange(currentAPY, newAPY float64) string {
	change := newAPY - currentAPY
	sign := ""
	if change >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, change)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
