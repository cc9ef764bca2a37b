package yields

import "math"

// EstimateImpermanentLoss returns the constant-product IL fraction for a
// relative price move (0.1 = +10%).
func EstimateImpermanentLoss(priceChange float64) float64 {
	ratio := 1 + priceChange
	return math.Abs(2*math.Sqrt(ratio)/(1+ratio) - 1)
}

// CalculateNetAPYAfterIL subtracts the IL impact from a pool APY, floored at 0.
func CalculateNetAPYAfterIL(baseAPY, il float64) float64 {
	return math.Max(0, baseAPY-il*100)
}

// CalculateCompoundRewards returns principal plus rewards after compounding
// compoundFrequency times per year for the given number of days.
func CalculateCompoundRewards(principal, apy, days, compoundFrequency float64) float64 {
	if compoundFrequency <= 0 {
		compoundFrequency = 365
	}
	rate := apy / 100
	periods := compoundFrequency / 365 * days
	return principal * math.Pow(1+rate/compoundFrequency, periods)
}

// CalculateSimpleRewards returns rewards only, without compounding.
func CalculateSimpleRewards(principal, apy, days float64) float64 {
	return principal * apy / 100 / 365 * days
}

// EstimateDoublingTime uses the rule of 72 and returns whole days.
func EstimateDoublingTime(apy float64) float64 {
	if apy <= 0 {
		return math.Inf(1)
	}
	return math.Round(72 / apy * 365)
}

// CalculateDailyYield is principal times the daily rate.
func CalculateDailyYield(principal, apy float64) float64 {
	return principal * apy / 100 / 365
}

// CalculateMonthlyYield is principal times the monthly rate.
func CalculateMonthlyYield(principal, apy float64) float64 {
	return principal * apy / 100 / 12
}
