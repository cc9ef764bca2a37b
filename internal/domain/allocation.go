package domain

import (
	"fmt"
	"math"
)

// AllocationTolerance is the float slack allowed when checking that legs sum to 100.
const AllocationTolerance = 0.01

// Allocation splits a portfolio across the three strategies, in percent.
// JSON uses the leg names (options/lp/staking).
type Allocation struct {
	Options float64 `json:"options" msgpack:"options"`
	LP      float64 `json:"lp" msgpack:"lp"`
	Staking float64 `json:"staking" msgpack:"staking"`
}

// StrategyWeights is the strategy-keyed view of an allocation
// (thetanuts/aerodrome/staking), used by the yields API.
type StrategyWeights map[StrategyKey]float64

// Get returns the percentage held by a strategy.
func (a Allocation) Get(s StrategyKey) float64 {
	switch s.Leg() {
	case LegOptions:
		return a.Options
	case LegLP:
		return a.LP
	case LegStaking:
		return a.Staking
	}
	return 0
}

// With returns a copy of a with the strategy's leg set to pct.
func (a Allocation) With(s StrategyKey, pct float64) Allocation {
	switch s.Leg() {
	case LegOptions:
		a.Options = pct
	case LegLP:
		a.LP = pct
	case LegStaking:
		a.Staking = pct
	}
	return a
}

// Sum adds the three legs.
func (a Allocation) Sum() float64 {
	return a.Options + a.LP + a.Staking
}

// ByStrategy converts to the strategy-keyed view.
func (a Allocation) ByStrategy() StrategyWeights {
	w := make(StrategyWeights, len(Strategies))
	for _, s := range Strategies {
		w[s] = a.Get(s)
	}
	return w
}

// Validate rejects negative or non-finite legs and sums away from 100.
func (a Allocation) Validate(tolerance float64) error {
	for _, s := range Strategies {
		v := a.Get(s)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s leg is %v", ErrInvalidAllocation, s.Leg(), v)
		}
	}
	if sum := a.Sum(); math.Abs(sum-100) > tolerance {
		return fmt.Errorf("%w: must sum to 100, got %v", ErrInvalidAllocation, sum)
	}
	return nil
}

// Allocation converts the strategy-keyed view back to legs. Missing keys are zero.
func (w StrategyWeights) Allocation() Allocation {
	var a Allocation
	for _, s := range Strategies {
		a = a.With(s, w[s])
	}
	return a
}
