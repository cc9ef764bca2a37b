// Package domain holds the types shared by the yield and rebalancing modules:
// strategy keys, allocation legs, risk profiles and the storage capability.
package domain

// StrategyKey identifies one of the three yield strategies.
type StrategyKey string

const (
	StrategyThetanuts StrategyKey = "thetanuts" // options vault
	StrategyAerodrome StrategyKey = "aerodrome" // liquidity pool
	StrategyStaking   StrategyKey = "staking"
)

// AllocationLeg is the name a strategy carries inside a portfolio allocation.
type AllocationLeg string

const (
	LegOptions AllocationLeg = "options"
	LegLP      AllocationLeg = "lp"
	LegStaking AllocationLeg = "staking"
)

// Strategies lists every strategy in canonical order. Iteration order matters:
// ties in ranking and comparison are broken by this order.
var Strategies = []StrategyKey{StrategyThetanuts, StrategyAerodrome, StrategyStaking}

type strategyInfo struct {
	leg      AllocationLeg
	name     string
	riskRank int
}

// strategyTable is the single mapping between strategy keys and allocation legs.
var strategyTable = map[StrategyKey]strategyInfo{
	StrategyThetanuts: {
		leg:      LegOptions,
		name:     "Options Vault",
		riskRank: 3,
	},
	StrategyAerodrome: {
		leg:      LegLP,
		name:     "LP Position",
		riskRank: 2,
	},
	StrategyStaking: {
		leg:      LegStaking,
		name:     "Staking",
		riskRank: 1,
	},
}

var legTable = func() map[AllocationLeg]StrategyKey {
	m := make(map[AllocationLeg]StrategyKey, len(strategyTable))
	for key, info := range strategyTable {
		m[info.leg] = key
	}
	return m
}()

// Valid reports whether s is one of the known strategies.
func (s StrategyKey) Valid() bool {
	_, ok := strategyTable[s]
	return ok
}

// Leg returns the allocation leg that holds this strategy.
func (s StrategyKey) Leg() AllocationLeg {
	return strategyTable[s].leg
}

// DisplayName is the human-readable strategy name used in UI and chat text.
func (s StrategyKey) DisplayName() string {
	if info, ok := strategyTable[s]; ok {
		return info.name
	}
	return string(s)
}

// RiskRank orders strategies by volatility: staking(1) < aerodrome(2) < thetanuts(3).
func (s StrategyKey) RiskRank() int {
	return strategyTable[s].riskRank
}

// Strategy returns the strategy held by this allocation leg.
func (l AllocationLeg) Strategy() StrategyKey {
	return legTable[l]
}

// Valid reports whether l is one of the known legs.
func (l AllocationLeg) Valid() bool {
	_, ok := legTable[l]
	return ok
}
