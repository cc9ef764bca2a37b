package domain

import (
	"fmt"
	"strings"
)

// RiskProfile is a named constraint set bounding exposure to volatile strategies.
type RiskProfile string

const (
	RiskConservative RiskProfile = "conservative"
	RiskBalanced     RiskProfile = "balanced"
	RiskAggressive   RiskProfile = "aggressive"
)

// ParseRiskProfile validates a raw profile name. Empty input yields balanced.
func ParseRiskProfile(s string) (RiskProfile, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RiskBalanced, nil
	}
	p := RiskProfile(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRiskProfile, s)
	}
	return p, nil
}

// Valid reports whether p is a known profile.
func (p RiskProfile) Valid() bool {
	switch p {
	case RiskConservative, RiskBalanced, RiskAggressive:
		return true
	}
	return false
}

// RiskImpact describes how a move changes portfolio risk.
type RiskImpact string

const (
	RiskImpactLower  RiskImpact = "lower"
	RiskImpactSame   RiskImpact = "same"
	RiskImpactHigher RiskImpact = "higher"
)

// CompareRisk derives the risk impact of moving funds from one strategy to another.
func CompareRisk(from, to StrategyKey) RiskImpact {
	fromRank, toRank := from.RiskRank(), to.RiskRank()
	switch {
	case toRank > fromRank:
		return RiskImpactHigher
	case toRank < fromRank:
		return RiskImpactLower
	default:
		return RiskImpactSame
	}
}
