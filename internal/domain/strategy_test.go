package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyLegMappingIsBidirectional(t *testing.T) {
	for _, s := range Strategies {
		t.Run(string(s), func(t *testing.T) {
			assert.True(t, s.Leg().Valid())
			assert.Equal(t, s, s.Leg().Strategy())
		})
	}

	assert.Equal(t, LegOptions, StrategyThetanuts.Leg())
	assert.Equal(t, LegLP, StrategyAerodrome.Leg())
	assert.Equal(t, LegStaking, StrategyStaking.Leg())
}

func TestDisplayNames(t *testing.T) {
	assert.Equal(t, "Options Vault", StrategyThetanuts.DisplayName())
	assert.Equal(t, "LP Position", StrategyAerodrome.DisplayName())
	assert.Equal(t, "Staking", StrategyStaking.DisplayName())
	assert.Equal(t, "unknown", StrategyKey("unknown").DisplayName())
}

func TestCompareRisk(t *testing.T) {
	assert.Equal(t, RiskImpactLower, CompareRisk(StrategyThetanuts, StrategyAerodrome))
	assert.Equal(t, RiskImpactLower, CompareRisk(StrategyAerodrome, StrategyStaking))
	assert.Equal(t, RiskImpactHigher, CompareRisk(StrategyStaking, StrategyThetanuts))
	assert.Equal(t, RiskImpactSame, CompareRisk(StrategyStaking, StrategyStaking))
}

func TestParseRiskProfile(t *testing.T) {
	p, err := ParseRiskProfile("")
	require.NoError(t, err)
	assert.Equal(t, RiskBalanced, p)

	p, err = ParseRiskProfile("AGGRESSIVE")
	require.NoError(t, err)
	assert.Equal(t, RiskAggressive, p)

	_, err = ParseRiskProfile("yolo")
	assert.ErrorIs(t, err, ErrInvalidRiskProfile)
}
