package yields

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateImpermanentLoss(t *testing.T) {
	assert.Equal(t, 0.0, EstimateImpermanentLoss(0))
	assert.InDelta(t, 0.0572, EstimateImpermanentLoss(1.0), 1e-4)
	assert.InDelta(t, 0.0202, EstimateImpermanentLoss(0.5), 1e-4)
}

func TestCalculateNetAPYAfterIL(t *testing.T) {
	assert.InDelta(t, 10.0, CalculateNetAPYAfterIL(12, 0.02), 1e-9)
	assert.Equal(t, 0.0, CalculateNetAPYAfterIL(1, 0.05))
}

func TestStakingRewards(t *testing.T) {
	simple := CalculateSimpleRewards(1_000_000, 15, 365)
	assert.InDelta(t, 150_000, simple, 1e-6)

	compound := CalculateCompoundRewards(1_000_000, 15, 365, 365)
	assert.InDelta(t, 1_161_798, compound, 1)
	assert.Greater(t, compound-1_000_000, simple)

	assert.Equal(t, CalculateCompoundRewards(100, 10, 30, 365), CalculateCompoundRewards(100, 10, 30, 0))
}

func TestEstimateDoublingTime(t *testing.T) {
	assert.Equal(t, 1752.0, EstimateDoublingTime(15))
	assert.True(t, math.IsInf(EstimateDoublingTime(0), 1))
}

func TestPeriodYields(t *testing.T) {
	assert.InDelta(t, 200.0, CalculateDailyYield(730_000, 10), 1e-9)
	assert.InDelta(t, 6_083.333, CalculateMonthlyYield(730_000, 10), 1e-3)
}
