package yields

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/menabung/rebalancer/internal/domain"
)

func TestHourBucket(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, HourBucket(base), HourBucket(base.Add(59*time.Minute)))
	assert.Equal(t, HourBucket(base)+1, HourBucket(base.Add(time.Hour)))
	assert.Equal(t, int64(0), HourBucket(time.UnixMilli(0)))
	assert.Equal(t, int64(-1), HourBucket(time.UnixMilli(-1)))
}

func TestMockAPY_DeterministicAndBounded(t *testing.T) {
	bounds := map[domain.StrategyKey][2]float64{
		domain.StrategyThetanuts: {6, 10},
		domain.StrategyAerodrome: {7.8, 16.2},
		domain.StrategyStaking:   {13.5, 16.5},
	}

	start := HourBucket(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	for _, s := range domain.Strategies {
		t.Run(string(s), func(t *testing.T) {
			seen := map[float64]bool{}
			for h := start; h < start+500; h++ {
				apy := MockAPY(s, h)
				assert.Equal(t, apy, MockAPY(s, h), "same hour must give same value")
				assert.GreaterOrEqual(t, apy, bounds[s][0])
				assert.LessOrEqual(t, apy, bounds[s][1])
				seen[apy] = true
			}
			assert.Greater(t, len(seen), 10, "values should vary hour to hour")
		})
	}
}

func TestMockAPY_UnknownStrategy(t *testing.T) {
	assert.Equal(t, 0.0, MockAPY("unknown", 1))
}

func TestMockYieldData_Modes(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	demo := MockYieldData(domain.StrategyAerodrome, ModeDemo, now)
	assert.Equal(t, 22.0, demo.APY)
	assert.Equal(t, SourceMock, demo.Source)
	assert.Equal(t, now.UnixMilli(), demo.Timestamp)

	sim := MockYieldData(domain.StrategyAerodrome, ModeSimulated, now)
	assert.Equal(t, MockAPY(domain.StrategyAerodrome, HourBucket(now)), sim.APY)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Demo ")
	assert.NoError(t, err)
	assert.Equal(t, ModeDemo, m)

	_, err = ParseMode("production")
	assert.Error(t, err)
}
