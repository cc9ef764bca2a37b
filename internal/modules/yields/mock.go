package yields

import (
	"math"
	"time"

	"github.com/menabung/rebalancer/internal/domain"
)

const msPerHour = int64(time.Hour / time.Millisecond)

type mockModel struct {
	seed     func(hour float64) float64
	variance float64 // fraction of the baseline
	floor    float64
}

var mockModels = map[domain.StrategyKey]mockModel{
	domain.StrategyThetanuts: {seed: func(h float64) float64 { return math.Sin(h * 12.9898) }, variance: 0.25},
	domain.StrategyAerodrome: {seed: func(h float64) float64 { return math.Sin(h * 78.233) }, variance: 0.35, floor: 5},
	domain.StrategyStaking:   {seed: func(h float64) float64 { return math.Sin(h*43.0 + 17.0) }, variance: 0.10},
}

// HourBucket returns the number of whole hours since the unix epoch.
func HourBucket(t time.Time) int64 {
	ms := t.UnixMilli()
	if ms < 0 {
		return (ms - msPerHour + 1) / msPerHour
	}
	return ms / msPerHour
}

// MockAPY is the deterministic simulated APY for a strategy in a given hour.
// Values stay within baseline ± variance and are stable for the whole hour.
func MockAPY(strategy domain.StrategyKey, hourBucket int64) float64 {
	model, ok := mockModels[strategy]
	if !ok {
		return 0
	}
	raw := model.seed(float64(hourBucket)) * 43758.5453
	noise := raw - math.Floor(raw)

	base := BaselineAPYs[strategy]
	apy := base + (noise-0.5)*2*base*model.variance
	if apy < model.floor {
		apy = model.floor
	}
	return round2(apy)
}

// MockYieldData wraps MockAPY, or the fixed demo APY in demo mode, as a mock reading.
func MockYieldData(strategy domain.StrategyKey, mode Mode, now time.Time) YieldData {
	apy := MockAPY(strategy, HourBucket(now))
	if mode == ModeDemo {
		apy = DemoAPYs[strategy]
	}
	return YieldData{APY: apy, Timestamp: now.UnixMilli(), Source: SourceMock}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
