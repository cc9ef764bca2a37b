package testing

import (
	"context"
	"time"

	"github.com/menabung/rebalancer/internal/domain"
	"github.com/menabung/rebalancer/internal/modules/yields"
)

// FixedNow is the reference instant used by fixtures.
var FixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// NewYieldSnapshot builds a snapshot from APYs in thetanuts, aerodrome,
// staking order.
func NewYieldSnapshot(at time.Time, source yields.Source, thetanuts, aerodrome, staking float64) yields.YieldSnapshot {
	return yields.YieldSnapshot{
		Yields: yields.YieldsFromAPYs(map[domain.StrategyKey]float64{
			domain.StrategyThetanuts: thetanuts,
			domain.StrategyAerodrome: aerodrome,
			domain.StrategyStaking:   staking,
		}, source, at),
		Timestamp: at.UnixMilli(),
	}
}

// DemoSnapshot is the demo-mode snapshot at FixedNow.
func DemoSnapshot() yields.YieldSnapshot {
	return NewYieldSnapshot(FixedNow, yields.SourceMock, 7.5, 22, 14)
}

// BaselineSnapshot is the baseline snapshot at FixedNow.
func BaselineSnapshot() yields.YieldSnapshot {
	return NewYieldSnapshot(FixedNow, yields.SourceMock, 8, 12, 15)
}

// StaticAdapter is a yields.Adapter that always returns the same reading.
type StaticAdapter struct {
	Key  domain.StrategyKey
	Data yields.YieldData
}

// StaticAdapters returns one StaticAdapter per strategy for a snapshot.
func StaticAdapters(snap yields.YieldSnapshot) []yields.Adapter {
	adapters := make([]yields.Adapter, 0, len(domain.Strategies))
	for _, s := range domain.Strategies {
		adapters = append(adapters, &StaticAdapter{Key: s, Data: snap.Yields.Get(s)})
	}
	return adapters
}

func (a *StaticAdapter) Strategy() domain.StrategyKey {
	return a.Key
}

func (a *StaticAdapter) Fetch(ctx context.Context) yields.YieldData {
	return a.Data
}

func (a *StaticAdapter) Mock() yields.YieldData {
	return a.Data
}
