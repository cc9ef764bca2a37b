// Package yields fetches, caches and compares APY data for the three
// strategies and provides the allocation math built on top of it.
package yields

import (
	"fmt"
	"strings"
	"time"

	"github.com/menabung/rebalancer/internal/domain"
)

// Source identifies where a yield reading came from.
type Source string

const (
	SourceAPI      Source = "api"
	SourceSubgraph Source = "subgraph"
	SourceContract Source = "contract"
	SourceMock     Source = "mock"
)

// Mode selects how strategy sources produce yields.
type Mode string

const (
	// ModeLive calls the remote endpoints and falls back to the seeded model on error.
	ModeLive Mode = "live"
	// ModeSimulated always uses the seeded hourly model.
	ModeSimulated Mode = "simulated"
	// ModeDemo returns fixed APYs that always leave a rebalance opportunity open.
	ModeDemo Mode = "demo"
)

// ParseMode validates a raw mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeLive, ModeSimulated, ModeDemo:
		return m, nil
	}
	return "", fmt.Errorf("unknown yield source mode %q", s)
}

const (
	// SignificantChangeThreshold is the default APY delta, in points, worth acting on.
	SignificantChangeThreshold = 2.0
	// DefaultCacheTTL is how long a snapshot is served before refetching.
	DefaultCacheTTL = 5 * time.Minute
	// RefreshInterval is how often the background job refreshes yields.
	RefreshInterval = 5 * time.Minute
)

// BaselineAPYs are the long-run APYs the simulated model oscillates around.
var BaselineAPYs = map[domain.StrategyKey]float64{
	domain.StrategyThetanuts: 8.0,
	domain.StrategyAerodrome: 12.0,
	domain.StrategyStaking:   15.0,
}

// DemoAPYs skew the LP yield upward so a move into aerodrome is always suggested.
var DemoAPYs = map[domain.StrategyKey]float64{
	domain.StrategyThetanuts: 7.5,
	domain.StrategyAerodrome: 22.0,
	domain.StrategyStaking:   14.0,
}

// YieldData is one APY reading. Timestamp is unix milliseconds.
type YieldData struct {
	APY       float64 `json:"apy" msgpack:"apy"`
	Timestamp int64   `json:"timestamp" msgpack:"timestamp"`
	Source    Source  `json:"source" msgpack:"source"`
}

// StrategyYields holds a reading for every strategy. It is never partial.
type StrategyYields struct {
	Thetanuts YieldData `json:"thetanuts" msgpack:"thetanuts"`
	Aerodrome YieldData `json:"aerodrome" msgpack:"aerodrome"`
	Staking   YieldData `json:"staking" msgpack:"staking"`
}

// Get returns the reading for a strategy.
func (y StrategyYields) Get(s domain.StrategyKey) YieldData {
	switch s {
	case domain.StrategyThetanuts:
		return y.Thetanuts
	case domain.StrategyAerodrome:
		return y.Aerodrome
	case domain.StrategyStaking:
		return y.Staking
	}
	return YieldData{}
}

// APY is shorthand for Get(s).APY.
func (y StrategyYields) APY(s domain.StrategyKey) float64 {
	return y.Get(s).APY
}

func (y *StrategyYields) set(s domain.StrategyKey, d YieldData) {
	switch s {
	case domain.StrategyThetanuts:
		y.Thetanuts = d
	case domain.StrategyAerodrome:
		y.Aerodrome = d
	case domain.StrategyStaking:
		y.Staking = d
	}
}

// YieldsFromAPYs builds a StrategyYields from bare APY values, all tagged with
// the same source and timestamp.
func YieldsFromAPYs(apys map[domain.StrategyKey]float64, source Source, at time.Time) StrategyYields {
	var y StrategyYields
	for _, s := range domain.Strategies {
		y.set(s, YieldData{APY: apys[s], Timestamp: at.UnixMilli(), Source: source})
	}
	return y
}

// YieldSnapshot is every strategy's yield at one point in time.
type YieldSnapshot struct {
	Yields    StrategyYields `json:"yields" msgpack:"yields"`
	Timestamp int64          `json:"timestamp" msgpack:"timestamp"`
	IsStale   bool           `json:"isStale" msgpack:"isStale"`
}

// Age reports how old the snapshot is relative to now.
func (s YieldSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(s.Timestamp))
}

// Direction of an APY move.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// YieldChange is the delta for one strategy between two snapshots.
type YieldChange struct {
	Strategy         domain.StrategyKey `json:"strategy"`
	PreviousAPY      float64            `json:"previousApy"`
	CurrentAPY       float64            `json:"currentApy"`
	AbsoluteChange   float64            `json:"absoluteChange"`
	PercentageChange float64            `json:"percentageChange"`
	Direction        Direction          `json:"direction"`
}

// YieldComparison is the result of comparing two snapshots.
type YieldComparison struct {
	Changes               []YieldChange `json:"changes"`
	HasSignificantChange  bool          `json:"hasSignificantChange"`
	MostSignificantChange *YieldChange  `json:"mostSignificantChange"`
	Timestamp             int64         `json:"timestamp"`
}
