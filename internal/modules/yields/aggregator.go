package yields

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/menabung/rebalancer/internal/domain"
	"github.com/menabung/rebalancer/internal/metrics"
)

// AggregatorConfig is plain data so the core never reads the environment.
type AggregatorConfig struct {
	Mode                       Mode
	CacheTTL                   time.Duration
	SignificantChangeThreshold float64
}

// DefaultAggregatorConfig returns demo mode with the standard TTL and threshold.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Mode:                       ModeDemo,
		CacheTTL:                   DefaultCacheTTL,
		SignificantChangeThreshold: SignificantChangeThreshold,
	}
}

// Aggregator fetches every strategy concurrently and caches the snapshot.
type Aggregator struct {
	cfg     AggregatorConfig
	sources map[domain.StrategyKey]Adapter
	cache   SnapshotCache
	now     func() time.Time
	metrics *metrics.Recorder
	log     zerolog.Logger
}

// NewAggregator builds the production sources for cfg.Mode and wraps them.
func NewAggregator(cfg AggregatorConfig, remotes Remotes, cache SnapshotCache, m *metrics.Recorder, log zerolog.Logger) (*Aggregator, error) {
	return NewAggregatorFromSources(cfg, NewSources(cfg.Mode, remotes, m, log), cache, m, log)
}

// NewAggregatorFromSources wraps caller-supplied adapters. Every strategy must be covered.
func NewAggregatorFromSources(cfg AggregatorConfig, sources []Adapter, cache SnapshotCache, m *metrics.Recorder, log zerolog.Logger) (*Aggregator, error) {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.SignificantChangeThreshold <= 0 {
		cfg.SignificantChangeThreshold = SignificantChangeThreshold
	}
	if cache == nil {
		cache = NewMemoryCache()
	}

	byStrategy := make(map[domain.StrategyKey]Adapter, len(sources))
	for _, src := range sources {
		byStrategy[src.Strategy()] = src
	}
	for _, s := range domain.Strategies {
		if byStrategy[s] == nil {
			return nil, fmt.Errorf("no yield source for strategy %s", s)
		}
	}

	return &Aggregator{
		cfg:     cfg,
		sources: byStrategy,
		cache:   cache,
		now:     time.Now,
		metrics: m,
		log:     log.With().Str("service", "yields").Logger(),
	}, nil
}

// Config returns the effective configuration.
func (a *Aggregator) Config() AggregatorConfig {
	return a.cfg
}

// FetchAll returns the cached snapshot while it is fresh, otherwise fetches
// all strategies concurrently and caches the result. The only error is ctx
// cancellation; callers should fall back to Mock.
func (a *Aggregator) FetchAll(ctx context.Context, forceRefresh bool) (YieldSnapshot, error) {
	now := a.now()
	if !forceRefresh {
		if snap, ok := a.cache.Get(); ok && !snap.IsStale && snap.Age(now) < a.cfg.CacheTTL {
			a.metrics.RecordCacheLookup(true)
			return snap, nil
		}
	}
	a.metrics.RecordCacheLookup(false)

	start := time.Now()
	results := make([]YieldData, len(domain.Strategies))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range domain.Strategies {
		i := i
		src := a.sources[s]
		g.Go(func() error {
			results[i] = src.Fetch(gctx)
			return nil
		})
	}
	// Adapters never return errors.
	_ = g.Wait()
	a.metrics.RecordFetchDuration(time.Since(start).Seconds())

	if err := ctx.Err(); err != nil {
		return YieldSnapshot{}, fmt.Errorf("fetch yields: %w", err)
	}

	var yields StrategyYields
	for i, s := range domain.Strategies {
		yields.set(s, results[i])
	}
	snap := YieldSnapshot{Yields: yields, Timestamp: now.UnixMilli()}
	a.cache.Set(snap)

	a.log.Debug().
		Float64("thetanuts", yields.Thetanuts.APY).
		Float64("aerodrome", yields.Aerodrome.APY).
		Float64("staking", yields.Staking.APY).
		Msg("Yields refreshed")

	return snap, nil
}

// Mock returns a fresh all-mock snapshot without touching the cache.
func (a *Aggregator) Mock() YieldSnapshot {
	var yields StrategyYields
	for _, s := range domain.Strategies {
		yields.set(s, a.sources[s].Mock())
	}
	return YieldSnapshot{Yields: yields, Timestamp: a.now().UnixMilli()}
}

// FetchOrMock is FetchAll with the mock fallback applied.
func (a *Aggregator) FetchOrMock(ctx context.Context, forceRefresh bool) YieldSnapshot {
	snap, err := a.FetchAll(ctx, forceRefresh)
	if err != nil {
		a.log.Warn().Err(err).Msg("Yield fetch failed, using mock snapshot")
		return a.Mock()
	}
	return snap
}

// Previous returns the yields displaced by the latest refresh.
func (a *Aggregator) Previous() (StrategyYields, bool) {
	return a.cache.Previous()
}

// SetPrevious overrides the comparison baseline, mainly for tests and demos.
func (a *Aggregator) SetPrevious(y StrategyYields) {
	a.cache.SetPrevious(y)
}

// Cached returns the current snapshot without fetching.
func (a *Aggregator) Cached() (YieldSnapshot, bool) {
	return a.cache.Get()
}

// Clear drops the current and previous snapshots.
func (a *Aggregator) Clear() {
	a.cache.Invalidate()
}
