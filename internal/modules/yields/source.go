package yields

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/menabung/rebalancer/internal/domain"
	"github.com/menabung/rebalancer/internal/metrics"
)

// Adapter produces yield readings for one strategy. Fetch never fails: any
// remote error degrades to Mock.
type Adapter interface {
	Strategy() domain.StrategyKey
	Fetch(ctx context.Context) YieldData
	Mock() YieldData
}

// liveSources tags each strategy's live readings.
var liveSources = map[domain.StrategyKey]Source{
	domain.StrategyThetanuts: SourceAPI,
	domain.StrategyAerodrome: SourceSubgraph,
	domain.StrategyStaking:   SourceContract,
}

// StrategySource is the Adapter used in production. The mode is the only
// switch between live, simulated and demo behaviour.
type StrategySource struct {
	strategy domain.StrategyKey
	remote   RemoteFetcher
	mode     Mode
	now      func() time.Time
	metrics  *metrics.Recorder
	log      zerolog.Logger
}

// NewStrategySource creates a source for one strategy. remote may be nil.
func NewStrategySource(strategy domain.StrategyKey, remote RemoteFetcher, mode Mode, m *metrics.Recorder, log zerolog.Logger) *StrategySource {
	return &StrategySource{
		strategy: strategy,
		remote:   remote,
		mode:     mode,
		now:      time.Now,
		metrics:  m,
		log:      log.With().Str("component", "yield_source").Str("strategy", string(strategy)).Logger(),
	}
}

// NewSources builds one StrategySource per strategy in canonical order.
func NewSources(mode Mode, remotes Remotes, m *metrics.Recorder, log zerolog.Logger) []Adapter {
	byStrategy := map[domain.StrategyKey]RemoteFetcher{
		domain.StrategyThetanuts: remotes.Thetanuts,
		domain.StrategyAerodrome: remotes.Aerodrome,
		domain.StrategyStaking:   remotes.Staking,
	}
	sources := make([]Adapter, 0, len(domain.Strategies))
	for _, s := range domain.Strategies {
		sources = append(sources, NewStrategySource(s, byStrategy[s], mode, m, log))
	}
	return sources
}

// Strategy implements Adapter.
func (s *StrategySource) Strategy() domain.StrategyKey {
	return s.strategy
}

// Fetch implements Adapter. Only fetched values are reported to metrics.
func (s *StrategySource) Fetch(ctx context.Context) YieldData {
	data := s.fetch(ctx)
	s.metrics.RecordYield(string(s.strategy), string(data.Source), data.APY)
	return data
}

func (s *StrategySource) fetch(ctx context.Context) YieldData {
	if s.mode != ModeLive || s.remote == nil {
		return s.Mock()
	}

	apy, err := s.remote.FetchAPY(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Live yield fetch failed, using mock data")
		s.metrics.RecordFallback(string(s.strategy))
		return s.Mock()
	}
	return YieldData{APY: apy, Timestamp: s.now().UnixMilli(), Source: liveSources[s.strategy]}
}

// Mock implements Adapter.
func (s *StrategySource) Mock() YieldData {
	return MockYieldData(s.strategy, s.mode, s.now())
}
