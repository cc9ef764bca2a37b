package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/menabung/rebalancer/internal/config"
	"github.com/menabung/rebalancer/internal/metrics"
	"github.com/menabung/rebalancer/internal/modules/rebalancing"
	"github.com/menabung/rebalancer/internal/modules/yields"
	"github.com/menabung/rebalancer/internal/scheduler"
)

// InitializeServices builds the yield aggregator, the rebalancing service
// and the scheduler on top of the initialized store.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container.Store == nil {
		return fmt.Errorf("store must be initialized before services")
	}

	container.Metrics = metrics.New()

	aggregator, err := yields.NewAggregator(
		cfg.AggregatorConfig(),
		yields.NewRemotes(cfg.RemoteConfig()),
		yields.NewMemoryCache(),
		container.Metrics,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create yield aggregator: %w", err)
	}
	container.Aggregator = aggregator

	container.Lifecycle = rebalancing.NewLifecycle(container.Store, container.Metrics, log)
	container.RebalancingService = rebalancing.NewService(
		aggregator,
		container.Lifecycle,
		rebalancing.DefaultConfig(),
		cfg.NotifyCooldown,
		container.Metrics,
		log,
	)

	container.Scheduler = scheduler.New(container.Metrics, log)

	log.Info().Str("yield_mode", string(cfg.YieldMode)).Msg("Services initialized")
	return nil
}
