// Package di provides dependency injection wiring and initialization.
package di

import (
	"errors"

	"github.com/menabung/rebalancer/internal/database"
	"github.com/menabung/rebalancer/internal/domain"
	"github.com/menabung/rebalancer/internal/metrics"
	"github.com/menabung/rebalancer/internal/modules/rebalancing"
	"github.com/menabung/rebalancer/internal/modules/yields"
	"github.com/menabung/rebalancer/internal/scheduler"
	"github.com/menabung/rebalancer/internal/storage"
)

// Container holds all application dependencies. It is built by Wire and
// passed to the server.
type Container struct {
	// Databases (nil unless the sqlite backend is selected)
	StoreDB *database.DB

	// Storage
	Store      domain.KeyValueStore
	RedisStore *storage.RedisStore
	Snapshots  *storage.SnapshotRepository

	// Services
	Metrics            *metrics.Recorder
	Aggregator         *yields.Aggregator
	Lifecycle          *rebalancing.Lifecycle
	RebalancingService *rebalancing.Service
	Scheduler          *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	YieldRefresh   scheduler.Job
	PruneSnapshots scheduler.Job
	CheckWAL       scheduler.Job
}

// Close releases every connection the container owns.
func (c *Container) Close() error {
	var errs []error
	if c.RedisStore != nil {
		errs = append(errs, c.RedisStore.Close())
	}
	if c.StoreDB != nil {
		errs = append(errs, c.StoreDB.Close())
	}
	return errors.Join(errs...)
}
