package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/menabung/rebalancer/internal/config"
	"github.com/menabung/rebalancer/internal/scheduler"
)

const (
	pruneSchedule = "@every 1h"
	walSchedule   = "@every 6h"
)

// RegisterJobs creates the background jobs and registers them with the scheduler.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.Scheduler == nil {
		return nil, fmt.Errorf("container with scheduler is required")
	}

	instances := &JobInstances{}

	refreshCfg := scheduler.YieldRefreshConfig{
		Checker:   container.RebalancingService,
		Threshold: cfg.SignificantChangeThreshold,
		Timeout:   cfg.HTTPTimeout * 3,
		Log:       log,
	}
	if container.Snapshots != nil {
		refreshCfg.Recorder = container.Snapshots
	}
	instances.YieldRefresh = scheduler.NewYieldRefreshJob(refreshCfg)
	if err := container.Scheduler.AddJob(cfg.RefreshSchedule, instances.YieldRefresh); err != nil {
		return nil, fmt.Errorf("failed to register yield refresh job: %w", err)
	}

	if container.Snapshots != nil {
		instances.PruneSnapshots = scheduler.NewPruneSnapshotsJob(container.Snapshots, cfg.SnapshotRetention, log)
		if err := container.Scheduler.AddJob(pruneSchedule, instances.PruneSnapshots); err != nil {
			return nil, fmt.Errorf("failed to register prune job: %w", err)
		}
	}

	if container.StoreDB != nil {
		instances.CheckWAL = scheduler.NewCheckWALCheckpointsJob(container.StoreDB, log)
		if err := container.Scheduler.AddJob(walSchedule, instances.CheckWAL); err != nil {
			return nil, fmt.Errorf("failed to register WAL check job: %w", err)
		}
	}

	return instances, nil
}
