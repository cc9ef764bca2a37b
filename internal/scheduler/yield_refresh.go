package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/menabung/rebalancer/internal/modules/rebalancing"
	"github.com/menabung/rebalancer/internal/modules/yields"
)

// RebalanceChecker force-refreshes yields and compares them with the previous snapshot.
type RebalanceChecker interface {
	CheckRebalance(ctx context.Context, threshold float64) rebalancing.CheckResult
}

// SnapshotRecorder persists refreshed snapshots.
type SnapshotRecorder interface {
	Record(ctx context.Context, snap yields.YieldSnapshot) error
}

// YieldRefreshJob refreshes yields on a schedule, records the snapshot and
// logs whether the move is worth a rebalance check.
type YieldRefreshJob struct {
	checker   RebalanceChecker
	recorder  SnapshotRecorder
	threshold float64
	timeout   time.Duration
	log       zerolog.Logger
}

// YieldRefreshConfig holds configuration for the yield refresh job
type YieldRefreshConfig struct {
	Checker   RebalanceChecker
	Recorder  SnapshotRecorder // optional
	Threshold float64
	Timeout   time.Duration
	Log       zerolog.Logger
}

// NewYieldRefreshJob creates a new yield refresh job
func NewYieldRefreshJob(cfg YieldRefreshConfig) *YieldRefreshJob {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &YieldRefreshJob{
		checker:   cfg.Checker,
		recorder:  cfg.Recorder,
		threshold: cfg.Threshold,
		timeout:   cfg.Timeout,
		log:       cfg.Log.With().Str("job", "yield_refresh").Logger(),
	}
}

// Name returns the job name
func (j *YieldRefreshJob) Name() string {
	return "yield_refresh"
}

// Run executes one refresh
func (j *YieldRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result := j.checker.CheckRebalance(ctx, j.threshold)

	if j.recorder != nil {
		snap := yields.YieldSnapshot{Yields: result.CurrentYields, Timestamp: result.Comparison.Timestamp}
		if err := j.recorder.Record(ctx, snap); err != nil {
			return fmt.Errorf("record snapshot: %w", err)
		}
	}

	if result.ShouldCheck {
		j.log.Info().
			Str("reason", result.Reason).
			Str("notification", result.Notification).
			Msg("Significant yield change")
		return nil
	}

	j.log.Debug().
		Float64("thetanuts", result.CurrentYields.Thetanuts.APY).
		Float64("aerodrome", result.CurrentYields.Aerodrome.APY).
		Float64("staking", result.CurrentYields.Staking.APY).
		Str("reason", result.Reason).
		Msg("Yields refreshed")
	return nil
}
