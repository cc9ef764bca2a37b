package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotPruner deletes snapshots older than a cutoff.
type SnapshotPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneSnapshotsJob keeps the snapshot log bounded
type PruneSnapshotsJob struct {
	pruner    SnapshotPruner
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewPruneSnapshotsJob creates a job that keeps retention worth of snapshots
func NewPruneSnapshotsJob(pruner SnapshotPruner, retention time.Duration, log zerolog.Logger) *PruneSnapshotsJob {
	return &PruneSnapshotsJob{
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
		log:       log.With().Str("job", "prune_snapshots").Logger(),
	}
}

// Name returns the job name
func (j *PruneSnapshotsJob) Name() string {
	return "prune_snapshots"
}

// Run executes the prune
func (j *PruneSnapshotsJob) Run() error {
	n, err := j.pruner.Prune(context.Background(), j.now().Add(-j.retention))
	if err != nil {
		return err
	}
	j.log.Debug().Int64("deleted", n).Msg("Snapshot prune completed")
	return nil
}
