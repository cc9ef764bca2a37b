package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/menabung/rebalancer/internal/database"
)

// walFrameWarning is the WAL size, in frames, that triggers a truncating checkpoint.
const walFrameWarning = 1000

// CheckWALCheckpointsJob monitors WAL growth and truncates it when large
type CheckWALCheckpointsJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewCheckWALCheckpointsJob creates a new CheckWALCheckpointsJob
func NewCheckWALCheckpointsJob(db *database.DB, log zerolog.Logger) *CheckWALCheckpointsJob {
	return &CheckWALCheckpointsJob{
		db:  db,
		log: log.With().Str("job", "check_wal_checkpoints").Logger(),
	}
}

// Name returns the job name
func (j *CheckWALCheckpointsJob) Name() string {
	return "check_wal_checkpoints"
}

// Run executes the check WAL checkpoints job
func (j *CheckWALCheckpointsJob) Run() error {
	if j.db == nil {
		return nil
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	if err := j.db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed); err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("Failed to check WAL checkpoint")
		return nil
	}

	if frames > walFrameWarning {
		j.log.Warn().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, truncating")
		return j.db.WALCheckpoint("TRUNCATE")
	}

	j.log.Debug().
		Str("database", j.db.Name()).
		Int("wal_frames", frames).
		Msg("WAL checkpoint status OK")
	return nil
}
