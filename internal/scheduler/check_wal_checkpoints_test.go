package scheduler

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	testingpkg "github.com/menabung/rebalancer/internal/testing"
)

func TestCheckWALCheckpointsJob_Name(t *testing.T) {
	job := &CheckWALCheckpointsJob{
		log: zerolog.Nop(),
	}
	assert.Equal(t, "check_wal_checkpoints", job.Name())
}

func TestCheckWALCheckpointsJob_Run_NoDatabase(t *testing.T) {
	job := NewCheckWALCheckpointsJob(nil, zerolog.New(nil).Level(zerolog.Disabled))

	assert.NoError(t, job.Run())
}

func TestCheckWALCheckpointsJob_Run(t *testing.T) {
	db := testingpkg.NewTestDB(t, "store")
	job := NewCheckWALCheckpointsJob(db, zerolog.New(nil).Level(zerolog.Disabled))

	assert.NoError(t, job.Run())
}

func TestCheckWALCheckpointsJob_Run_ClosedDatabase(t *testing.T) {
	db := testingpkg.NewTestDB(t, "store")
	job := NewCheckWALCheckpointsJob(db, zerolog.New(nil).Level(zerolog.Disabled))
	_ = db.Close()

	// A failed status query is logged, not surfaced.
	assert.NoError(t, job.Run())
}
