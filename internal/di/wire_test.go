package di

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menabung/rebalancer/internal/config"
	"github.com/menabung/rebalancer/internal/modules/yields"
	"github.com/menabung/rebalancer/internal/storage"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:                    t.TempDir(),
		Port:                       8080,
		YieldMode:                  yields.ModeDemo,
		YieldCacheTTL:              yields.DefaultCacheTTL,
		SignificantChangeThreshold: yields.SignificantChangeThreshold,
		RefreshSchedule:            "@every 5m",
		SnapshotRetention:          24 * time.Hour,
		HTTPTimeout:                time.Second,
		StoreBackend:               backend,
	}
}

func TestWire_SQLite(t *testing.T) {
	cfg := testConfig(t, storage.BackendSQLite)

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.StoreDB)
	assert.IsType(t, &storage.SQLiteStore{}, container.Store)
	assert.NotNil(t, container.Snapshots)
	assert.NotNil(t, container.RebalancingService)
	assert.NotNil(t, container.Metrics)

	assert.NotNil(t, jobs.YieldRefresh)
	assert.NotNil(t, jobs.PruneSnapshots)
	assert.NotNil(t, jobs.CheckWAL)

	// The refresh job writes through to the snapshot log.
	require.NoError(t, container.Scheduler.RunNow(jobs.YieldRefresh))
	snaps, err := container.Snapshots.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestWire_Memory(t *testing.T) {
	cfg := testConfig(t, storage.BackendMemory)

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.Nil(t, container.StoreDB)
	assert.Nil(t, container.Snapshots)
	assert.IsType(t, &storage.MemoryStore{}, container.Store)

	assert.NotNil(t, jobs.YieldRefresh)
	assert.Nil(t, jobs.PruneSnapshots)
	assert.Nil(t, jobs.CheckWAL)
	assert.NoError(t, container.Scheduler.RunNow(jobs.YieldRefresh))
}

func TestWire_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t, storage.BackendRedis)
	cfg.RedisAddr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, _, err := Wire(ctx, cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "failed to initialize repositories")
}

func TestWire_BadSchedule(t *testing.T) {
	cfg := testConfig(t, storage.BackendMemory)
	cfg.RefreshSchedule = "whenever"

	_, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "failed to register jobs")
}

func TestInitializeServices_RequiresStore(t *testing.T) {
	err := InitializeServices(&Container{}, testConfig(t, storage.BackendMemory), zerolog.Nop())
	assert.Error(t, err)
}
