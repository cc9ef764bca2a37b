package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/menabung/rebalancer/internal/config"
	"github.com/menabung/rebalancer/internal/storage"
)

// InitializeRepositories selects the key/value backend and, with SQLite,
// the snapshot repository.
func InitializeRepositories(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	switch cfg.StoreBackend {
	case storage.BackendSQLite:
		if container.StoreDB == nil {
			return fmt.Errorf("sqlite backend selected but store database is not initialized")
		}
		container.Store = storage.NewSQLiteStore(container.StoreDB.Conn(), log)
		container.Snapshots = storage.NewSnapshotRepository(container.StoreDB.Conn(), log)

	case storage.BackendRedis:
		redisStore, err := storage.NewRedisStore(ctx, storage.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, log)
		if err != nil {
			return err
		}
		container.RedisStore = redisStore
		container.Store = redisStore

	case storage.BackendMemory:
		container.Store = storage.NewMemoryStore()

	default:
		return fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	log.Info().Str("backend", cfg.StoreBackend).Msg("Key-value store initialized")
	return nil
}
