package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/menabung/rebalancer/internal/config"
	"github.com/menabung/rebalancer/internal/database"
	"github.com/menabung/rebalancer/internal/storage"
)

// InitializeDatabases opens and migrates store.db when the sqlite backend is
// selected. Other backends get an empty container.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}
	if cfg.StoreBackend != storage.BackendSQLite {
		return container, nil
	}

	storeDB, err := database.New(database.Config{
		Path:    cfg.StorePath(),
		Profile: database.ProfileStandard,
		Name:    "store",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store database: %w", err)
	}

	if err := storeDB.Migrate(); err != nil {
		_ = storeDB.Close()
		return nil, fmt.Errorf("failed to apply schema to %s: %w", storeDB.Name(), err)
	}
	container.StoreDB = storeDB

	log.Info().Str("path", storeDB.Path()).Msg("Store database initialized")
	return container, nil
}
