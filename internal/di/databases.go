package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/foundry/internal/config"
	"github.com/aristath/foundry/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens and migrates both databases.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. foundry.db - agents, token holdings, companies, workflow state, marketing
	foundryDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger, // token sales must never be lost
		Name:    "foundry",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize foundry database: %w", err)
	}
	container.FoundryDB = foundryDB

	// 2. cache.db - work completion history, safe to lose
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		foundryDB.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	for _, db := range container.Databases() {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
		log.Debug().Str("database", db.Name()).Str("path", db.Path()).Msg("Database ready")
	}

	log.Info().Int("count", len(container.Databases())).Msg("Databases initialized")
	return container, nil
}
