// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/greenfolio/internal/config"
	"github.com/aristath/greenfolio/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens both databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// projects.db - project records and cached score snapshots
	projectsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "projects.db"),
		Profile: database.ProfileStandard,
		Name:    "projects",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize projects database: %w", err)
	}
	container.ProjectsDB = projectsDB

	// cache.db - benchmark service responses
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache, // Maximum speed for ephemeral data
		Name:    "cache",
	})
	if err != nil {
		projectsDB.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	for _, db := range []*database.DB{projectsDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			projectsDB.Close()
			cacheDB.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("Databases initialized and schemas applied")

	return container, nil
}
