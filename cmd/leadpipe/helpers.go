package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jcourtner/leadpipe/internal/config"
	"github.com/jcourtner/leadpipe/internal/service"
	"github.com/jcourtner/leadpipe/internal/storage"
)

// initStorage loads configuration and opens migrated storage. Callers own
// the returned store and must Close it.
func initStorage(ctx context.Context) (service.Storage, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	dbPath := config.ExpandPath(cfg.DatabasePath)
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, cfg, nil
}

func parseProspectID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid prospect id %q", arg)
	}
	return id, nil
}
