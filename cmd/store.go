package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/chtrack/internal/config"
	"github.com/sells-group/chtrack/internal/store"
)

// openStore opens the configured server store backend and runs migrations.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	var s store.Store
	var err error

	switch cfg.Driver {
	case "sqlite", "":
		s, err = store.NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = store.NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
