package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/learning"
)

// initStore opens the configured format-learning store and runs migrations.
func initStore(ctx context.Context) (learning.Store, error) {
	var (
		st  learning.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = learning.NewSQLite(cfg.Store.Path)
	case "postgres":
		st, err = learning.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "memory":
		st = learning.NewMemory()
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
