package main

import (
	"context"
	"fmt"

	"github.com/udisondev/effectlang/internal/config"
	"github.com/udisondev/effectlang/internal/db"
	"github.com/udisondev/effectlang/internal/db/sqlite"
	"github.com/udisondev/effectlang/internal/engine"
)

// stores are the persistence backends selected by the database driver.
// snapshots is nil for the memory driver: the encounter file is the state.
type stores struct {
	bindings  engine.BindingStore
	snapshots engine.SnapshotStore
	close     func()
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, st *encounterState) (*stores, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return &stores{bindings: s, snapshots: s, close: func() { _ = s.Close() }}, nil

	case config.DriverPostgres:
		dsn := cfg.DSN()
		if err := db.RunMigrations(ctx, dsn); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		d, err := db.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		return &stores{bindings: d.Abilities(), snapshots: d.Entities(), close: d.Close}, nil

	default:
		return &stores{bindings: stateBindings{st: st}, close: func() {}}, nil
	}
}
