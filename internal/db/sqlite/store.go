// Package sqlite persists ability bindings and entity snapshots in a local
// SQLite file. It serves the same interfaces as the PostgreSQL repositories.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/udisondev/effectlang/internal/db"
	"github.com/udisondev/effectlang/internal/db/sqlite/migrations"
	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/model"
)

// Store implements engine.BindingStore and engine.SnapshotStore.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the SQLite file at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, migrations.FS)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("creating migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveBinding inserts b or updates the stored copy with the same ID.
func (s *Store) SaveBinding(ctx context.Context, b engine.Binding) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO ability_bindings (id, owner_id, trigger_id, effect, remaining_turns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   owner_id = excluded.owner_id,
		   trigger_id = excluded.trigger_id,
		   effect = excluded.effect,
		   remaining_turns = excluded.remaining_turns`,
		b.ID, b.OwnerID, b.Trigger, b.Effect, b.RemainingTurns, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving binding %s: %w", b.ID, err)
	}
	return nil
}

// LoadBindings returns the bindings of ownerID in registration order.
func (s *Store) LoadBindings(ctx context.Context, ownerID string) ([]engine.Binding, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, owner_id, trigger_id, effect, remaining_turns
		 FROM ability_bindings
		 WHERE owner_id = ?
		 ORDER BY seq`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying bindings for %s: %w", ownerID, err)
	}
	defer rows.Close()

	bindings := make([]engine.Binding, 0, 8)
	for rows.Next() {
		var b engine.Binding
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Trigger, &b.Effect, &b.RemainingTurns); err != nil {
			return nil, fmt.Errorf("scanning binding row: %w", err)
		}
		bindings = append(bindings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating binding rows: %w", err)
	}
	return bindings, nil
}

// DeleteBinding removes a binding by ID.
func (s *Store) DeleteBinding(ctx context.Context, id string) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM ability_bindings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting binding %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting binding %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", engine.ErrBindingNotFound, id)
	}
	return nil
}

// SaveSnapshot upserts the snapshot by entity ID.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	row, err := db.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO entity_snapshots (id, name, player, stats, modifiers, timed, statuses, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   player = excluded.player,
		   stats = excluded.stats,
		   modifiers = excluded.modifiers,
		   timed = excluded.timed,
		   statuses = excluded.statuses,
		   updated_at = excluded.updated_at`,
		row.ID, row.Name, row.Player,
		string(row.Stats), string(row.Modifiers), string(row.Timed), string(row.Statuses),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// LoadSnapshot returns the snapshot of entity id.
func (s *Store) LoadSnapshot(ctx context.Context, id string) (model.Snapshot, error) {
	var row db.SnapshotRow
	var stats, modifiers, timed, statuses string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, player, stats, modifiers, timed, statuses
		 FROM entity_snapshots WHERE id = ?`, id,
	).Scan(&row.ID, &row.Name, &row.Player, &stats, &modifiers, &timed, &statuses)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, fmt.Errorf("%w: %s", engine.ErrSnapshotNotFound, id)
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("querying snapshot %s: %w", id, err)
	}
	row.Stats, row.Modifiers, row.Timed, row.Statuses = []byte(stats), []byte(modifiers), []byte(timed), []byte(statuses)
	return row.Decode()
}
