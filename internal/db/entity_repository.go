package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/model"
)

// SnapshotRow is the column form of a model.Snapshot: the maps and lists
// are stored as JSON documents.
type SnapshotRow struct {
	ID        string
	Name      string
	Player    bool
	Stats     []byte
	Modifiers []byte
	Timed     []byte
	Statuses  []byte
}

// EncodeSnapshot converts s to its column form.
func EncodeSnapshot(s model.Snapshot) (SnapshotRow, error) {
	row := SnapshotRow{ID: s.ID, Name: s.Name, Player: s.Player}

	var err error
	if row.Stats, err = marshalOr(s.Stats, "{}"); err != nil {
		return row, fmt.Errorf("encoding stats: %w", err)
	}
	if row.Modifiers, err = marshalOr(s.Modifiers, "{}"); err != nil {
		return row, fmt.Errorf("encoding modifiers: %w", err)
	}
	if row.Timed, err = marshalOr(s.Timed, "[]"); err != nil {
		return row, fmt.Errorf("encoding timed modifiers: %w", err)
	}
	if row.Statuses, err = marshalOr(s.Statuses, "[]"); err != nil {
		return row, fmt.Errorf("encoding statuses: %w", err)
	}
	return row, nil
}

// Decode converts the row back to a snapshot.
func (r SnapshotRow) Decode() (model.Snapshot, error) {
	s := model.Snapshot{ID: r.ID, Name: r.Name, Player: r.Player}
	if err := json.Unmarshal(r.Stats, &s.Stats); err != nil {
		return s, fmt.Errorf("decoding stats of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(r.Modifiers, &s.Modifiers); err != nil {
		return s, fmt.Errorf("decoding modifiers of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(r.Timed, &s.Timed); err != nil {
		return s, fmt.Errorf("decoding timed modifiers of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(r.Statuses, &s.Statuses); err != nil {
		return s, fmt.Errorf("decoding statuses of %s: %w", r.ID, err)
	}
	return s, nil
}

func marshalOr[T any](v T, empty string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return []byte(empty), nil
	}
	return b, nil
}

// EntityRepository stores entity snapshots in PostgreSQL.
// Implements engine.SnapshotStore.
type EntityRepository struct {
	db *pgxpool.Pool
}

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(db *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{db: db}
}

// SaveSnapshot upserts the snapshot by entity ID.
func (r *EntityRepository) SaveSnapshot(ctx context.Context, s model.Snapshot) error {
	row, err := EncodeSnapshot(s)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO entity_snapshots (id, name, player, stats, modifiers, timed, statuses, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   player = EXCLUDED.player,
		   stats = EXCLUDED.stats,
		   modifiers = EXCLUDED.modifiers,
		   timed = EXCLUDED.timed,
		   statuses = EXCLUDED.statuses,
		   updated_at = EXCLUDED.updated_at`,
		row.ID, row.Name, row.Player,
		string(row.Stats), string(row.Modifiers), string(row.Timed), string(row.Statuses),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", s.ID, err)
	}
	return nil
}

// LoadSnapshot returns the snapshot of entity id.
func (r *EntityRepository) LoadSnapshot(ctx context.Context, id string) (model.Snapshot, error) {
	var row SnapshotRow
	err := r.db.QueryRow(ctx,
		`SELECT id, name, player, stats, modifiers, timed, statuses
		 FROM entity_snapshots WHERE id = $1`, id,
	).Scan(&row.ID, &row.Name, &row.Player, &row.Stats, &row.Modifiers, &row.Timed, &row.Statuses)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Snapshot{}, fmt.Errorf("%w: %s", engine.ErrSnapshotNotFound, id)
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("querying snapshot %s: %w", id, err)
	}
	return row.Decode()
}
