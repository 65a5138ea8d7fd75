package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/effectlang/internal/engine"
)

// AbilityRepository stores trigger bindings in PostgreSQL.
// Implements engine.BindingStore.
type AbilityRepository struct {
	db *pgxpool.Pool
}

// NewAbilityRepository creates a new AbilityRepository.
func NewAbilityRepository(db *pgxpool.Pool) *AbilityRepository {
	return &AbilityRepository{db: db}
}

// SaveBinding inserts b or updates the stored copy with the same ID.
func (r *AbilityRepository) SaveBinding(ctx context.Context, b engine.Binding) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ability_bindings (id, owner_id, trigger_id, effect, remaining_turns)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   owner_id = EXCLUDED.owner_id,
		   trigger_id = EXCLUDED.trigger_id,
		   effect = EXCLUDED.effect,
		   remaining_turns = EXCLUDED.remaining_turns`,
		b.ID, b.OwnerID, b.Trigger, b.Effect, b.RemainingTurns,
	)
	if err != nil {
		return fmt.Errorf("saving binding %s: %w", b.ID, err)
	}
	return nil
}

// LoadBindings returns the bindings of ownerID in registration order.
func (r *AbilityRepository) LoadBindings(ctx context.Context, ownerID string) ([]engine.Binding, error) {
	query := `
		SELECT id, owner_id, trigger_id, effect, remaining_turns
		FROM ability_bindings
		WHERE owner_id = $1
		ORDER BY seq
	`

	rows, err := r.db.Query(ctx, query, ownerID)
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
func (r *AbilityRepository) DeleteBinding(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ability_bindings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting binding %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", engine.ErrBindingNotFound, id)
	}
	return nil
}
