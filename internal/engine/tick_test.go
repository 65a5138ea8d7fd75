package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/testutil"
)

func TestTickStatuses_Poison(t *testing.T) {
	ctx := context.Background()
	x, enc := newExecutor(t)
	run(t, x, "OP.status apply poison 3")

	_, err := x.TickStatuses(ctx, testutil.Fixtures.EnemyID, nil)
	require.NoError(t, err)
	assert.Equal(t, 37.0, stat(t, enc.E, "hp"))
	assert.Equal(t, 2, enc.E.Statuses().Stacks("poison"))

	_, err = x.TickStatuses(ctx, testutil.Fixtures.EnemyID, nil)
	require.NoError(t, err)
	assert.Equal(t, 35.0, stat(t, enc.E, "hp"))
	assert.Equal(t, 1, enc.E.Statuses().Stacks("poison"))

	_, err = x.TickStatuses(ctx, testutil.Fixtures.EnemyID, nil)
	require.NoError(t, err)
	assert.Equal(t, 34.0, stat(t, enc.E, "hp"))
	assert.Equal(t, 0, enc.E.Statuses().Len())
}

func TestTickStatuses_ExpiresTimedEffects(t *testing.T) {
	ctx := context.Background()
	x, enc := newExecutor(t)
	run(t, x, "ME.status apply weak 1 @1, ME.status apply strength 2, ME.damage_mult * 2 @1")

	expired, err := x.TickStatuses(ctx, testutil.Fixtures.PlayerID, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"weak"}, expired)
	assert.Equal(t, 2, enc.P.Statuses().Stacks("strength"))
	assert.Empty(t, enc.P.TimedModifiers())
	assert.InDelta(t, 1.0, enc.P.Modifier("damage_mult", 1), 1e-9)
}

func TestTickStatuses_UnknownEntity(t *testing.T) {
	x, _ := newExecutor(t)

	_, err := x.TickStatuses(context.Background(), "ghost", nil)
	require.ErrorIs(t, err, engine.ErrNoEntity)
}
