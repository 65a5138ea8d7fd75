package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/testutil"
)

func TestAbilityBook_RegisterDoesNotExecute(t *testing.T) {
	book := engine.NewAbilityBook(nil)
	x, enc := newExecutor(t, engine.WithAbilities(book))

	run(t, x, "ME.turn_start(ME.block + 3)")

	bindings := book.Bindings(testutil.Fixtures.PlayerID)
	require.Len(t, bindings, 1)
	assert.Equal(t, "turn_start", bindings[0].Trigger)
	assert.Equal(t, "ME.block + 3", bindings[0].Effect)
	assert.NotEmpty(t, bindings[0].ID)
	assert.Equal(t, 0.0, stat(t, enc.P, "block"))
}

func TestAbilityBook_FireRunsOncePerEvent(t *testing.T) {
	ctx := context.Background()
	book := engine.NewAbilityBook(nil)
	x, enc := newExecutor(t, engine.WithAbilities(book))
	run(t, x, "ME.turn_start(ME.block + 3)")

	n, err := book.Fire(ctx, x, "turn_start", testutil.Fixtures.PlayerID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3.0, stat(t, enc.P, "block"))

	_, err = book.Fire(ctx, x, "turn_start", testutil.Fixtures.PlayerID, nil)
	require.NoError(t, err)
	assert.Equal(t, 6.0, stat(t, enc.P, "block"))

	n, err = book.Fire(ctx, x, "turn_end", testutil.Fixtures.PlayerID, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAbilityBook_BodyIsRelativeToOwner(t *testing.T) {
	ctx := context.Background()
	book := engine.NewAbilityBook(nil)
	x, enc := newExecutor(t, engine.WithAbilities(book))

	// the enemy gains the ability; its ME is the enemy when it fires
	run(t, x, "OP.turn_end(ME.block + 4, OP.hp - 2)")
	require.Empty(t, book.Bindings(testutil.Fixtures.PlayerID))
	require.Len(t, book.Bindings(testutil.Fixtures.EnemyID), 1)

	_, err := book.Fire(ctx, x, "turn_end", testutil.Fixtures.EnemyID, nil)
	require.NoError(t, err)

	assert.Equal(t, 4.0, stat(t, enc.E, "block"))
	assert.Equal(t, 48.0, stat(t, enc.P, "hp"))
}

func TestAbilityBook_AllRegistersOnBoth(t *testing.T) {
	book := engine.NewAbilityBook(nil)
	x, _ := newExecutor(t, engine.WithAbilities(book))

	run(t, x, "ALL.turn_start(ME.energy + 1)")

	assert.Len(t, book.Bindings(testutil.Fixtures.PlayerID), 1)
	assert.Len(t, book.Bindings(testutil.Fixtures.EnemyID), 1)
}

func TestAbilityBook_FailingBindingDoesNotStopOthers(t *testing.T) {
	ctx := context.Background()
	book := engine.NewAbilityBook(nil)
	x, enc := newExecutor(t, engine.WithAbilities(book))

	_, err := book.Register(ctx, engine.Binding{OwnerID: testutil.Fixtures.PlayerID, Trigger: "turn_start", Effect: `narrate "no narrator"`})
	require.NoError(t, err)
	_, err = book.Register(ctx, engine.Binding{OwnerID: testutil.Fixtures.PlayerID, Trigger: "turn_start", Effect: "ME.block + 1"})
	require.NoError(t, err)

	n, err := book.Fire(ctx, x, "turn_start", testutil.Fixtures.PlayerID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1.0, stat(t, enc.P, "block"))
}

func TestAbilityBook_FireUnknownOwner(t *testing.T) {
	book := engine.NewAbilityBook(nil)
	x, _ := newExecutor(t, engine.WithAbilities(book))

	_, err := book.Fire(context.Background(), x, "turn_start", "ghost", nil)
	require.ErrorIs(t, err, engine.ErrNoEntity)
}

func TestAbilityBook_TimedBindingsExpire(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryBindings()
	book := engine.NewAbilityBook(store)
	x, _ := newExecutor(t, engine.WithAbilities(book))

	run(t, x, "ME.turn_start(ME.block + 1) @2, ME.turn_end(ME.block + 1)")
	require.Len(t, book.Bindings(testutil.Fixtures.PlayerID), 2)

	expired, err := book.EndTurn(ctx, testutil.Fixtures.PlayerID)
	require.NoError(t, err)
	assert.Empty(t, expired)

	stored, err := store.LoadBindings(ctx, testutil.Fixtures.PlayerID)
	require.NoError(t, err)
	for _, b := range stored {
		if b.Trigger == "turn_start" {
			assert.Equal(t, 1, b.RemainingTurns)
		}
	}

	expired, err = book.EndTurn(ctx, testutil.Fixtures.PlayerID)
	require.NoError(t, err)
	assert.Len(t, expired, 1)

	remaining := book.Bindings(testutil.Fixtures.PlayerID)
	require.Len(t, remaining, 1)
	assert.Equal(t, "turn_end", remaining[0].Trigger)

	stored, err = store.LoadBindings(ctx, testutil.Fixtures.PlayerID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestAbilityBook_LoadAndRemove(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryBindings()

	first := engine.NewAbilityBook(store)
	b, err := first.Register(ctx, engine.Binding{OwnerID: "player", Trigger: "card_played", Effect: "ME.block + 1"})
	require.NoError(t, err)

	second := engine.NewAbilityBook(store)
	require.NoError(t, second.Load(ctx, "player"))
	require.Len(t, second.Bindings("player"), 1)
	assert.Equal(t, b.ID, second.Bindings("player")[0].ID)

	require.NoError(t, second.Remove(ctx, b.ID))
	assert.Empty(t, second.Bindings("player"))
	require.ErrorIs(t, second.Remove(ctx, b.ID), engine.ErrBindingNotFound)

	stored, err := store.LoadBindings(ctx, "player")
	require.NoError(t, err)
	assert.Empty(t, stored)
}
