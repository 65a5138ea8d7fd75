package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/effectlang/internal/data"
	"github.com/udisondev/effectlang/internal/effect"
	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/model"
	"github.com/udisondev/effectlang/internal/testutil"
)

func newExecutor(t *testing.T, opts ...engine.Option) (*engine.Executor, *engine.Encounter) {
	t.Helper()
	enc := testutil.NewEncounter()
	p := effect.NewParser(data.DefaultRegistry())
	return engine.New(p, enc, opts...), enc
}

func run(t *testing.T, x *engine.Executor, text string) {
	t.Helper()
	require.NoError(t, x.ExecuteString(context.Background(), text, true, nil))
}

func stat(t *testing.T, e *model.Entity, name string) float64 {
	t.Helper()
	v, ok := e.Stat(name)
	require.True(t, ok, "stat %s not set", name)
	return v
}

func TestExecute_DirectMutations(t *testing.T) {
	x, enc := newExecutor(t)

	run(t, x, "OP.hp - 10, ME.block + 5")

	assert.Equal(t, 30.0, stat(t, enc.E, "hp"))
	assert.Equal(t, 5.0, stat(t, enc.P, "block"))
	assert.Equal(t, 50.0, stat(t, enc.P, "hp"))
}

func TestExecute_EnemySourceSwapsSides(t *testing.T) {
	x, enc := newExecutor(t)

	require.NoError(t, x.ExecuteString(context.Background(), "OP.hp - 10, ME.block + 3", false, nil))

	assert.Equal(t, 40.0, stat(t, enc.P, "hp"))
	assert.Equal(t, 3.0, stat(t, enc.E, "block"))
}

func TestExecute_Clamping(t *testing.T) {
	tests := []struct {
		name    string
		effect  string
		attr    string
		onEnemy bool
		want    float64
	}{
		{"hp floors at zero", "OP.hp - 999", "hp", true, 0},
		{"hp capped by live max", "ME.hp + 100", "hp", false, 80},
		{"block floors at zero", "ME.block - 7", "block", false, 0},
		{"multiply rounds int", "ME.hp * 0.25", "hp", false, 13},
		{"set", "ME.energy = 1", "energy", false, 1},
		{"divide by zero keeps value", "ME.hp / 0", "hp", false, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, enc := newExecutor(t)
			run(t, x, tt.effect)

			ent := enc.P
			if tt.onEnemy {
				ent = enc.E
			}
			assert.Equal(t, tt.want, stat(t, ent, tt.attr))
		})
	}
}

func TestExecute_LoweringMaximumClampsCurrent(t *testing.T) {
	x, enc := newExecutor(t)

	run(t, x, "ME.max_hp = 30")

	assert.Equal(t, 30.0, stat(t, enc.P, "max_hp"))
	assert.Equal(t, 30.0, stat(t, enc.P, "hp"))
}

func TestExecute_PriorityOrdersConflictingMutations(t *testing.T) {
	x, enc := newExecutor(t)

	// max_hp runs first, so the heal is not capped at the old maximum.
	run(t, x, "ME.hp + 40, ME.max_hp + 20")

	assert.Equal(t, 100.0, stat(t, enc.P, "max_hp"))
	assert.Equal(t, 90.0, stat(t, enc.P, "hp"))
}

func TestExecute_PriorityOrdersAllAgainstSingleSide(t *testing.T) {
	x, enc := newExecutor(t)

	// The opponent half of ALL.max_hp conflicts with OP.hp and runs first.
	run(t, x, "OP.hp + 20, ALL.max_hp + 20")

	assert.Equal(t, 60.0, stat(t, enc.E, "max_hp"))
	assert.Equal(t, 60.0, stat(t, enc.E, "hp"))
	assert.Equal(t, 100.0, stat(t, enc.P, "max_hp"))
}

func TestExecute_AllResolvesOperandOnce(t *testing.T) {
	x, enc := newExecutor(t)

	run(t, x, "ME.block + 2, ALL.block + ME.block")

	assert.Equal(t, 4.0, stat(t, enc.P, "block"))
	assert.Equal(t, 2.0, stat(t, enc.E, "block"))
}

func TestExecute_AllTargetsBothSides(t *testing.T) {
	x, enc := newExecutor(t)

	run(t, x, "ALL.block + 5")

	assert.Equal(t, 5.0, stat(t, enc.P, "block"))
	assert.Equal(t, 5.0, stat(t, enc.E, "block"))
}

func TestExecute_DynamicValuesReadLiveState(t *testing.T) {
	x, enc := newExecutor(t)

	run(t, x, "ME.block + 5, OP.hp - ME.block")

	assert.Equal(t, 35.0, stat(t, enc.E, "hp"))
}

func TestExecute_ContextVariables(t *testing.T) {
	x, enc := newExecutor(t)
	ectx := engine.NewContext(map[string]float64{"energy_spent": 3})

	require.NoError(t, x.ExecuteString(context.Background(), "OP.hp - energy_spent * 2", true, ectx))

	assert.Equal(t, 34.0, stat(t, enc.E, "hp"))
}

func TestExecute_Conditional(t *testing.T) {
	const text = "if[ME.energy >= 3][ME.block + 10]else[ME.block + 1]"

	t.Run("then branch", func(t *testing.T) {
		x, enc := newExecutor(t)
		run(t, x, text)
		assert.Equal(t, 10.0, stat(t, enc.P, "block"))
	})

	t.Run("else branch", func(t *testing.T) {
		x, enc := newExecutor(t)
		enc.P.SetStat("energy", 1)
		run(t, x, text)
		assert.Equal(t, 1.0, stat(t, enc.P, "block"))
	})

	t.Run("false without else", func(t *testing.T) {
		x, enc := newExecutor(t)
		run(t, x, "if[OP.hp > 100][ME.block + 10]")
		assert.Equal(t, 0.0, stat(t, enc.P, "block"))
	})

	t.Run("branch sees earlier mutations", func(t *testing.T) {
		x, enc := newExecutor(t)
		run(t, x, "ME.block + 4, if[ME.block == 4][OP.hp - 4]")
		assert.Equal(t, 36.0, stat(t, enc.E, "hp"))
	})
}

func TestExecute_DepthGuard(t *testing.T) {
	const nested = "if[1][if[1][ME.block + 1]]"

	x, _ := newExecutor(t, engine.WithConfig(engine.Config{MaxDepth: 1}))
	err := x.ExecuteString(context.Background(), nested, true, nil)
	require.ErrorIs(t, err, engine.ErrDepthExceeded)

	x, enc := newExecutor(t, engine.WithConfig(engine.Config{MaxDepth: 2}))
	run(t, x, nested)
	assert.Equal(t, 1.0, stat(t, enc.P, "block"))
}

func TestExecute_PlayerOnlySkippedForEnemy(t *testing.T) {
	x, enc := newExecutor(t)

	require.NoError(t, x.ExecuteString(context.Background(), "ME.gold + 5", false, nil))

	_, ok := enc.E.Stat("gold")
	assert.False(t, ok)
	assert.Equal(t, 10.0, stat(t, enc.P, "gold"))
}

func TestExecute_Modifiers(t *testing.T) {
	t.Run("base value", func(t *testing.T) {
		x, enc := newExecutor(t)
		run(t, x, "ME.damage_mult + 0.5")
		assert.InDelta(t, 1.5, enc.P.Modifier("damage_mult", 1), 1e-9)
	})

	t.Run("timed", func(t *testing.T) {
		x, enc := newExecutor(t)
		run(t, x, "ME.damage_mult * 2 @2")

		assert.InDelta(t, 2.0, enc.P.Modifier("damage_mult", 1), 1e-9)
		_, ok := enc.P.BaseModifier("damage_mult")
		assert.False(t, ok)
		require.Len(t, enc.P.TimedModifiers(), 1)
		assert.Equal(t, 2, enc.P.TimedModifiers()[0].Remaining)
	})
}

func TestExecute_Statuses(t *testing.T) {
	t.Run("stacks merge", func(t *testing.T) {
		x, enc := newExecutor(t)
		run(t, x, "OP.status apply poison 2")
		run(t, x, "OP.status apply poison 2")
		assert.Equal(t, 4, enc.E.Statuses().Stacks("poison"))

		run(t, x, "OP.status remove poison")
		assert.Equal(t, 0, enc.E.Statuses().Stacks("poison"))
		assert.Equal(t, 0, enc.E.Statuses().Len())
	})

	t.Run("duration", func(t *testing.T) {
		x, enc := newExecutor(t)
		run(t, x, "OP.status apply weak 1 @2")
		inst, ok := enc.E.Statuses().Get("weak")
		require.True(t, ok)
		assert.Equal(t, 2, inst.Duration)
	})

	t.Run("set", func(t *testing.T) {
		x, enc := newExecutor(t)
		run(t, x, "ME.status apply strength 5, ME.status = strength 2")
		assert.Equal(t, 2, enc.P.Statuses().Stacks("strength"))
	})

	t.Run("bulk removal by polarity", func(t *testing.T) {
		x, enc := newExecutor(t)
		run(t, x, "ME.status apply poison 3, ME.status apply strength 2, ME.status apply mystery 1")
		run(t, x, "ME.status remove all debuffs")

		assert.Equal(t, 0, enc.P.Statuses().Stacks("poison"))
		assert.Equal(t, 2, enc.P.Statuses().Stacks("strength"))
		assert.Equal(t, 1, enc.P.Statuses().Stacks("mystery"))

		run(t, x, "ME.status remove everything")
		assert.Equal(t, 0, enc.P.Statuses().Len())
	})

	t.Run("removed status reads zero afterwards", func(t *testing.T) {
		x, enc := newExecutor(t)
		run(t, x, "OP.status apply poison 3")
		run(t, x, "OP.status remove poison, OP.hp - OP.stacks.poison")
		assert.Equal(t, 40.0, stat(t, enc.E, "hp"))
	})
}

func TestExecute_Narration(t *testing.T) {
	narrator := &testutil.EchoNarrator{}
	x, _ := newExecutor(t, engine.WithNarrator(narrator))
	ectx := engine.NewContext(nil)

	require.NoError(t, x.ExecuteString(context.Background(), `narrate "The slime wobbles"`, true, ectx))

	assert.Equal(t, []string{"The slime wobbles"}, narrator.Prompts)
	assert.Equal(t, []string{"~ The slime wobbles ~"}, ectx.Narration)
}

func TestExecute_MissingCollaborator(t *testing.T) {
	tests := []struct {
		name   string
		effect string
		want   error
	}{
		{"narrator", `narrate "hi"`, engine.ErrNoNarrator},
		{"piles", "ME.draw + 1", engine.ErrNoPileManager},
		{"abilities", "ME.turn_start(ME.block + 1)", engine.ErrNoAbilitySink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, _ := newExecutor(t)
			err := x.ExecuteString(context.Background(), tt.effect, true, nil)
			require.ErrorIs(t, err, tt.want)

			var execErr *engine.ExecError
			require.ErrorAs(t, err, &execErr)
			assert.Equal(t, tt.effect, execErr.Fragment)
		})
	}
}

func TestExecute_StopsAtFirstFailure(t *testing.T) {
	x, enc := newExecutor(t)

	err := x.ExecuteString(context.Background(), `ME.block + 2, narrate "hi", ME.block + 3`, true, nil)
	require.Error(t, err)

	// mutations before the failure are kept
	assert.Equal(t, 2.0, stat(t, enc.P, "block"))
}

func TestExecute_Strict(t *testing.T) {
	const text = "ME.block + 5, ME.nonsense + 1"

	x, enc := newExecutor(t)
	run(t, x, text)
	assert.Equal(t, 5.0, stat(t, enc.P, "block"))

	x, enc = newExecutor(t, engine.WithConfig(engine.Config{Strict: true}))
	err := x.ExecuteString(context.Background(), text, true, nil)
	require.ErrorIs(t, err, engine.ErrParse)

	var parseErr *effect.ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 0.0, stat(t, enc.P, "block"))
}

func TestExecute_CancelledContext(t *testing.T) {
	x, enc := newExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := x.ExecuteString(ctx, "OP.hp - 10", true, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 40.0, stat(t, enc.E, "hp"))
}

func TestExecute_Piles(t *testing.T) {
	t.Run("default selector", func(t *testing.T) {
		piles := testutil.NewMockPiles()
		x, _ := newExecutor(t, engine.WithPiles(piles))
		run(t, x, "ME.draw + 2")

		ops := piles.Ops()
		require.Len(t, ops, 1)
		assert.Equal(t, engine.PileDraw, ops[0].Kind)
		assert.Equal(t, testutil.Fixtures.PlayerID, ops[0].OwnerID)
		assert.Equal(t, effect.PileSelector{Pile: effect.PileDraw, Mode: effect.SelectLeftmost}, ops[0].Selector)
		assert.Equal(t, 2, ops[0].Count)
	})

	t.Run("reduce cost of every card", func(t *testing.T) {
		piles := testutil.NewMockPiles()
		x, _ := newExecutor(t, engine.WithPiles(piles))
		run(t, x, "ME.reduce_cost + 1")

		ops := piles.Ops()
		require.Len(t, ops, 1)
		assert.Equal(t, 1, ops[0].Amount)
		assert.Equal(t, 0, ops[0].Count)
	})

	t.Run("payload", func(t *testing.T) {
		piles := testutil.NewMockPiles()
		x, _ := newExecutor(t, engine.WithPiles(piles))
		run(t, x, `add_to_hand {"id":"shiv","cost":0} 2`)

		ops := piles.Ops()
		require.Len(t, ops, 1)
		assert.Equal(t, engine.PileAddToHand, ops[0].Kind)
		assert.Equal(t, "shiv", ops[0].CardID)
		assert.Equal(t, 2, ops[0].Count)
		assert.JSONEq(t, `{"id":"shiv","cost":0}`, ops[0].Payload)
	})

	t.Run("enemy source skips player-only piles", func(t *testing.T) {
		piles := testutil.NewMockPiles()
		x, _ := newExecutor(t, engine.WithPiles(piles))
		require.NoError(t, x.ExecuteString(context.Background(), "ME.draw + 2", false, nil))
		assert.Empty(t, piles.Ops())
	})

	t.Run("pile manager error", func(t *testing.T) {
		piles := testutil.NewMockPiles()
		piles.Err = testutil.ErrSimulated
		x, _ := newExecutor(t, engine.WithPiles(piles))

		err := x.ExecuteString(context.Background(), "ME.draw + 1", true, nil)
		var execErr *engine.ExecError
		require.ErrorAs(t, err, &execErr)
		require.ErrorIs(t, err, testutil.ErrSimulated)
		assert.Equal(t, "ME.draw + 1", execErr.Fragment)
	})
}

func TestExecute_InteractiveChoice(t *testing.T) {
	cards := []engine.Card{{ID: "c1", Name: "Strike"}, {ID: "c2", Name: "Defend"}}

	t.Run("chosen cards are passed on", func(t *testing.T) {
		piles := testutil.NewMockPiles()
		piles.SetCards(effect.PileHand, cards...)
		chooser := &testutil.FirstChooser{}
		x, _ := newExecutor(t, engine.WithPiles(piles), engine.WithChooser(chooser))

		run(t, x, "discard.hand_choose + 1")

		ops := piles.Ops()
		require.Len(t, ops, 1)
		assert.Equal(t, cards[:1], ops[0].Cards)
		require.Len(t, chooser.Prompts, 1)
	})

	t.Run("cancel skips the rest", func(t *testing.T) {
		piles := testutil.NewMockPiles()
		piles.SetCards(effect.PileHand, cards...)
		x, enc := newExecutor(t, engine.WithPiles(piles), engine.WithChooser(&testutil.FirstChooser{Cancel: true}))

		err := x.ExecuteString(context.Background(), "discard.hand_choose + 1, ME.block + 5", true, nil)
		require.ErrorIs(t, err, engine.ErrCancelled)

		var execErr *engine.ExecError
		assert.False(t, errors.As(err, &execErr))
		assert.Empty(t, piles.Ops())
		assert.Equal(t, 0.0, stat(t, enc.P, "block"))
	})

	t.Run("no candidates", func(t *testing.T) {
		piles := testutil.NewMockPiles()
		chooser := &testutil.FirstChooser{}
		x, _ := newExecutor(t, engine.WithPiles(piles), engine.WithChooser(chooser))

		run(t, x, "discard.hand_choose + 1")

		assert.Empty(t, piles.Ops())
		assert.Empty(t, chooser.Prompts)
	})
}
