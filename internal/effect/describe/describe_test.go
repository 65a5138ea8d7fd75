package describe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/effectlang/internal/data"
	"github.com/udisondev/effectlang/internal/effect"
)

func newDescriber(t *testing.T) (*Describer, *effect.Parser) {
	t.Helper()
	p := effect.NewParser(data.DefaultRegistry())
	return New(p), p
}

func TestDescribe(t *testing.T) {
	d, _ := newDescriber(t)

	tests := []struct {
		effect string
		want   string
	}{
		{"OP.hp - 10", "Reduce enemy HP by 10"},
		{"ME.block + 5", "Increase your Block by 5"},
		{"energy = 3", "Set your Energy to 3"},
		{"ALL.block + 2", "Increase each side's Block by 2"},
		{"ME.damage_mult * 2 @2", "Multiply your Damage multiplier by 2 for 2 turns"},
		{"OP.hp - ME.stacks.strength", "Reduce enemy HP by your Strength stacks"},
		{"OP.hp - energy_spent * 3", "Reduce enemy HP by energy spent * 3"},
		{"OP.status apply weak 2", "Apply 2 Weak to the enemy"},
		{"status remove poison", "Remove Poison from yourself"},
		{"OP.status remove all buffs", "Remove all buffs from the enemy"},
		{"status remove everything", "Remove all statuses from yourself"},
		{"OP.status apply hexed 1 @1", "Apply 1 Hexed to the enemy for 1 turn"},
		{"draw + 2", "Draw 2 leftmost card(s) from your draw pile"},
		{"discard.hand_choose 1", "Discard 1 card(s) of your choice from your hand"},
		{"exhaust.discard_all", "Exhaust all cards from your discard pile"},
		{"reduce_cost - 1", "Reduce the cost of all cards from your hand by 1"},
		{"add_to_hand strike_plus 2", "Add 2 Strike Plus to your hand"},
		{`add_to_deck {"id":"wound","name":"Deep Wound"}`, "Add Deep Wound to your deck"},
		{`narrate "The door creaks."`, `Narrate: "The door creaks."`},
		{"turn_start(ME.hp + 3)", "At the start of your turn, increase your HP by 3"},
		{"OP.turn_end(ME.block + 4)", "Enemy gains: At the end of your turn, increase your Block by 4"},
	}

	for _, tt := range tests {
		t.Run(tt.effect, func(t *testing.T) {
			assert.Equal(t, tt.want, d.String(tt.effect))
		})
	}
}

func TestDescribe_Conditional(t *testing.T) {
	d, _ := newDescriber(t)

	got := d.String("if[ME.energy >= 2][OP.hp - 20]else[OP.hp - 10]")
	assert.Equal(t, "If your Energy ≥ 2: Reduce enemy HP by 20. Otherwise: Reduce enemy HP by 10", got)

	got = d.String("if[ME.energy > 1][if[OP.hp <= 15][OP.hp - 999]else[OP.hp - 10]]else[ME.block + 5]")
	assert.Equal(t,
		"If your Energy > 1: If enemy HP ≤ 15: Reduce enemy HP by 999. Otherwise: Reduce enemy HP by 10. Otherwise: Increase your Block by 5",
		got)

	assert.Equal(t, "your HP ≠ 3 and enemy Block = 0", d.Condition("ME.hp != 3 && OP.block == 0"))
}

func TestDescribe_EveryValidExpressionIsNonEmpty(t *testing.T) {
	d, p := newDescriber(t)

	res := p.Parse(`OP.hp - 10, ME.block + 5, status apply poison 2, turn_start(ME.hp + 3),
		discard.hand_leftmost 2, add_to_hand strike, narrate "x", if[ME.hp > 1][OP.hp - 1],
		ME.max_hp + 5, copy_card.random, trigger_effect + 1, ME.gold + 10`)
	require.Zero(t, res.DroppedCount(), res.Err())
	for _, e := range res.Expressions {
		assert.NotEmpty(t, d.Describe(e), e.Raw)
	}
}

func TestDescribe_InvalidFallsBackToRaw(t *testing.T) {
	d, p := newDescriber(t)

	e := p.ParseClause("OP.mana - 1")
	require.False(t, e.Valid)
	assert.Equal(t, "OP.mana - 1", d.Describe(e))
	assert.Equal(t, "Nothing", d.Describe(nil))
}
