package data

import "log/slog"

// attributeDefs is the built-in attribute table.
var attributeDefs = []AttributeDefinition{
	// Priority only orders mutations of one attribute family on one entity;
	// a modifier never shares a family with the value it scales.
	{ID: "damage_mult", Category: CategoryModifier, Type: TypeFloat, Min: 0, Max: 10, Default: 1, Priority: 10, DisplayName: "Damage multiplier"},
	{ID: "block_mult", Category: CategoryModifier, Type: TypeFloat, Min: 0, Max: 10, Default: 1, Priority: 10, DisplayName: "Block multiplier"},
	{ID: "lust_mult", Category: CategoryModifier, Type: TypeFloat, Min: 0, Max: 10, Default: 1, Priority: 10, DisplayName: "Lust multiplier"},
	{ID: "energy_regen", Category: CategoryModifier, Type: TypeInt, Min: -10, Max: 10, Priority: 10, DisplayName: "Energy per turn"},

	// Maxima before the values they cap.
	{ID: "max_hp", Category: CategoryMaximum, Type: TypeInt, Min: 1, Max: 9999, Priority: 20, DisplayName: "Max HP"},
	{ID: "max_lust", Category: CategoryMaximum, Type: TypeInt, Min: 1, Max: 9999, Priority: 20, DisplayName: "Max Lust"},
	{ID: "max_energy", Category: CategoryMaximum, Type: TypeInt, Min: 0, Max: 99, Priority: 20, DisplayName: "Max Energy"},

	{ID: "block", Category: CategoryBasic, Type: TypeInt, Min: 0, Max: 999, Priority: 40, DisplayName: "Block"},
	{ID: "hp", Category: CategoryBasic, Type: TypeInt, Min: 0, Max: 9999, MaxRef: "max_hp", Priority: 50, DisplayName: "HP"},
	{ID: "lust", Category: CategoryBasic, Type: TypeInt, Min: 0, Max: 9999, MaxRef: "max_lust", Priority: 50, DisplayName: "Lust"},
	{ID: "energy", Category: CategoryBasic, Type: TypeInt, Min: 0, Max: 99, Priority: 50, DisplayName: "Energy"},
	{ID: "gold", Category: CategoryBasic, Type: TypeInt, Min: 0, Max: 999999, Priority: 50, PlayerOnly: true, DisplayName: "Gold"},

	{ID: "status", Category: CategoryStatus, Type: TypeString, Priority: 60, DisplayName: "Status"},
	{ID: "ability", Category: CategoryAbility, Type: TypeString, Priority: 70, DisplayName: "Ability"},

	{ID: "draw", Category: CategoryPile, Type: TypeInt, Priority: 80, PlayerOnly: true, DisplayName: "Draw"},
	{ID: "discard", Category: CategoryPile, Type: TypeInt, Priority: 80, PlayerOnly: true, DisplayName: "Discard"},
	{ID: "exhaust", Category: CategoryPile, Type: TypeInt, Priority: 80, PlayerOnly: true, DisplayName: "Exhaust"},
	{ID: "add_to_hand", Category: CategoryPile, Type: TypePayload, Priority: 80, PlayerOnly: true, DisplayName: "Add to hand"},
	{ID: "add_to_deck", Category: CategoryPile, Type: TypePayload, Priority: 80, PlayerOnly: true, DisplayName: "Add to deck"},
	{ID: "reduce_cost", Category: CategoryPile, Type: TypeInt, Priority: 80, PlayerOnly: true, DisplayName: "Reduce cost"},
	{ID: "copy_card", Category: CategoryPile, Type: TypeInt, Priority: 80, PlayerOnly: true, DisplayName: "Copy"},
	{ID: "trigger_effect", Category: CategoryPile, Type: TypeInt, Priority: 80, PlayerOnly: true, DisplayName: "Trigger again"},

	{ID: "narrate", Category: CategoryNarrative, Type: TypeString, Priority: 90, DisplayName: "Narrate"},
}

var triggerDefs = []TriggerDefinition{
	{ID: "turn_start", DisplayName: "At the start of your turn", Description: "fires once when the owner's turn begins"},
	{ID: "turn_end", DisplayName: "At the end of your turn", Description: "fires once when the owner's turn ends"},
	{ID: "combat_start", DisplayName: "At the start of combat"},
	{ID: "combat_end", DisplayName: "At the end of combat"},
	{ID: "card_played", DisplayName: "Whenever you play a card"},
	{ID: "card_drawn", DisplayName: "Whenever you draw a card"},
	{ID: "card_discarded", DisplayName: "Whenever you discard a card"},
	{ID: "card_exhausted", DisplayName: "Whenever a card is exhausted"},
	{ID: "damage_taken", DisplayName: "Whenever you take damage"},
	{ID: "damage_dealt", DisplayName: "Whenever you deal damage"},
	{ID: "block_gained", DisplayName: "Whenever you gain Block"},
	{ID: "status_applied", DisplayName: "Whenever a status is applied to you"},
	{ID: "enemy_killed", DisplayName: "Whenever an enemy dies"},
	{ID: "death", DisplayName: "When you die"},
}

var statusDefs = []StatusDefinition{
	{ID: "poison", DisplayName: "Poison", Polarity: PolarityDebuff, TickEffect: "ME.hp - ME.stacks.poison, ME.status apply poison -1"},
	{ID: "burn", DisplayName: "Burn", Polarity: PolarityDebuff, TickEffect: "ME.hp - ME.stacks.burn"},
	{ID: "weak", DisplayName: "Weak", Polarity: PolarityDebuff},
	{ID: "vulnerable", DisplayName: "Vulnerable", Polarity: PolarityDebuff},
	{ID: "frail", DisplayName: "Frail", Polarity: PolarityDebuff},
	{ID: "stun", DisplayName: "Stun", Polarity: PolarityDebuff},
	{ID: "charmed", DisplayName: "Charmed", Polarity: PolarityDebuff, TickEffect: "ME.lust + ME.stacks.charmed"},
	{ID: "strength", DisplayName: "Strength", Polarity: PolarityBuff},
	{ID: "dexterity", DisplayName: "Dexterity", Polarity: PolarityBuff},
	{ID: "regen", DisplayName: "Regeneration", Polarity: PolarityBuff, TickEffect: "ME.hp + ME.stacks.regen, ME.status apply regen -1"},
	{ID: "ritual", DisplayName: "Ritual", Polarity: PolarityBuff, TickEffect: "ME.status apply strength ME.stacks.ritual"},
	{ID: "thorns", DisplayName: "Thorns", Polarity: PolarityBuff},
	{ID: "barricade", DisplayName: "Barricade", Polarity: PolarityBuff},
}

var variableDefs = []VariableDefinition{
	{ID: "energy_spent", DisplayName: "energy spent"},
	{ID: "cards_played", DisplayName: "cards played this turn"},
	{ID: "turn", DisplayName: "the turn number"},
	{ID: "damage_taken", DisplayName: "damage taken"},
	{ID: "x", DisplayName: "X"},
}

// DefaultRegistry builds the registry from the built-in tables.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(attributeDefs, triggerDefs, statusDefs, variableDefs)
	if err != nil {
		// Built-in tables are static; a failure here is a programming error.
		panic("data: invalid built-in registry: " + err.Error())
	}
	slog.Debug("registry built",
		"attributes", len(r.attributes),
		"triggers", len(r.triggers),
		"statuses", len(r.statuses))
	return r
}
