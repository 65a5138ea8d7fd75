package model

// ModType defines how a timed modifier is applied.
type ModType int8

const (
	ModAdd ModType = iota // additive (e.g. +1 energy_regen)
	ModMul                // multiplicative (e.g. x2 damage_mult)
)

func (t ModType) String() string {
	if t == ModMul {
		return "mul"
	}
	return "add"
}

// StatModifier is a temporary change to a modifier-map entry, created by an
// effect with a duration. Several modifiers can stack on the same stat.
type StatModifier struct {
	Stat      string  `yaml:"stat" json:"stat"`
	Type      ModType `yaml:"type" json:"type"`
	Value     float64 `yaml:"value" json:"value"`
	Remaining int     `yaml:"remaining" json:"remaining"` // turns left
}

// effective folds modifiers for stat onto base.
// Additive bonuses are summed first, then multiplicative ones are applied.
func effective(base float64, stat string, mods []StatModifier) float64 {
	add := 0.0
	mul := 1.0
	for _, m := range mods {
		if m.Stat != stat {
			continue
		}
		switch m.Type {
		case ModAdd:
			add += m.Value
		case ModMul:
			mul *= m.Value
		}
	}
	return (base + add) * mul
}
