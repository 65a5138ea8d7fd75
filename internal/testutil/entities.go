package testutil

import (
	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/model"
)

// Fixtures содержит стандартные значения для тестовых сущностей.
var Fixtures = struct {
	PlayerID string
	EnemyID  string

	PlayerStats map[string]float64
	EnemyStats  map[string]float64
}{
	PlayerID: "player",
	EnemyID:  "enemy",
	PlayerStats: map[string]float64{
		"hp": 50, "max_hp": 80,
		"lust": 0, "max_lust": 100,
		"energy": 3, "max_energy": 3,
		"block": 0, "gold": 10,
	},
	EnemyStats: map[string]float64{
		"hp": 40, "max_hp": 40,
		"lust": 0, "max_lust": 60,
		"block": 0,
	},
}

// NewPlayer creates the fixture player.
func NewPlayer() *model.Entity {
	return model.NewEntity(Fixtures.PlayerID, "Hero", true, Fixtures.PlayerStats)
}

// NewEnemy creates the fixture enemy.
func NewEnemy() *model.Entity {
	return model.NewEntity(Fixtures.EnemyID, "Slime", false, Fixtures.EnemyStats)
}

// NewEncounter pairs a fresh player and enemy.
func NewEncounter() *engine.Encounter {
	return &engine.Encounter{P: NewPlayer(), E: NewEnemy()}
}
