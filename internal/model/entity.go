package model

import (
	"maps"
	"sync"
)

// Entity: живой участник боя: игрок или противник.
// Хранит числовые атрибуты (hp, lust, energy, block и их максимумы),
// карту модификаторов и список статусов.
//
// Bounds are not known here; callers clamp with the attribute definition
// before writing (see SetClamped).
type Entity struct {
	mu sync.RWMutex

	id     string
	name   string
	player bool

	stats     map[string]float64
	modifiers map[string]float64
	timed     []StatModifier

	statuses *StatusList
}

// NewEntity создаёт сущность с указанными начальными атрибутами.
func NewEntity(id, name string, player bool, stats map[string]float64) *Entity {
	e := &Entity{
		id:        id,
		name:      name,
		player:    player,
		stats:     make(map[string]float64, len(stats)),
		modifiers: make(map[string]float64),
		statuses:  NewStatusList(),
	}
	maps.Copy(e.stats, stats)
	return e
}

// ID возвращает идентификатор сущности.
func (e *Entity) ID() string { return e.id }

// Name возвращает отображаемое имя.
func (e *Entity) Name() string { return e.name }

// IsPlayer reports whether player-only attributes apply to the entity.
func (e *Entity) IsPlayer() bool { return e.player }

// Statuses returns the entity's status list.
func (e *Entity) Statuses() *StatusList { return e.statuses }

// Stat returns a basic or maximum attribute.
func (e *Entity) Stat(name string) (float64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.stats[name]
	return v, ok
}

// StatOr returns the attribute or def when unset.
func (e *Entity) StatOr(name string, def float64) float64 {
	if v, ok := e.Stat(name); ok {
		return v
	}
	return def
}

// SetStat stores v without clamping.
func (e *Entity) SetStat(name string, v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats[name] = v
}

// BaseModifier returns the stored modifier without timed bonuses.
func (e *Entity) BaseModifier(name string) (float64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.modifiers[name]
	return v, ok
}

// Modifier returns the effective modifier: base value plus timed bonuses.
// def is used as base when the modifier was never set.
func (e *Entity) Modifier(name string, def float64) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	base, ok := e.modifiers[name]
	if !ok {
		base = def
	}
	return effective(base, name, e.timed)
}

// SetModifier stores the base value of a modifier.
func (e *Entity) SetModifier(name string, v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modifiers[name] = v
}

// AddTimedModifier attaches a modifier that expires after m.Remaining turns.
func (e *Entity) AddTimedModifier(m StatModifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timed = append(e.timed, m)
}

// TimedModifiers returns a copy of the active timed modifiers.
func (e *Entity) TimedModifiers() []StatModifier {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]StatModifier(nil), e.timed...)
}

// TickModifiers decrements timed modifiers by one turn and drops the expired
// ones. Returns how many expired.
func (e *Entity) TickModifiers() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.timed[:0]
	expired := 0
	for _, m := range e.timed {
		m.Remaining--
		if m.Remaining <= 0 {
			expired++
			continue
		}
		kept = append(kept, m)
	}
	e.timed = kept
	return expired
}
