package model

import "maps"

// Snapshot is a plain copy of an entity's state, used for persistence and
// for the CLI encounter files.
type Snapshot struct {
	ID        string             `yaml:"id" json:"id"`
	Name      string             `yaml:"name" json:"name"`
	Player    bool               `yaml:"player" json:"player"`
	Stats     map[string]float64 `yaml:"stats" json:"stats"`
	Modifiers map[string]float64 `yaml:"modifiers,omitempty" json:"modifiers,omitempty"`
	Timed     []StatModifier     `yaml:"timed,omitempty" json:"timed,omitempty"`
	Statuses  []StatusInstance   `yaml:"statuses,omitempty" json:"statuses,omitempty"`
}

// Snapshot copies the entity state.
func (e *Entity) Snapshot() Snapshot {
	e.mu.RLock()
	s := Snapshot{
		ID:        e.id,
		Name:      e.name,
		Player:    e.player,
		Stats:     maps.Clone(e.stats),
		Modifiers: maps.Clone(e.modifiers),
		Timed:     append([]StatModifier(nil), e.timed...),
	}
	e.mu.RUnlock()

	s.Statuses = e.statuses.All()
	return s
}

// Restore overwrites the entity state with s. The ID is kept.
func (e *Entity) Restore(s Snapshot) {
	e.mu.Lock()
	e.name = s.Name
	e.player = s.Player
	e.stats = make(map[string]float64, len(s.Stats))
	maps.Copy(e.stats, s.Stats)
	e.modifiers = make(map[string]float64, len(s.Modifiers))
	maps.Copy(e.modifiers, s.Modifiers)
	e.timed = append([]StatModifier(nil), s.Timed...)
	e.mu.Unlock()

	e.statuses.Replace(s.Statuses)
}

// FromSnapshot builds a new entity from s.
func FromSnapshot(s Snapshot) *Entity {
	e := NewEntity(s.ID, s.Name, s.Player, nil)
	e.Restore(s)
	return e
}
