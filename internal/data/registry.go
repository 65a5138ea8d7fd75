package data

import (
	"fmt"
	"math"
	"sort"
)

// AttributeCategory groups attributes by how the executor applies them.
type AttributeCategory string

const (
	CategoryBasic     AttributeCategory = "basic"     // hp, lust, energy, block
	CategoryMaximum   AttributeCategory = "maximum"   // max_hp, max_lust, max_energy
	CategoryModifier  AttributeCategory = "modifier"  // entries of the modifier map
	CategoryStatus    AttributeCategory = "status"    // status apply/remove
	CategoryAbility   AttributeCategory = "ability"   // trigger bindings
	CategoryPile      AttributeCategory = "pile"      // delegated to the pile manager
	CategoryNarrative AttributeCategory = "narrative" // delegated to the narrator
)

func (c AttributeCategory) valid() bool {
	switch c {
	case CategoryBasic, CategoryMaximum, CategoryModifier, CategoryStatus,
		CategoryAbility, CategoryPile, CategoryNarrative:
		return true
	}
	return false
}

// ValueType is the declared data type of an attribute value.
type ValueType string

const (
	TypeInt     ValueType = "int"
	TypeFloat   ValueType = "float"
	TypeString  ValueType = "string"
	TypePayload ValueType = "payload"
)

// AttributeDefinition describes one attribute addressable by effect strings.
type AttributeDefinition struct {
	ID          string            `yaml:"id"`
	Category    AttributeCategory `yaml:"category"`
	Type        ValueType         `yaml:"type"`
	Min         float64           `yaml:"min"`
	Max         float64           `yaml:"max"`
	Default     float64           `yaml:"default"`  // value of an unset stat
	MaxRef      string            `yaml:"max_ref"`  // attribute whose live value caps this one
	Priority    int               `yaml:"priority"` // lower runs first within a conflict
	PlayerOnly  bool              `yaml:"player_only"`
	DisplayName string            `yaml:"display_name"`
}

// Numeric reports whether the attribute is stored as a number on the entity.
func (a AttributeDefinition) Numeric() bool {
	switch a.Category {
	case CategoryBasic, CategoryMaximum, CategoryModifier:
		return true
	}
	return false
}

// Integral reports whether values are rounded to whole numbers.
func (a AttributeDefinition) Integral() bool {
	return a.Type == TypeInt
}

// Clamp bounds v to [Min, Max]. When hasDynMax is set, dynMax (the live value
// of MaxRef) caps the value as well.
func (a AttributeDefinition) Clamp(v, dynMax float64, hasDynMax bool) float64 {
	hi := a.Max
	if hasDynMax && dynMax < hi {
		hi = dynMax
	}
	if v > hi {
		v = hi
	}
	if v < a.Min {
		v = a.Min
	}
	return v
}

// Round applies the attribute's numeric type: nearest integer for int attributes.
func (a AttributeDefinition) Round(v float64) float64 {
	if a.Integral() {
		return math.Round(v)
	}
	return v
}

// TriggerDefinition names an event that fires registered abilities.
// Membership in the registry is the only validity test for trigger names.
type TriggerDefinition struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
}

// Polarity classifies a status for bulk removal.
type Polarity string

const (
	PolarityBuff    Polarity = "buff"
	PolarityDebuff  Polarity = "debuff"
	PolarityNeutral Polarity = "neutral"
)

// StatusDefinition describes a status effect.
// TickEffect is an effect string run for the bearer on every status tick.
type StatusDefinition struct {
	ID          string   `yaml:"id"`
	DisplayName string   `yaml:"display_name"`
	Polarity    Polarity `yaml:"polarity"`
	TickEffect  string   `yaml:"tick_effect"`
}

// VariableDefinition names a value supplied by the caller at execution time
// (e.g. energy spent to play the card).
type VariableDefinition struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
}

// Registry is an immutable set of vocabulary tables shared by the parser,
// the evaluator, the executor and the description generator.
// Build it once and pass it by pointer.
type Registry struct {
	attributes map[string]AttributeDefinition
	triggers   map[string]TriggerDefinition
	statuses   map[string]StatusDefinition
	variables  map[string]VariableDefinition

	// bounded maps a maximum attribute to the attribute it caps (max_hp -> hp).
	bounded map[string]string
}

// NewRegistry validates the tables and builds a Registry.
// Later entries with the same ID replace earlier ones.
func NewRegistry(attrs []AttributeDefinition, triggers []TriggerDefinition, statuses []StatusDefinition, vars []VariableDefinition) (*Registry, error) {
	r := &Registry{
		attributes: make(map[string]AttributeDefinition, len(attrs)),
		triggers:   make(map[string]TriggerDefinition, len(triggers)),
		statuses:   make(map[string]StatusDefinition, len(statuses)),
		variables:  make(map[string]VariableDefinition, len(vars)),
		bounded:    make(map[string]string),
	}

	for _, a := range attrs {
		if a.ID == "" {
			return nil, fmt.Errorf("attribute with empty id")
		}
		if !a.Category.valid() {
			return nil, fmt.Errorf("attribute %s: unknown category %q", a.ID, a.Category)
		}
		if a.Type == "" {
			a.Type = TypeInt
		}
		if a.Numeric() && a.Max < a.Min {
			return nil, fmt.Errorf("attribute %s: max %v below min %v", a.ID, a.Max, a.Min)
		}
		r.attributes[a.ID] = a
	}
	for _, a := range r.attributes {
		if a.MaxRef == "" {
			continue
		}
		if _, ok := r.attributes[a.MaxRef]; !ok {
			return nil, fmt.Errorf("attribute %s: max_ref %s is not defined", a.ID, a.MaxRef)
		}
		r.bounded[a.MaxRef] = a.ID
	}

	for _, t := range triggers {
		if t.ID == "" {
			return nil, fmt.Errorf("trigger with empty id")
		}
		r.triggers[t.ID] = t
	}
	for _, s := range statuses {
		if s.ID == "" {
			return nil, fmt.Errorf("status with empty id")
		}
		if s.Polarity == "" {
			s.Polarity = PolarityNeutral
		}
		r.statuses[s.ID] = s
	}
	for _, v := range vars {
		if v.ID == "" {
			return nil, fmt.Errorf("variable with empty id")
		}
		if _, clash := r.attributes[v.ID]; clash {
			return nil, fmt.Errorf("variable %s shadows an attribute", v.ID)
		}
		r.variables[v.ID] = v
	}

	return r, nil
}

// Attribute returns the definition for id.
func (r *Registry) Attribute(id string) (AttributeDefinition, bool) {
	a, ok := r.attributes[id]
	return a, ok
}

// Trigger returns the definition for id.
func (r *Registry) Trigger(id string) (TriggerDefinition, bool) {
	t, ok := r.triggers[id]
	return t, ok
}

// Status returns the definition for id. Unknown ids yield a neutral
// definition and false.
func (r *Registry) Status(id string) (StatusDefinition, bool) {
	s, ok := r.statuses[id]
	if !ok {
		return StatusDefinition{ID: id, Polarity: PolarityNeutral}, false
	}
	return s, true
}

// Variable returns the definition for a caller-supplied variable.
func (r *Registry) Variable(id string) (VariableDefinition, bool) {
	v, ok := r.variables[id]
	return v, ok
}

// ConflictKey returns the key grouping attributes whose mutations interact:
// a maximum attribute shares the key of the attribute it bounds.
func (r *Registry) ConflictKey(id string) string {
	if b, ok := r.bounded[id]; ok {
		return b
	}
	return id
}

// BoundedBy returns the attribute capped by the maximum attribute id.
func (r *Registry) BoundedBy(id string) (string, bool) {
	b, ok := r.bounded[id]
	return b, ok
}

// Attributes returns all attribute definitions sorted by ID.
func (r *Registry) Attributes() []AttributeDefinition {
	out := make([]AttributeDefinition, 0, len(r.attributes))
	for _, a := range r.attributes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Triggers returns all trigger definitions sorted by ID.
func (r *Registry) Triggers() []TriggerDefinition {
	out := make([]TriggerDefinition, 0, len(r.triggers))
	for _, t := range r.triggers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Statuses returns all status definitions sorted by ID.
func (r *Registry) Statuses() []StatusDefinition {
	out := make([]StatusDefinition, 0, len(r.statuses))
	for _, s := range r.statuses {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Variables returns all variable definitions sorted by ID.
func (r *Registry) Variables() []VariableDefinition {
	out := make([]VariableDefinition, 0, len(r.variables))
	for _, v := range r.variables {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
