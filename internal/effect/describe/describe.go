// Package describe renders parsed effect expressions as player-facing text.
// It reads the same registry as the parser and never touches entity state.
package describe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/udisondev/effectlang/internal/data"
	"github.com/udisondev/effectlang/internal/effect"
)

// Describer turns expressions into natural-language text.
type Describer struct {
	parser *effect.Parser
	reg    *data.Registry
}

// New creates a Describer. The parser is used to expand conditional branches
// and ability bodies.
func New(p *effect.Parser) *Describer {
	return &Describer{
		parser: p,
		reg:    p.Registry(),
	}
}

// String parses effect and describes every valid clause, one sentence each.
func (d *Describer) String(effectText string) string {
	return d.All(d.parser.Parse(effectText).Expressions)
}

// All describes a batch of expressions joined into sentences.
func (d *Describer) All(exprs []*effect.Expression) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, d.Describe(e))
	}
	return strings.Join(parts, ". ")
}

// Describe returns a non-empty description of e. Invalid expressions fall
// back to their raw text.
func (d *Describer) Describe(e *effect.Expression) string {
	if e == nil {
		return "Nothing"
	}
	if !e.Valid {
		return e.Raw
	}

	var s string
	switch e.Kind {
	case effect.KindConditional:
		s = d.conditional(e.Cond)
	case effect.KindAbility:
		s = d.ability(e)
	case effect.KindSelector:
		s = d.pile(e)
	case effect.KindPayload:
		s = d.payload(e)
	case effect.KindNarrate:
		s = fmt.Sprintf("Narrate: %q", effect.ValueText(e.Value))
	default:
		s = d.direct(e)
	}

	if e.HasDuration() {
		s += " for " + plural(e.Duration, "turn")
	}
	if s == "" {
		return e.Raw
	}
	return s
}

func (d *Describer) direct(e *effect.Expression) string {
	def, _ := d.reg.Attribute(e.Attribute)
	switch def.Category {
	case data.CategoryStatus:
		return d.status(e)
	case data.CategoryPile:
		return d.pile(e)
	}

	name := d.owner(e.Target) + " " + d.attributeName(e.Attribute)
	value := d.value(e.Value)
	switch e.Operator {
	case effect.OpAdd:
		return fmt.Sprintf("Increase %s by %s", name, value)
	case effect.OpSub:
		return fmt.Sprintf("Reduce %s by %s", name, value)
	case effect.OpMul:
		return fmt.Sprintf("Multiply %s by %s", name, value)
	case effect.OpDiv:
		return fmt.Sprintf("Divide %s by %s", name, value)
	case effect.OpSet:
		return fmt.Sprintf("Set %s to %s", name, value)
	}
	return e.Raw
}

func (d *Describer) status(e *effect.Expression) string {
	op, ok := e.Value.(effect.StatusOperand)
	if !ok {
		return e.Raw
	}
	who := d.object(e.Target)

	switch e.Operator {
	case effect.OpApply:
		return fmt.Sprintf("Apply %s %s to %s", d.value(op.Stacks), d.statusName(op.ID), who)
	case effect.OpSet:
		return fmt.Sprintf("Set %s on %s to %s", d.statusName(op.ID), who, d.value(op.Stacks))
	case effect.OpRemove:
		switch op.Bulk {
		case effect.BulkBuffs:
			return "Remove all buffs from " + who
		case effect.BulkDebuffs:
			return "Remove all debuffs from " + who
		case effect.BulkAll:
			return "Remove all statuses from " + who
		}
		return fmt.Sprintf("Remove %s from %s", d.statusName(op.ID), who)
	}
	return e.Raw
}

func (d *Describer) pile(e *effect.Expression) string {
	verb := d.attributeName(e.Attribute)
	count := d.value(e.Value)
	if e.Attribute == "reduce_cost" {
		return fmt.Sprintf("Reduce the cost of %s by %s", d.cards(e.Selector, ""), count)
	}
	if e.Operator == effect.OpSet {
		count = "exactly " + count
	}
	return fmt.Sprintf("%s %s", verb, d.cards(e.Selector, count))
}

func (d *Describer) cards(sel *effect.PileSelector, count string) string {
	if sel == nil {
		return strings.TrimSpace(count + " card(s)")
	}
	from := "your " + string(sel.Pile) + " pile"
	if sel.Pile == effect.PileHand {
		from = "your hand"
	}

	var b strings.Builder
	switch sel.Mode {
	case effect.SelectAll:
		b.WriteString("all cards")
	case effect.SelectChoose:
		b.WriteString(strings.TrimSpace(count + " card(s) of your choice"))
	default:
		b.WriteString(strings.TrimSpace(count + " " + string(sel.Mode) + " card(s)"))
	}
	b.WriteString(" from ")
	b.WriteString(from)
	return b.String()
}

func (d *Describer) payload(e *effect.Expression) string {
	p, ok := e.Value.(effect.StructuredPayload)
	if !ok {
		return e.Raw
	}
	name := d.humanize(p.CardID)
	if p.Raw != "" {
		if n := gjson.Get(p.Raw, "name"); n.Exists() && n.String() != "" {
			name = n.String()
		}
	}
	dest := "your hand"
	if e.Attribute == "add_to_deck" {
		dest = "your deck"
	}
	if p.Count > 1 {
		return fmt.Sprintf("Add %d %s to %s", p.Count, name, dest)
	}
	return fmt.Sprintf("Add %s to %s", name, dest)
}

func (d *Describer) ability(e *effect.Expression) string {
	when := d.humanize(e.Trigger)
	if t, ok := d.reg.Trigger(e.Trigger); ok && t.DisplayName != "" {
		when = t.DisplayName
	}

	body := d.String(effect.ValueText(e.Value))
	if body == "" {
		body = effect.ValueText(e.Value)
	}

	switch e.Target {
	case effect.TargetOpponent:
		return fmt.Sprintf("Enemy gains: %s, %s", when, lowerFirst(body))
	case effect.TargetBoth:
		return fmt.Sprintf("Both gain: %s, %s", when, lowerFirst(body))
	}
	return fmt.Sprintf("%s, %s", when, lowerFirst(body))
}

func (d *Describer) conditional(c *effect.Conditional) string {
	s := fmt.Sprintf("If %s: %s", d.Condition(c.Condition), d.branch(c.Then))
	if c.Else != nil {
		s += ". Otherwise: " + d.branch(*c.Else)
	}
	return s
}

func (d *Describer) branch(b effect.Branch) string {
	if s := d.All(b.Parse(d.parser).Expressions); s != "" {
		return s
	}
	return b.Text
}

var glyphs = strings.NewReplacer(
	">=", "≥",
	"<=", "≤",
	"!=", "≠",
	"==", "=",
	"&&", "and",
	"||", "or",
)

// Condition renders a condition with display names and comparison glyphs.
func (d *Describer) Condition(text string) string {
	return glyphs.Replace(d.substitute(text))
}

// value renders an operand, replacing reference tokens with display names.
func (d *Describer) value(v effect.Value) string {
	switch v := v.(type) {
	case nil:
		return "1"
	case effect.DynamicReference:
		return d.reference(v.Ref)
	case effect.ArithmeticExpression:
		return d.substitute(v.Text)
	}
	return effect.ValueText(v)
}

func (d *Describer) substitute(text string) string {
	matches := effect.ScanReferences(text)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m.Start])
		if d.known(m.Ref) {
			b.WriteString(d.reference(m.Ref))
		} else {
			b.WriteString(text[m.Start:m.End])
		}
		last = m.End
	}
	b.WriteString(text[last:])
	return b.String()
}

func (d *Describer) known(r effect.Reference) bool {
	if r.IsStacks() {
		return true
	}
	if _, ok := d.reg.Attribute(r.Name); ok {
		return true
	}
	_, ok := d.reg.Variable(r.Name)
	return ok
}

func (d *Describer) reference(r effect.Reference) string {
	if r.IsStacks() {
		return d.owner(r.Side) + " " + d.statusName(r.Status) + " stacks"
	}
	if r.Side == effect.TargetDefault {
		if v, ok := d.reg.Variable(r.Name); ok {
			if v.DisplayName != "" {
				return v.DisplayName
			}
			return d.humanize(v.ID)
		}
	}
	return d.owner(r.Side) + " " + d.attributeName(r.Name)
}

func (d *Describer) owner(t effect.Target) string {
	switch t {
	case effect.TargetOpponent:
		return "enemy"
	case effect.TargetBoth:
		return "each side's"
	}
	return "your"
}

func (d *Describer) object(t effect.Target) string {
	switch t {
	case effect.TargetOpponent:
		return "the enemy"
	case effect.TargetBoth:
		return "both sides"
	}
	return "yourself"
}

func (d *Describer) attributeName(id string) string {
	if a, ok := d.reg.Attribute(id); ok && a.DisplayName != "" {
		return a.DisplayName
	}
	return d.humanize(id)
}

func (d *Describer) statusName(id string) string {
	if s, ok := d.reg.Status(id); ok && s.DisplayName != "" {
		return s.DisplayName
	}
	return d.humanize(id)
}

// humanize title-cases an identifier: "strike_plus" -> "Strike Plus".
// Casers keep state, so one is made per call.
func (d *Describer) humanize(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
