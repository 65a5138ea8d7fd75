// Package eval resolves dynamic effect values against live entity state.
//
// Reference tokens are replaced with freshly read numbers, the resulting
// text is checked against a character whitelist and then computed by a small
// arithmetic calculator. Nothing is cached between calls.
package eval

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/udisondev/effectlang/internal/effect"
)

// Scope reads live values for one evaluation. Sides are relative to the
// source of the effect: TargetSelf is the entity the effect belongs to,
// TargetOpponent the other one.
type Scope interface {
	// Stat returns a numeric attribute of the entity on side.
	Stat(side effect.Target, name string) (float64, bool)
	// Stacks returns the stack count of a status, 0 when absent.
	Stacks(side effect.Target, statusID string) float64
	// Var returns a caller-supplied context value.
	Var(name string) (float64, bool)
}

// Evaluator resolves values and conditions against a Scope.
type Evaluator struct {
	scope Scope
}

// New creates an Evaluator reading from scope.
func New(scope Scope) *Evaluator {
	return &Evaluator{scope: scope}
}

// Resolve returns the numeric value of v. Literals pass through; references
// and arithmetic are read and computed now. Any failure yields 0.
func (e *Evaluator) Resolve(v effect.Value) float64 {
	switch v := v.(type) {
	case effect.NumericLiteral:
		return v.Value
	case effect.DynamicReference:
		return e.lookup(v.Ref)
	case effect.ArithmeticExpression:
		return e.Arithmetic(v.Text)
	case effect.StatusOperand:
		if v.Stacks == nil {
			return 0
		}
		return e.Resolve(v.Stacks)
	case effect.StringLiteral:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Arithmetic substitutes references in text and computes the result.
// Unsafe or malformed text yields 0.
func (e *Evaluator) Arithmetic(text string) float64 {
	v, err := Evaluate(e.Substitute(text, false))
	if err != nil {
		slog.Debug("arithmetic evaluation failed", "text", text, "err", err)
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Condition evaluates a comparison such as "ME.energy >= 2 and OP.hp < 10".
// Supported: > < >= <= == != && || and or not ! and parentheses.
// Any evaluation error makes the condition false.
func (e *Evaluator) Condition(text string) bool {
	ok, err := EvaluateCondition(e.Substitute(text, true))
	if err != nil {
		slog.Debug("condition evaluation failed", "condition", text, "err", err)
		return false
	}
	return ok
}

// Substitute replaces every reference token in text with its current value.
// In condition mode the words and, or, not, true and false become operators
// and constants. Unknown names become 0.
func (e *Evaluator) Substitute(text string, condition bool) string {
	matches := effect.ScanReferences(text)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for i, m := range matches {
		if i > 0 && dotted(text, matches[i-1], m) {
			last = m.End
			continue
		}
		b.WriteString(text[last:m.Start])
		last = m.End

		if i+1 < len(matches) && dotted(text, m, matches[i+1]) {
			slog.Debug("unknown dotted name resolved to zero", "text", text[m.Start:])
			b.WriteString("0")
			continue
		}

		if condition && m.Ref.Side == effect.TargetDefault && !m.Ref.IsStacks() {
			if word, ok := conditionWords[strings.ToLower(m.Ref.Name)]; ok {
				b.WriteString(word)
				continue
			}
		}
		b.WriteString(formatNumber(e.lookup(m.Ref)))
	}
	b.WriteString(text[last:])
	return b.String()
}

// dotted reports whether b continues a after a dot, as in "foo.hp", which is
// one unknown name rather than two references.
func dotted(text string, a, b effect.RefMatch) bool {
	return b.Start == a.End+1 && text[a.End] == '.'
}

var conditionWords = map[string]string{
	"and":   " && ",
	"or":    " || ",
	"not":   " !",
	"true":  "1",
	"false": "0",
}

// lookup reads one reference. Bare names try context variables first and
// fall back to the source entity's stats.
func (e *Evaluator) lookup(ref effect.Reference) float64 {
	if ref.Side == effect.TargetBoth {
		slog.Debug("ALL reference resolved to zero", "ref", ref.String())
		return 0
	}
	if ref.IsStacks() {
		return e.scope.Stacks(ref.Side.Resolved(), ref.Status)
	}
	if ref.Side == effect.TargetDefault {
		if v, ok := e.scope.Var(ref.Name); ok {
			return v
		}
	}
	if v, ok := e.scope.Stat(ref.Side.Resolved(), ref.Name); ok {
		return v
	}
	slog.Debug("unknown reference resolved to zero", "ref", ref.String())
	return 0
}

// formatNumber renders v for re-parsing; negative values are parenthesised
// so that "5 - -3" style text stays well formed.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v < 0 {
		return "(" + s + ")"
	}
	return s
}
