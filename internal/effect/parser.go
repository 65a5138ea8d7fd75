package effect

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/udisondev/effectlang/internal/data"
)

// Parser turns effect strings into expressions.
// It holds nothing but the registry, so a single Parser can be shared and
// parsing the same text twice yields identical trees.
type Parser struct {
	reg *data.Registry
}

// NewParser creates a parser validating against reg.
func NewParser(reg *data.Registry) *Parser {
	return &Parser{reg: reg}
}

// Registry returns the registry the parser validates against.
func (p *Parser) Registry() *data.Registry {
	return p.reg
}

// Result is the outcome of parsing an effect string: the valid expressions
// in clause order and the clauses that were dropped.
type Result struct {
	Expressions []*Expression
	Dropped     []*Expression
}

// DroppedCount returns the number of rejected clauses.
func (r Result) DroppedCount() int {
	return len(r.Dropped)
}

// Err joins the errors of all dropped clauses. Nil when nothing was dropped.
func (r Result) Err() error {
	if len(r.Dropped) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Dropped))
	for _, d := range r.Dropped {
		errs = append(errs, d.Err)
	}
	return errors.Join(errs...)
}

// Parse splits effect into clauses and parses each one. Invalid clauses are
// dropped and reported in Result.Dropped; Parse itself never fails.
func (p *Parser) Parse(effect string) Result {
	var res Result
	for _, clause := range Split(effect) {
		e := p.ParseClause(clause)
		if !e.Valid {
			slog.Debug("effect clause dropped", "clause", clause, "err", e.Err)
			res.Dropped = append(res.Dropped, e)
			continue
		}
		res.Expressions = append(res.Expressions, e)
	}
	return res
}

// Validate returns the joined errors of every clause that would be dropped.
func (p *Parser) Validate(effect string) error {
	return p.Parse(effect).Err()
}

var (
	durationSuffix  = regexp.MustCompile(`\s*@(\d+)\s*$`)
	conditionalHead = regexp.MustCompile(`(?i)^if\s*\[`)
	abilityHead     = regexp.MustCompile(`^(?:(?i:(ME|OP|ALL))\.)?(` + identPattern + `)\s*\(`)
	directHead      = regexp.MustCompile(`^(?:(?i:(ME|OP|ALL))\.)?(` + identPattern + `)(?:\s*([-+*/=])|\s+(?i:(apply|remove))\b)\s*(.*)$`)
	selectorHead    = regexp.MustCompile(`^(` + identPattern + `)\.(` + identPattern + `)(.*)$`)
	payloadHead     = regexp.MustCompile(`^(add_to_hand|add_to_deck)\s+(.*)$`)
	narrateHead     = regexp.MustCompile(`(?i)^narrate\b\s*(.*)$`)
	identExact      = regexp.MustCompile(`^` + identPattern + `$`)
	arithmeticText  = regexp.MustCompile(`^[A-Za-z0-9_.\s+\-*/()]+$`)
)

// ParseClause parses a single clause. The returned expression is always
// non-nil; check Valid and Err.
func (p *Parser) ParseClause(clause string) (e *Expression) {
	e = &Expression{Raw: strings.TrimSpace(clause)}
	defer func() {
		if r := recover(); r != nil {
			e.fail(fmt.Errorf("%w: %v", ErrInternal, r))
		}
	}()

	body := e.Raw
	if body == "" {
		return e.fail(ErrEmptyClause)
	}

	if m := durationSuffix.FindStringSubmatchIndex(body); m != nil {
		n, err := strconv.Atoi(body[m[2]:m[3]])
		if err != nil || n <= 0 {
			return e.fail(fmt.Errorf("%w: bad duration %q", ErrTrailingText, body[m[0]:]))
		}
		e.Duration = n
		body = strings.TrimSpace(body[:m[0]])
	}

	switch {
	case conditionalHead.MatchString(body):
		p.parseConditional(e, body)
	case abilityHead.MatchString(body):
		p.parseAbility(e, body)
	case directHead.MatchString(body):
		p.parseDirect(e, directHead.FindStringSubmatch(body))
	case isSelectorForm(body):
		p.parseSelector(e, selectorHead.FindStringSubmatch(body))
	case payloadHead.MatchString(body):
		p.parsePayload(e, payloadHead.FindStringSubmatch(body))
	case narrateHead.MatchString(body):
		p.parseNarrate(e, narrateHead.FindStringSubmatch(body)[1])
	default:
		e.fail(ErrUnrecognized)
	}
	return e
}

func isSelectorForm(body string) bool {
	m := selectorHead.FindStringSubmatch(body)
	if m == nil {
		return false
	}
	_, isTarget := parseTarget(m[1])
	return !isTarget
}

// classify sorts a value text into a literal, a reference, an arithmetic
// expression or an opaque string. References are not resolved here.
func (p *Parser) classify(text string) (Value, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMissingValue
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && isFinite(f) {
		return NumericLiteral{Value: f}, nil
	}
	if ref, ok := ParseReference(text); ok {
		if ref.Side == TargetBoth {
			return nil, fmt.Errorf("%w: %s", ErrUnknownReference, ref)
		}
		if p.knownReference(ref) {
			return DynamicReference{Ref: ref}, nil
		}
	}
	if arithmeticText.MatchString(text) && strings.ContainsAny(text, "+-*/()") {
		matches := ScanReferences(text)
		refs := make([]Reference, 0, len(matches))
		for i, m := range matches {
			if i+1 < len(matches) && matches[i+1].Start == m.End+1 && text[m.End] == '.' {
				return nil, fmt.Errorf("%w: %s", ErrUnknownReference, text[m.Start:matches[i+1].End])
			}
			if m.Ref.Side == TargetBoth || !p.knownReference(m.Ref) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownReference, m.Ref)
			}
			refs = append(refs, m.Ref)
		}
		return ArithmeticExpression{Text: text, Refs: refs}, nil
	}
	return StringLiteral{Text: text}, nil
}

// numeric classifies text and requires a number-valued result.
func (p *Parser) numeric(text string) (Value, error) {
	v, err := p.classify(text)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(StringLiteral); ok {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, s.Text)
	}
	return v, nil
}

func (p *Parser) knownReference(ref Reference) bool {
	if ref.IsStacks() {
		return true
	}
	if a, ok := p.reg.Attribute(ref.Name); ok && a.Numeric() {
		return true
	}
	if ref.Side == TargetDefault {
		_, ok := p.reg.Variable(ref.Name)
		return ok
	}
	return false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
