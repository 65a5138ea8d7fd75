package effect

import (
	"strconv"
	"strings"
)

// Target selects which entity an expression addresses.
type Target int8

const (
	TargetDefault  Target = iota // omitted; resolves to self
	TargetSelf                   // ME
	TargetOpponent               // OP
	TargetBoth                   // ALL
)

// Resolved maps the omitted target to TargetSelf.
func (t Target) Resolved() Target {
	if t == TargetDefault {
		return TargetSelf
	}
	return t
}

func (t Target) String() string {
	switch t {
	case TargetSelf:
		return "ME"
	case TargetOpponent:
		return "OP"
	case TargetBoth:
		return "ALL"
	default:
		return ""
	}
}

// parseTarget recognizes the target tokens ME, OP and ALL (any case).
func parseTarget(tok string) (Target, bool) {
	switch strings.ToUpper(tok) {
	case "ME":
		return TargetSelf, true
	case "OP":
		return TargetOpponent, true
	case "ALL":
		return TargetBoth, true
	}
	return TargetDefault, false
}

// Operator is the mutation applied by an expression.
type Operator string

const (
	OpAdd      Operator = "+"
	OpSub      Operator = "-"
	OpMul      Operator = "*"
	OpDiv      Operator = "/"
	OpSet      Operator = "="
	OpApply    Operator = "apply"
	OpRemove   Operator = "remove"
	OpRegister Operator = "add" // ability registration
)

func parseOperator(tok string) (Operator, bool) {
	switch Operator(strings.ToLower(tok)) {
	case OpAdd, OpSub, OpMul, OpDiv, OpSet, OpApply, OpRemove:
		return Operator(strings.ToLower(tok)), true
	}
	return "", false
}

// Kind is the grammar form an expression was parsed from.
type Kind int8

const (
	KindDirect Kind = iota
	KindAbility
	KindSelector
	KindPayload
	KindNarrate
	KindConditional
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindAbility:
		return "ability"
	case KindSelector:
		return "selector"
	case KindPayload:
		return "payload"
	case KindNarrate:
		return "narrate"
	case KindConditional:
		return "conditional"
	default:
		return "unknown"
	}
}

// RecoveryRule names a lenient grammar path taken while parsing a clause.
type RecoveryRule string

const (
	// RecoverUnclosedAbility: a trigger body without its closing parenthesis;
	// the rest of the clause is taken as the effect list.
	RecoverUnclosedAbility RecoveryRule = "unclosed_ability"
	// RecoverBareSelectorCount: a selector followed by a bare count without an
	// operator, read as "+ count".
	RecoverBareSelectorCount RecoveryRule = "bare_selector_count"
)

// Pile is a card pile addressed by a selector.
type Pile string

const (
	PileHand    Pile = "hand"
	PileDraw    Pile = "draw"
	PileDiscard Pile = "discard"
)

// SelectMode picks which cards of a pile are addressed.
type SelectMode string

const (
	SelectLeftmost  SelectMode = "leftmost"
	SelectRightmost SelectMode = "rightmost"
	SelectRandom    SelectMode = "random"
	SelectAll       SelectMode = "all"
	SelectChoose    SelectMode = "choose" // interactive choice by the player
)

// PileSelector addresses a subset of one pile.
type PileSelector struct {
	Pile Pile
	Mode SelectMode
}

func (s PileSelector) String() string {
	return string(s.Pile) + "_" + string(s.Mode)
}

// Interactive reports whether the selection needs a player decision.
func (s PileSelector) Interactive() bool {
	return s.Mode == SelectChoose
}

// Branch is the unparsed text of a conditional branch. It is parsed only
// when the branch is selected, so dynamic references see current state.
type Branch struct {
	Text string
}

// Parse parses the branch text with p.
func (b Branch) Parse(p *Parser) Result {
	return p.Parse(b.Text)
}

// Conditional holds the parts of an if[...][...]else[...] clause.
type Conditional struct {
	Condition string
	Then      Branch
	Else      *Branch
}

// Choose returns the branch selected by the condition outcome, or nil when
// the condition is false and there is no else branch.
func (c *Conditional) Choose(outcome bool) *Branch {
	if outcome {
		return &c.Then
	}
	return c.Else
}

// Expression is the parsed form of one effect clause.
type Expression struct {
	Raw       string
	Kind      Kind
	Trigger   string // ability form only
	Target    Target
	Attribute string
	Operator  Operator
	Value     Value
	Duration  int // turns; 0 means no duration
	Selector  *PileSelector
	Cond      *Conditional
	Recovered []RecoveryRule

	Valid bool
	Err   error
}

// HasDuration reports whether a trailing @N was given.
func (e *Expression) HasDuration() bool {
	return e.Duration > 0
}

// String renders the expression in a compact canonical form.
func (e *Expression) String() string {
	if e.Kind == KindConditional && e.Cond != nil {
		s := "if[" + e.Cond.Condition + "][" + e.Cond.Then.Text + "]"
		if e.Cond.Else != nil {
			s += "else[" + e.Cond.Else.Text + "]"
		}
		return s
	}

	var b strings.Builder
	if e.Target != TargetDefault {
		b.WriteString(e.Target.String())
		b.WriteByte('.')
	}
	switch e.Kind {
	case KindAbility:
		b.WriteString(e.Trigger)
		b.WriteByte('(')
		b.WriteString(ValueText(e.Value))
		b.WriteByte(')')
	case KindSelector:
		b.WriteString(e.Attribute)
		b.WriteByte('.')
		b.WriteString(e.Selector.String())
		b.WriteByte(' ')
		b.WriteString(string(e.Operator))
		b.WriteByte(' ')
		b.WriteString(ValueText(e.Value))
	case KindPayload, KindNarrate:
		b.WriteString(e.Attribute)
		b.WriteByte(' ')
		b.WriteString(ValueText(e.Value))
	default:
		b.WriteString(e.Attribute)
		b.WriteByte(' ')
		b.WriteString(string(e.Operator))
		b.WriteByte(' ')
		b.WriteString(ValueText(e.Value))
	}
	if e.HasDuration() {
		b.WriteString(" @")
		b.WriteString(strconv.Itoa(e.Duration))
	}
	return b.String()
}

func (e *Expression) fail(err error) *Expression {
	e.Valid = false
	e.Err = &ParseError{Clause: e.Raw, Err: err}
	return e
}
