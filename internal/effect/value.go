package effect

import (
	"regexp"
	"strconv"
	"strings"
)

// Value is the operand of an expression. The concrete types form a closed set:
// NumericLiteral, DynamicReference, ArithmeticExpression, StringLiteral,
// StructuredPayload and StatusOperand.
type Value interface {
	isValue()
}

// NumericLiteral is a number known at parse time.
type NumericLiteral struct {
	Value float64
}

// DynamicReference is a single live variable, resolved at execution time.
type DynamicReference struct {
	Ref Reference
}

// ArithmeticExpression mixes references and numbers with + - * / ( ).
// It is evaluated at execution time.
type ArithmeticExpression struct {
	Text string
	Refs []Reference
}

// StringLiteral is opaque text (narration, ability bodies).
type StringLiteral struct {
	Text string
}

// StructuredPayload describes a card to create, either as a JSON object or
// as a bare card identifier.
type StructuredPayload struct {
	Raw    string // JSON object text; empty for identifier payloads
	CardID string
	Count  int
}

// BulkRemoval is a keyword removing several statuses at once.
type BulkRemoval string

const (
	BulkNone    BulkRemoval = ""
	BulkBuffs   BulkRemoval = "all buffs"
	BulkDebuffs BulkRemoval = "all debuffs"
	BulkAll     BulkRemoval = "everything"
)

// StatusOperand is the operand of the status attribute: a status id with a
// stack count, or a bulk removal keyword.
type StatusOperand struct {
	ID     string
	Stacks Value // nil for remove
	Bulk   BulkRemoval
}

func (NumericLiteral) isValue()       {}
func (DynamicReference) isValue()     {}
func (ArithmeticExpression) isValue() {}
func (StringLiteral) isValue()        {}
func (StructuredPayload) isValue()    {}
func (StatusOperand) isValue()        {}

// IsDynamic reports whether v must be resolved against live state.
func IsDynamic(v Value) bool {
	switch v := v.(type) {
	case DynamicReference, ArithmeticExpression:
		return true
	case StatusOperand:
		return v.Stacks != nil && IsDynamic(v.Stacks)
	}
	return false
}

// ValueText renders v back to effect-string syntax.
func ValueText(v Value) string {
	switch v := v.(type) {
	case NumericLiteral:
		return strconv.FormatFloat(v.Value, 'f', -1, 64)
	case DynamicReference:
		return v.Ref.String()
	case ArithmeticExpression:
		return v.Text
	case StringLiteral:
		return v.Text
	case StructuredPayload:
		s := v.CardID
		if v.Raw != "" {
			s = v.Raw
		}
		if v.Count != 1 {
			s += " " + strconv.Itoa(v.Count)
		}
		return s
	case StatusOperand:
		if v.Bulk != BulkNone {
			return string(v.Bulk)
		}
		if v.Stacks == nil {
			return v.ID
		}
		return v.ID + " " + ValueText(v.Stacks)
	case nil:
		return ""
	}
	return ""
}

// Reference addresses one live variable: an entity stat, a status stack
// count, or a caller-supplied context variable.
type Reference struct {
	Side   Target // TargetDefault, TargetSelf or TargetOpponent
	Name   string // stat or variable name; empty for stack counts
	Status string // status id for stack counts
}

// IsStacks reports whether r reads a status stack count.
func (r Reference) IsStacks() bool {
	return r.Status != ""
}

func (r Reference) String() string {
	var b strings.Builder
	if r.Side != TargetDefault {
		b.WriteString(r.Side.String())
		b.WriteByte('.')
	}
	if r.IsStacks() {
		b.WriteString("stacks.")
		b.WriteString(r.Status)
	} else {
		b.WriteString(r.Name)
	}
	return b.String()
}

const identPattern = `[A-Za-z_][A-Za-z0-9_]*`

var (
	referenceExact = regexp.MustCompile(`^(?:(ME|OP|ALL|me|op|all)\.)?(?:stacks\.(` + identPattern + `)|(` + identPattern + `))$`)
	referenceToken = regexp.MustCompile(`(?:\b(ME|OP|ALL|me|op|all)\.)?(?:\bstacks\.(` + identPattern + `)|\b(` + identPattern + `))`)
)

// ParseReference parses text consisting of exactly one reference token.
// It is purely syntactic: the caller decides whether the name is known.
func ParseReference(text string) (Reference, bool) {
	m := referenceExact.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Reference{}, false
	}
	return referenceFromMatch(m[1], m[2], m[3]), true
}

// RefMatch is one reference token found in a larger text.
type RefMatch struct {
	Start, End int
	Ref        Reference
}

// ScanReferences finds every reference token in text, in order.
func ScanReferences(text string) []RefMatch {
	idx := referenceToken.FindAllStringSubmatchIndex(text, -1)
	out := make([]RefMatch, 0, len(idx))
	for _, loc := range idx {
		group := func(n int) string {
			if loc[2*n] < 0 {
				return ""
			}
			return text[loc[2*n]:loc[2*n+1]]
		}
		out = append(out, RefMatch{
			Start: loc[0],
			End:   loc[1],
			Ref:   referenceFromMatch(group(1), group(2), group(3)),
		})
	}
	return out
}

func referenceFromMatch(side, status, name string) Reference {
	r := Reference{Status: status, Name: name}
	if t, ok := parseTarget(side); ok {
		r.Side = t
	}
	return r
}
