package effect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/udisondev/effectlang/internal/data"
)

// parseConditional handles if[condition][then] with an optional else[...].
// Brackets are matched by counting, so branches may nest further conditionals.
func (p *Parser) parseConditional(e *Expression, body string) {
	e.Kind = KindConditional

	rest := strings.TrimSpace(body[2:]) // drop "if"
	cond, rest, err := takeBracketed(rest)
	if err != nil {
		e.fail(fmt.Errorf("condition: %w", err))
		return
	}
	then, rest, err := takeBracketed(strings.TrimSpace(rest))
	if err != nil {
		e.fail(fmt.Errorf("true branch: %w", err))
		return
	}

	c := &Conditional{
		Condition: strings.TrimSpace(cond),
		Then:      Branch{Text: strings.TrimSpace(then)},
	}

	if rest = strings.TrimSpace(rest); rest != "" {
		if len(rest) < 4 || !strings.EqualFold(rest[:4], "else") {
			e.fail(fmt.Errorf("%w: expected else, got %q", ErrMalformedCondition, rest))
			return
		}
		els, tail, err := takeBracketed(strings.TrimSpace(rest[4:]))
		if err != nil {
			e.fail(fmt.Errorf("false branch: %w", err))
			return
		}
		if tail = strings.TrimSpace(tail); tail != "" {
			e.fail(fmt.Errorf("%w: %q", ErrTrailingText, tail))
			return
		}
		c.Else = &Branch{Text: strings.TrimSpace(els)}
	}

	if c.Condition == "" {
		e.fail(fmt.Errorf("%w: empty condition", ErrMalformedCondition))
		return
	}
	if c.Then.Text == "" {
		e.fail(fmt.Errorf("%w: empty true branch", ErrMalformedCondition))
		return
	}

	e.Cond = c
	e.Valid = true
}

// parseAbility handles [target.]trigger(effectList).
func (p *Parser) parseAbility(e *Expression, body string) {
	m := abilityHead.FindStringSubmatch(body)
	trigger := m[2]

	e.Kind = KindAbility
	e.Attribute = "ability"
	e.Operator = OpRegister
	e.Trigger = trigger
	e.Target, _ = parseTarget(m[1])

	if _, ok := p.reg.Trigger(trigger); !ok {
		e.fail(fmt.Errorf("%w: %s", ErrUnknownTrigger, trigger))
		return
	}

	open := len(m[0]) - 1
	var inner string
	if end := closingIndex(body, open); end < 0 {
		inner = body[open+1:]
		e.Recovered = append(e.Recovered, RecoverUnclosedAbility)
	} else {
		inner = body[open+1 : end]
		if tail := strings.TrimSpace(body[end+1:]); tail != "" {
			e.fail(fmt.Errorf("%w: %q", ErrTrailingText, tail))
			return
		}
	}

	inner = strings.TrimSpace(inner)
	if inner == "" {
		e.fail(fmt.Errorf("%w: empty ability body", ErrMissingValue))
		return
	}
	// The body is validated now but parsed again on every firing.
	if err := p.Validate(inner); err != nil {
		e.fail(fmt.Errorf("ability body: %w", err))
		return
	}

	e.Value = StringLiteral{Text: inner}
	e.Valid = true
}

// parseDirect handles [target.]attribute operator value.
func (p *Parser) parseDirect(e *Expression, m []string) {
	e.Kind = KindDirect
	e.Target, _ = parseTarget(m[1])
	e.Attribute = m[2]

	opText := m[3]
	if opText == "" {
		opText = m[4]
	}
	op, _ := parseOperator(opText)
	e.Operator = op
	rest := m[5]

	def, ok := p.reg.Attribute(e.Attribute)
	if !ok {
		e.fail(fmt.Errorf("%w: %s", ErrUnknownAttribute, e.Attribute))
		return
	}

	switch def.Category {
	case data.CategoryBasic, data.CategoryMaximum, data.CategoryModifier:
		if op == OpApply || op == OpRemove {
			e.fail(fmt.Errorf("%w: %s %s", ErrBadOperator, e.Attribute, op))
			return
		}
		v, err := p.numeric(rest)
		if err != nil {
			e.fail(err)
			return
		}
		e.Value = v

	case data.CategoryStatus:
		if err := p.parseStatusOperand(e, rest); err != nil {
			e.fail(err)
			return
		}

	case data.CategoryPile:
		if def.Type == data.TypePayload {
			e.fail(fmt.Errorf("%w: use %s <card> [count]", ErrBadOperator, e.Attribute))
			return
		}
		if op != OpAdd && op != OpSub && op != OpSet {
			e.fail(fmt.Errorf("%w: %s %s", ErrBadOperator, e.Attribute, op))
			return
		}
		v, err := p.numeric(rest)
		if err != nil {
			e.fail(err)
			return
		}
		e.Value = v
		sel := defaultSelector(e.Attribute)
		e.Selector = &sel

	default:
		e.fail(fmt.Errorf("%w: %s %s", ErrBadOperator, e.Attribute, op))
		return
	}

	e.Valid = true
}

// parseStatusOperand reads "<id> [stacks]" for apply and =, and an id or a
// bulk keyword for remove.
func (p *Parser) parseStatusOperand(e *Expression, rest string) error {
	rest = strings.TrimSpace(rest)
	switch e.Operator {
	case OpApply, OpSet:
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return fmt.Errorf("%w: status id", ErrMissingValue)
		}
		id := fields[0]
		if !identExact.MatchString(id) {
			return fmt.Errorf("%w: bad status id %q", ErrMissingValue, id)
		}
		stacksText := strings.TrimSpace(rest[len(id):])
		if stacksText == "" {
			stacksText = "1"
		}
		stacks, err := p.numeric(stacksText)
		if err != nil {
			return fmt.Errorf("stacks: %w", err)
		}
		e.Value = StatusOperand{ID: strings.ToLower(id), Stacks: stacks}

	case OpRemove:
		key := strings.ToLower(strings.Join(strings.Fields(rest), " "))
		switch key {
		case "":
			return fmt.Errorf("%w: status id", ErrMissingValue)
		case string(BulkBuffs):
			e.Value = StatusOperand{Bulk: BulkBuffs}
		case string(BulkDebuffs):
			e.Value = StatusOperand{Bulk: BulkDebuffs}
		case string(BulkAll), "all":
			e.Value = StatusOperand{Bulk: BulkAll}
		default:
			if !identExact.MatchString(key) {
				return fmt.Errorf("%w: bad status id %q", ErrMissingValue, key)
			}
			e.Value = StatusOperand{ID: key}
		}

	default:
		return fmt.Errorf("%w: status %s", ErrBadOperator, e.Operator)
	}
	return nil
}

// parseSelector handles attribute.selector [operator value].
func (p *Parser) parseSelector(e *Expression, m []string) {
	e.Kind = KindSelector
	e.Attribute = m[1]
	e.Operator = OpAdd

	def, ok := p.reg.Attribute(e.Attribute)
	if !ok {
		e.fail(fmt.Errorf("%w: %s", ErrUnknownAttribute, e.Attribute))
		return
	}
	if def.Category != data.CategoryPile || def.Type == data.TypePayload {
		e.fail(fmt.Errorf("%w: %s takes no selector", ErrUnknownSelector, e.Attribute))
		return
	}

	sel, err := parseSelectorToken(m[2])
	if err != nil {
		e.fail(err)
		return
	}
	e.Selector = &sel

	rest := strings.TrimSpace(m[3])
	switch {
	case rest == "":
		e.Value = NumericLiteral{Value: 1}
	case strings.ContainsRune("+-=*/", rune(rest[0])):
		op, _ := parseOperator(rest[:1])
		if op != OpAdd && op != OpSub && op != OpSet {
			e.fail(fmt.Errorf("%w: %s %s", ErrBadOperator, e.Attribute, op))
			return
		}
		v, err := p.numeric(rest[1:])
		if err != nil {
			e.fail(err)
			return
		}
		e.Operator = op
		e.Value = v
	default:
		v, err := p.numeric(rest)
		if err != nil {
			e.fail(err)
			return
		}
		e.Value = v
		e.Recovered = append(e.Recovered, RecoverBareSelectorCount)
	}

	e.Valid = true
}

// parseSelectorToken reads [pile_]mode; the pile defaults to hand.
func parseSelectorToken(tok string) (PileSelector, error) {
	sel := PileSelector{Pile: PileHand}
	mode := strings.ToLower(tok)
	for _, pile := range []Pile{PileHand, PileDraw, PileDiscard} {
		if prefix := string(pile) + "_"; strings.HasPrefix(mode, prefix) {
			sel.Pile = pile
			mode = strings.TrimPrefix(mode, prefix)
			break
		}
	}
	switch m := SelectMode(mode); m {
	case SelectLeftmost, SelectRightmost, SelectRandom, SelectAll, SelectChoose:
		sel.Mode = m
	default:
		return sel, fmt.Errorf("%w: %s", ErrUnknownSelector, tok)
	}
	return sel, nil
}

// defaultSelector is used when a pile attribute appears in direct form.
func defaultSelector(attr string) PileSelector {
	switch attr {
	case "draw":
		return PileSelector{Pile: PileDraw, Mode: SelectLeftmost}
	case "reduce_cost":
		return PileSelector{Pile: PileHand, Mode: SelectAll}
	default:
		return PileSelector{Pile: PileHand, Mode: SelectChoose}
	}
}

// parsePayload handles add_to_hand|add_to_deck <json|identifier> [count].
func (p *Parser) parsePayload(e *Expression, m []string) {
	e.Kind = KindPayload
	e.Attribute = m[1]
	e.Operator = OpAdd

	rest := strings.TrimSpace(m[2])
	payload := StructuredPayload{Count: 1}

	if strings.HasPrefix(rest, "{") {
		end := closingIndex(rest, 0)
		if end < 0 {
			e.fail(fmt.Errorf("%w: unterminated object %q", ErrMalformedPayload, rest))
			return
		}
		raw := rest[:end+1]
		if !gjson.Valid(raw) {
			e.fail(fmt.Errorf("%w: invalid JSON %q", ErrMalformedPayload, raw))
			return
		}
		id := gjson.Get(raw, "id")
		if !id.Exists() || id.String() == "" {
			e.fail(fmt.Errorf("%w: object has no id %q", ErrMalformedPayload, raw))
			return
		}
		payload.Raw = raw
		payload.CardID = id.String()
		rest = strings.TrimSpace(rest[end+1:])
	} else {
		fields := strings.Fields(rest)
		if !identExact.MatchString(fields[0]) {
			e.fail(fmt.Errorf("%w: bad card id %q", ErrMalformedPayload, fields[0]))
			return
		}
		payload.CardID = fields[0]
		rest = strings.TrimSpace(rest[len(fields[0]):])
	}

	if rest != "" {
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			e.fail(fmt.Errorf("%w: bad count %q", ErrMalformedPayload, rest))
			return
		}
		payload.Count = n
	}

	e.Value = payload
	e.Valid = true
}

// parseNarrate handles narrate "text".
func (p *Parser) parseNarrate(e *Expression, rest string) {
	e.Kind = KindNarrate
	e.Attribute = "narrate"
	e.Operator = OpSet

	rest = strings.TrimSpace(rest)
	if len(rest) < 2 || (rest[0] != '"' && rest[0] != '\'') || rest[len(rest)-1] != rest[0] {
		e.fail(fmt.Errorf("%w: %q", ErrMalformedNarration, rest))
		return
	}
	quote := string(rest[0])
	text := strings.ReplaceAll(rest[1:len(rest)-1], `\`+quote, quote)
	if strings.TrimSpace(text) == "" {
		e.fail(fmt.Errorf("%w: empty text", ErrMalformedNarration))
		return
	}

	e.Value = StringLiteral{Text: text}
	e.Valid = true
}

// takeBracketed expects s to start with '[' and returns the text inside the
// matching ']' and whatever follows it.
func takeBracketed(s string) (inner, rest string, err error) {
	if s == "" || s[0] != '[' {
		return "", s, fmt.Errorf("%w: expected '[' at %q", ErrMalformedCondition, s)
	}
	end := closingIndex(s, 0)
	if end < 0 {
		return "", s, fmt.Errorf("%w in %q", ErrUnbalanced, s)
	}
	return s[1:end], s[end+1:], nil
}

// closingIndex returns the index of the bracket closing s[open], counting
// nested pairs of the same kind and skipping quoted text. -1 when unbalanced.
func closingIndex(s string, open int) int {
	var closer byte
	switch s[open] {
	case '(':
		closer = ')'
	case '[':
		closer = ']'
	case '{':
		closer = '}'
	default:
		return -1
	}
	opener := s[open]

	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			i++
			continue
		}
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
