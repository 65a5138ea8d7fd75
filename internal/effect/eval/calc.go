package eval

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrUnsafe       = errors.New("unsafe character in expression")
	ErrSyntax       = errors.New("malformed expression")
	ErrDivideByZero = errors.New("division by zero")
)

type tokenKind int8

const (
	tokNumber tokenKind = iota
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

// lex splits arithmetic text into tokens. Comparison and boolean operators
// are accepted only when allowLogic is set.
func lex(text string, allowLogic bool) ([]token, error) {
	var toks []token
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(text) && (text[j] >= '0' && text[j] <= '9' || text[j] == '.') {
				j++
			}
			n, err := strconv.ParseFloat(text[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: number %q", ErrSyntax, text[i:j])
			}
			toks = append(toks, token{kind: tokNumber, text: text[i:j], num: n})
			i = j
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			toks = append(toks, token{kind: tokOp, text: string(c)})
			i++
		case allowLogic && (c == '<' || c == '>' || c == '=' || c == '!' || c == '&' || c == '|'):
			op, width := string(c), 1
			if i+1 < len(text) {
				switch two := text[i : i+2]; two {
				case "<=", ">=", "==", "!=", "&&", "||":
					op, width = two, 2
				}
			}
			switch op {
			case "=":
				op = "==" // a lone = compares
			case "&", "|":
				return nil, fmt.Errorf("%w: %q", ErrSyntax, op)
			}
			toks = append(toks, token{kind: tokOp, text: op})
			i += width
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsafe, c)
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

// calc is a precedence-climbing evaluator over lexed tokens. Booleans are
// represented as 1 and 0.
type calc struct {
	toks []token
	pos  int
}

var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5,
}

func (c *calc) peek() token { return c.toks[c.pos] }

func (c *calc) next() token {
	t := c.toks[c.pos]
	if t.kind != tokEOF {
		c.pos++
	}
	return t
}

func (c *calc) expr(minPrec int) (float64, error) {
	lhs, err := c.unary()
	if err != nil {
		return 0, err
	}
	for {
		t := c.peek()
		prec, ok := precedence[t.text]
		if t.kind != tokOp || !ok || prec < minPrec {
			return lhs, nil
		}
		c.next()
		rhs, err := c.expr(prec + 1)
		if err != nil {
			return 0, err
		}
		if lhs, err = apply(t.text, lhs, rhs); err != nil {
			return 0, err
		}
	}
}

func (c *calc) unary() (float64, error) {
	t := c.peek()
	if t.kind == tokOp {
		switch t.text {
		case "-":
			c.next()
			v, err := c.unary()
			return -v, err
		case "+":
			c.next()
			return c.unary()
		case "!":
			c.next()
			v, err := c.unary()
			return truth(v == 0), err
		}
	}
	return c.primary()
}

func (c *calc) primary() (float64, error) {
	t := c.next()
	switch t.kind {
	case tokNumber:
		return t.num, nil
	case tokLParen:
		v, err := c.expr(1)
		if err != nil {
			return 0, err
		}
		if c.next().kind != tokRParen {
			return 0, fmt.Errorf("%w: missing ')'", ErrSyntax)
		}
		return v, nil
	case tokEOF:
		return 0, fmt.Errorf("%w: unexpected end", ErrSyntax)
	}
	return 0, fmt.Errorf("%w: unexpected %q", ErrSyntax, t.text)
}

func apply(op string, a, b float64) (float64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, ErrDivideByZero
		}
		return a / b, nil
	case "<":
		return truth(a < b), nil
	case "<=":
		return truth(a <= b), nil
	case ">":
		return truth(a > b), nil
	case ">=":
		return truth(a >= b), nil
	case "==":
		return truth(a == b), nil
	case "!=":
		return truth(a != b), nil
	case "&&":
		return truth(a != 0 && b != 0), nil
	case "||":
		return truth(a != 0 || b != 0), nil
	}
	return 0, fmt.Errorf("%w: operator %q", ErrSyntax, op)
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func run(text string, allowLogic bool) (float64, error) {
	toks, err := lex(text, allowLogic)
	if err != nil {
		return 0, err
	}
	c := &calc{toks: toks}
	v, err := c.expr(1)
	if err != nil {
		return 0, err
	}
	if t := c.peek(); t.kind != tokEOF {
		return 0, fmt.Errorf("%w: unexpected %q", ErrSyntax, t.text)
	}
	return v, nil
}

// Evaluate computes arithmetic text made only of numbers, + - * / and
// parentheses, with the usual precedence.
func Evaluate(text string) (float64, error) {
	return run(text, false)
}

// EvaluateCondition computes a comparison or boolean expression over
// numbers. Non-zero results are true.
func EvaluateCondition(text string) (bool, error) {
	v, err := run(text, true)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}
