package effect

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyClause        = errors.New("empty clause")
	ErrUnrecognized       = errors.New("clause matches no effect form")
	ErrUnbalanced         = errors.New("unbalanced brackets")
	ErrMalformedCondition = errors.New("malformed conditional")
	ErrUnknownTrigger     = errors.New("unknown trigger")
	ErrUnknownAttribute   = errors.New("unknown attribute")
	ErrBadOperator        = errors.New("operator not valid for attribute")
	ErrMissingValue       = errors.New("missing value")
	ErrNotNumeric         = errors.New("value is not numeric")
	ErrUnknownReference   = errors.New("unknown reference in value")
	ErrUnknownSelector    = errors.New("unknown selector")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrMalformedNarration = errors.New("narration needs a quoted string")
	ErrTrailingText       = errors.New("unexpected text after effect")
	ErrInternal           = errors.New("internal parser failure")
)

// ParseError is attached to an invalid expression: the clause text plus the cause.
type ParseError struct {
	Clause string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%q: %v", e.Clause, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
