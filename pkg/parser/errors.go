package parser

import (
	"fmt"

	"github.com/leapstack-labs/portion/pkg/number"
	"github.com/leapstack-labs/portion/pkg/token"
)

// ErrNoMatch reports that no measurement starts at the cursor. It is the
// same sentinel the numeric recognizers return.
var ErrNoMatch = number.ErrNoMatch

// ParseError is a terminal failure of one token attempt, with the character
// span of the offending literal.
type ParseError struct {
	Span token.Span
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Span, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
