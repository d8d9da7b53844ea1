// Package number recognizes numeric literals at a cursor position.
//
// # Grammar
//
//	integer  → digit+
//	decimal  → integer ws* "." ws* digit+
//	rational → integer ws* simple | simple
//	simple   → integer ws* ("/" | "⁄") ws* integer | vulgar
//	vulgar   → "¼" | "½" | "¾" | "⅐" | "⅑" | "⅒" | "⅓" | "⅔" | "⅕"
//	         | "⅖" | "⅗" | "⅘" | "⅙" | "⅚" | "⅛" | "⅜" | "⅝" | "⅞"
//
// Every recognizer takes an immutable token.Cursor and either returns the
// exact value with the consumed span, or an error: ErrNoMatch when the
// input simply is not that kind of literal, or ErrInfiniteNumber when a
// rational has a zero denominator. Values are exact ratio.Ratio numbers;
// "1.012" is 253/250, never a float.
package number

import (
	"errors"
	"math/big"
	"unicode"

	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/token"
)

var (
	// ErrNoMatch reports that the input does not start with the literal.
	// It is an ordinary negative result, not a failure.
	ErrNoMatch = errors.New("no match")

	// ErrInfiniteNumber reports a rational literal with a zero denominator.
	ErrInfiniteNumber = errors.New("found an infinite number when parsing")
)

// Result is a successfully recognized literal.
type Result struct {
	Value ratio.Ratio
	Span  token.Span   // document span of the literal
	Text  string       // literal text as written
	Rest  token.Cursor // input following the literal
}

// Recognizer recognizes one kind of literal at the start of a cursor.
type Recognizer func(token.Cursor) (Result, error)

func result(start, rest token.Cursor, value ratio.Ratio) Result {
	text, span := start.Consumed(rest)
	return Result{Value: value, Span: span, Text: text, Rest: rest}
}

// Integer recognizes one or more ASCII digits.
func Integer(c token.Cursor) (Result, error) {
	digits, rest, ok := scanDigits(c)
	if !ok {
		return Result{}, ErrNoMatch
	}
	n, _ := new(big.Int).SetString(digits, 10)
	return result(c, rest, ratio.FromBig(new(big.Rat).SetInt(n))), nil
}

// Decimal recognizes "<integer> . <digits>", allowing whitespace around the
// point. The fractional digits are added as digits/10^len(digits).
func Decimal(c token.Cursor) (Result, error) {
	whole, err := Integer(c)
	if err != nil {
		return Result{}, err
	}
	rest := SkipSpace(whole.Rest)
	if r, size := rest.Peek(); size == 0 || r != '.' {
		return Result{}, ErrNoMatch
	}
	rest = SkipSpace(rest.Advance(1))

	digits, rest, ok := scanDigits(rest)
	if !ok {
		return Result{}, ErrNoMatch
	}
	num, _ := new(big.Int).SetString(digits, 10)
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(len(digits))), nil)
	fraction := ratio.FromBig(new(big.Rat).SetFrac(num, den))

	return result(c, rest, whole.Value.Add(fraction)), nil
}

// Rational recognizes a mixed number ("1 3/4", "1¾") or a simple fraction
// ("3/4", "3 ⁄ 4", "¾").
func Rational(c token.Cursor) (Result, error) {
	return first(c, Mixed, Simple)
}

// Mixed recognizes "<integer> ws* <simple fraction>".
func Mixed(c token.Cursor) (Result, error) {
	whole, err := Integer(c)
	if err != nil {
		return Result{}, err
	}
	frac, err := Simple(SkipSpace(whole.Rest))
	if err != nil {
		return Result{}, err
	}
	return result(c, frac.Rest, whole.Value.Add(frac.Value)), nil
}

// Simple recognizes an ASCII or fraction-slash fraction, or a single
// vulgar-fraction glyph.
func Simple(c token.Cursor) (Result, error) {
	return first(c, Fraction, Vulgar)
}

// Fraction recognizes "<integer> ws* (/|⁄) ws* <integer>".
func Fraction(c token.Cursor) (Result, error) {
	num, err := Integer(c)
	if err != nil {
		return Result{}, err
	}
	rest := SkipSpace(num.Rest)
	r, size := rest.Peek()
	if size == 0 || !isFractionSlash(r) {
		return Result{}, ErrNoMatch
	}
	den, err := Integer(SkipSpace(rest.Advance(size)))
	if err != nil {
		return Result{}, err
	}
	if den.Value.IsZero() {
		return Result{}, ErrInfiniteNumber
	}
	return result(c, den.Rest, num.Value.Quo(den.Value)), nil
}

// Vulgar recognizes a single Unicode vulgar-fraction glyph.
func Vulgar(c token.Cursor) (Result, error) {
	r, size := c.Peek()
	if size == 0 {
		return Result{}, ErrNoMatch
	}
	value, ok := VulgarValue(r)
	if !ok {
		return Result{}, ErrNoMatch
	}
	return result(c, c.Advance(size), value), nil
}

// Parse recognizes any numeric literal at the start of c.
//
// The most specific grammar wins: decimal, then rational, then integer.
// This differs from the token parser, which tries integer first and lets
// the longer grammars extend it; here "1.5" must read as 3/2, never as 1.
// An integer directly followed by a dangling ".", "/" or "⁄" is rejected
// rather than shortened, so "3. Line" is not the number 3.
func Parse(c token.Cursor) (Result, error) {
	res, err := first(c, Decimal, Rational)
	if !errors.Is(err, ErrNoMatch) {
		return res, err
	}

	res, err = Integer(c)
	if err != nil {
		return Result{}, err
	}
	if r, size := SkipSpace(res.Rest).Peek(); size > 0 && (r == '.' || isFractionSlash(r)) {
		return Result{}, ErrNoMatch
	}
	return res, nil
}

// ParseString parses s as a single numeric literal. Surrounding whitespace
// is allowed; anything else left over is ErrNoMatch.
func ParseString(s string) (ratio.Ratio, error) {
	res, err := Parse(SkipSpace(token.NewCursor(s)))
	if err != nil {
		return ratio.Zero, err
	}
	if !SkipSpace(res.Rest).IsEmpty() {
		return ratio.Zero, ErrNoMatch
	}
	return res.Value, nil
}

// first runs the recognizers in order and returns the first match. A
// terminal error (anything but ErrNoMatch) stops the search.
func first(c token.Cursor, alternatives ...Recognizer) (Result, error) {
	for _, alt := range alternatives {
		res, err := alt(c)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrNoMatch) {
			return Result{}, err
		}
	}
	return Result{}, ErrNoMatch
}

func scanDigits(c token.Cursor) (string, token.Cursor, bool) {
	text := c.Text()
	n := 0
	for n < len(text) && text[n] >= '0' && text[n] <= '9' {
		n++
	}
	if n == 0 {
		return "", c, false
	}
	return text[:n], c.Advance(n), true
}

// SkipSpace returns c advanced past any leading white space.
func SkipSpace(c token.Cursor) token.Cursor {
	for {
		r, size := c.Peek()
		if size == 0 || !unicode.IsSpace(r) {
			return c
		}
		c = c.Advance(size)
	}
}

func isFractionSlash(r rune) bool {
	return r == '/' || r == '⁄'
}
