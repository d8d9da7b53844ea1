// Package parser recognizes one measurement token at a cursor position.
//
// # Usage
//
//	tok, rest, err := parser.ParseToken(token.NewCursor("1 ¾ cups flour"))
//	if errors.Is(err, parser.ErrNoMatch) {
//	    // not a measurement; skip a character and retry
//	}
//
// # Grammar
//
//	measurement → number ws* unit
//	number      → integer | decimal | rational   (tried in that order)
//	unit        → "°"? letter+
//
// The first alternative that yields a complete measurement wins. The unit
// word is resolved with a unit.Resolver, so every word becomes some unit;
// unknown words become dimensionless units ("2 cloves").
package parser

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/leapstack-labs/portion/pkg/measure"
	"github.com/leapstack-labs/portion/pkg/number"
	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/token"
	"github.com/leapstack-labs/portion/pkg/unit"
)

// Token is one parsed measurement.
type Token struct {
	Measure    measure.SingleMeasure
	NumberSpan token.Span // document span of the numeric literal
	UnitSpan   token.Span // document span of the unit word
	Raw        string     // consumed text, number through unit
}

// Magnitude returns the quantity the token denotes.
func (t Token) Magnitude() measure.Magnitude {
	return t.Measure.Magnitude()
}

// Span returns the document span of the whole token.
func (t Token) Span() token.Span {
	return t.NumberSpan.Cover(t.UnitSpan)
}

// NumberText returns the numeric literal as written.
func (t Token) NumberText() string {
	s, _ := token.CharSlice(t.Raw, 0, t.NumberSpan.Len())
	return s
}

// UnitText returns the unit word as written.
func (t Token) UnitText() string {
	start := t.UnitSpan.Start - t.NumberSpan.Start
	s, _ := token.CharSlice(t.Raw, start, start+t.UnitSpan.Len())
	return s
}

func (t Token) String() string {
	return fmt.Sprintf("%q %s => %s", t.Raw, t.Span(), t.Measure)
}

// Option configures a Parser.
type Option func(*Parser)

// WithResolver sets the resolver used for unit words.
func WithResolver(r *unit.Resolver) Option {
	return func(p *Parser) {
		if r != nil {
			p.resolver = r
		}
	}
}

// Parser parses measurement tokens. It holds no mutable state and is safe
// for concurrent use.
type Parser struct {
	resolver *unit.Resolver
}

// New returns a parser. Without options it resolves units with
// unit.Default().
func New(opts ...Option) *Parser {
	p := &Parser{resolver: unit.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolver returns the parser's unit resolver.
func (p *Parser) Resolver() *unit.Resolver {
	return p.resolver
}

var numberGrammars = []number.Recognizer{number.Integer, number.Decimal, number.Rational}

// ParseToken parses "<number> <unit>" at the start of c and returns the
// token with the cursor after it.
//
// It returns ErrNoMatch when no measurement starts at c, and a *ParseError
// wrapping number.ErrInfiniteNumber when a fraction has a zero denominator.
func (p *Parser) ParseToken(c token.Cursor) (Token, token.Cursor, error) {
	for _, grammar := range numberGrammars {
		num, err := grammar(c)
		if errors.Is(err, number.ErrNoMatch) {
			continue
		}
		if err != nil {
			return Token{}, c, &ParseError{Span: numericExtent(c), Err: err}
		}

		u, unitSpan, rest, err := p.ParseUnit(number.SkipSpace(num.Rest))
		if errors.Is(err, ErrNoMatch) {
			continue
		}
		if err != nil {
			return Token{}, c, err
		}

		raw, _ := c.Consumed(rest)
		return Token{
			Measure:    measure.Single(num.Value, u),
			NumberSpan: num.Span,
			UnitSpan:   unitSpan,
			Raw:        raw,
		}, rest, nil
	}
	return Token{}, c, ErrNoMatch
}

// ParseUnit parses a unit word at the start of c: an optional degree sign
// followed by one or more letters.
func (p *Parser) ParseUnit(c token.Cursor) (unit.Unit, token.Span, token.Cursor, error) {
	rest := c
	if r, size := rest.Peek(); size > 0 && r == '°' {
		rest = rest.Advance(size)
	}
	letters := 0
	for {
		r, size := rest.Peek()
		if size == 0 || !unicode.IsLetter(r) {
			break
		}
		rest = rest.Advance(size)
		letters++
	}
	if letters == 0 {
		return unit.Unit{}, token.Span{}, c, ErrNoMatch
	}

	word, span := c.Consumed(rest)
	return p.resolver.Resolve(word), span, rest, nil
}

// Value parses a standalone quantity such as "1 3/4 cups" or "2 tbsp". The
// whole string must be one measurement, apart from surrounding space.
func (p *Parser) Value(s string) (measure.SingleMeasure, error) {
	tok, rest, err := p.ParseToken(number.SkipSpace(token.NewCursor(s)))
	if err != nil {
		return measure.SingleMeasure{}, err
	}
	if !number.SkipSpace(rest).IsEmpty() {
		return measure.SingleMeasure{}, fmt.Errorf("unexpected %q after %q: %w", rest.Text(), tok.Raw, ErrNoMatch)
	}
	return tok.Measure, nil
}

// Factor parses a scaling factor such as "2", "1/2" or "1.5". Zero is
// rejected.
func Factor(s string) (ratio.Ratio, error) {
	v, err := number.ParseString(s)
	if err != nil {
		return ratio.Zero, fmt.Errorf("invalid factor %q: %w", s, err)
	}
	if v.IsZero() {
		return ratio.Zero, fmt.Errorf("invalid factor %q: must be non-zero", s)
	}
	return v, nil
}

var defaultParser = New()

// ParseToken parses one token with the default unit resolver.
func ParseToken(c token.Cursor) (Token, token.Cursor, error) {
	return defaultParser.ParseToken(c)
}

// numericExtent spans the run of digits, fraction slashes, vulgar glyphs,
// decimal points and inner spaces at the start of c.
func numericExtent(c token.Cursor) token.Span {
	rest, end := c, c
	for {
		r, size := rest.Peek()
		if size == 0 {
			break
		}
		isNumeric := unicode.IsDigit(r) || r == '/' || r == '⁄' || r == '.' || number.IsVulgar(r)
		if !isNumeric && !unicode.IsSpace(r) {
			break
		}
		rest = rest.Advance(size)
		if isNumeric {
			end = rest
		}
	}
	_, span := c.Consumed(end)
	return span
}
