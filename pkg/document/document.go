// Package document scans whole texts for measurements.
//
// Parse folds parser.ParseToken over a text: a measurement is recorded and
// scanning continues after it; anything else skips one character. Failed
// token attempts never abort the scan, they are kept as diagnostics.
package document

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/portion/pkg/measure"
	"github.com/leapstack-labs/portion/pkg/parser"
	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/token"
	"github.com/leapstack-labs/portion/pkg/unit"
)

// Diagnostic is a token attempt that failed with a terminal error.
type Diagnostic struct {
	Span token.Span
	Err  error
}

func (d Diagnostic) Error() string {
	return d.Err.Error()
}

// Document is a scanned text.
type Document struct {
	Text        string
	Tokens      []parser.Token
	Diagnostics []Diagnostic

	byteIndex []int // byte offset of each character, plus len(Text)
}

// Segment is a contiguous part of a document.
type Segment struct {
	Kind  token.Kind
	Span  token.Span
	Text  string
	Token *parser.Token // MEASURE segments only
	Err   error         // INVALID segments only
}

// Parse scans text with a parser built from opts.
func Parse(text string, opts ...parser.Option) *Document {
	return ParseWith(parser.New(opts...), text)
}

// ParseWith scans text with p.
func ParseWith(p *parser.Parser, text string) *Document {
	doc := &Document{Text: text}
	doc.index()
	c := token.NewCursor(text)
	for !c.IsEmpty() {
		tok, rest, err := p.ParseToken(c)
		switch {
		case err == nil:
			doc.Tokens = append(doc.Tokens, tok)
			c = rest
		case errors.Is(err, parser.ErrNoMatch):
			c = c.Next()
		default:
			doc.Diagnostics = append(doc.Diagnostics, diagnostic(c, err))
			c = c.Next()
		}
	}
	return doc
}

func diagnostic(c token.Cursor, err error) Diagnostic {
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		return Diagnostic{Span: perr.Span, Err: perr.Err}
	}
	return Diagnostic{Span: token.NewSpan(c.Offset(), c.Offset()+1), Err: err}
}

// Len returns the document length in characters.
func (d *Document) Len() int {
	return len(d.index()) - 1
}

// Slice returns the text of a document span.
func (d *Document) Slice(s token.Span) string {
	idx := d.index()
	start := min(max(s.Start, 0), len(idx)-1)
	end := min(max(s.End, start), len(idx)-1)
	return d.Text[idx[start]:idx[end]]
}

func (d *Document) index() []int {
	if d.byteIndex == nil {
		d.byteIndex = make([]int, 0, utf8.RuneCountInString(d.Text)+1)
		for i := range d.Text {
			d.byteIndex = append(d.byteIndex, i)
		}
		d.byteIndex = append(d.byteIndex, len(d.Text))
	}
	return d.byteIndex
}

// Segments splits the document into TEXT, MEASURE and INVALID segments
// that cover it exactly, in order. An INVALID segment is clipped where a
// measurement found later in the scan begins.
func (d *Document) Segments() []Segment {
	var (
		segments []Segment
		pos      int
		next     int
	)
	text := func(end int) {
		if end > pos {
			span := token.NewSpan(pos, end)
			segments = append(segments, Segment{Kind: token.TEXT, Span: span, Text: d.Slice(span)})
			pos = end
		}
	}

	for i := 0; i <= len(d.Tokens); i++ {
		limit := d.Len()
		if i < len(d.Tokens) {
			limit = d.Tokens[i].Span().Start
		}

		for ; next < len(d.Diagnostics) && d.Diagnostics[next].Span.Start < limit; next++ {
			diag := d.Diagnostics[next]
			if diag.Span.Start < pos {
				continue
			}
			text(diag.Span.Start)
			span := token.NewSpan(pos, max(min(diag.Span.End, limit), pos+1))
			segments = append(segments, Segment{Kind: token.INVALID, Span: span, Text: d.Slice(span), Err: diag.Err})
			pos = span.End
		}

		if i < len(d.Tokens) {
			tok := &d.Tokens[i]
			text(tok.Span().Start)
			segments = append(segments, Segment{Kind: token.MEASURE, Span: tok.Span(), Text: tok.Raw, Token: tok})
			pos = tok.Span().End
		}
	}
	text(d.Len())
	return segments
}

// Rewrite returns the document text with every measurement replaced by
// fn(token). All other text is kept as is.
func (d *Document) Rewrite(fn func(parser.Token) string) string {
	var b strings.Builder
	b.Grow(len(d.Text))
	for _, seg := range d.Segments() {
		if seg.Kind == token.MEASURE {
			b.WriteString(fn(*seg.Token))
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Magnitudes returns the magnitude of every measurement, in order.
func (d *Document) Magnitudes() []measure.Magnitude {
	mags := make([]measure.Magnitude, len(d.Tokens))
	for i, tok := range d.Tokens {
		mags[i] = tok.Magnitude()
	}
	return mags
}

// Totals sums the measurements per dimension. Measurements without display
// units (unitless counts, temperatures) are summed per unit.
func (d *Document) Totals() []measure.Measure {
	var (
		order  []string
		totals = make(map[string]measure.Magnitude)
		units  = make(map[string]unit.Unit)
	)
	for _, tok := range d.Tokens {
		u := tok.Measure.Unit
		key := u.Dimension().String()
		if len(u.Dimension().DisplayUnits()) == 0 {
			key += ":" + u.Name()
		}
		sum, ok := totals[key]
		if !ok {
			order = append(order, key)
			totals[key] = tok.Magnitude()
			units[key] = u
			continue
		}
		if next, err := sum.Add(tok.Magnitude()); err == nil {
			totals[key] = next
		}
	}

	out := make([]measure.Measure, 0, len(order))
	for _, key := range order {
		out = append(out, Render(totals[key], units[key]))
	}
	return out
}

// Scale returns the document text with every measurement multiplied by
// factor and rendered in its best measure. Temperatures are readings, not
// amounts, and are kept as written.
func Scale(d *Document, factor ratio.Ratio, style unit.Style) string {
	return d.Rewrite(func(tok parser.Token) string {
		if tok.Measure.Dimension() == unit.Temperature {
			return tok.Raw
		}
		return Render(tok.Magnitude().Scale(factor), tok.Measure.Unit).Text(style)
	})
}

// Convert returns the document text with every measurement rendered in its
// best measure.
func Convert(d *Document, style unit.Style) string {
	return Scale(d, ratio.One, style)
}

// Render returns the best measure of m, or m in the fallback unit when the
// dimension has no display units.
func Render(m measure.Magnitude, fallback unit.Unit) measure.Measure {
	if best, ok := m.BestMeasure(); ok {
		return best
	}
	if out, err := m.Measure(fallback); err == nil {
		return out
	}
	return measure.Single(m.Base(), fallback)
}
