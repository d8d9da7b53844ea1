// Package report turns scanned documents into the serializable shape shared
// by the CLI's machine output and the HTTP API.
package report

import (
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/leapstack-labs/portion/pkg/measure"
	"github.com/leapstack-labs/portion/pkg/parser"
	"github.com/leapstack-labs/portion/pkg/unit"
)

// Report describes one scanned text.
type Report struct {
	Source      string       `json:"source,omitempty"`
	DocumentID  string       `json:"document_id,omitempty"`
	Tokens      []Token      `json:"tokens"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Totals      []Total      `json:"totals"`
}

// Token is one measurement found in the text.
type Token struct {
	Raw         string                `json:"raw"`
	Start       int                   `json:"start"`
	End         int                   `json:"end"`
	Number      string                `json:"number"`
	Unit        string                `json:"unit"`
	Measure     measure.SingleMeasure `json:"measure"`
	Best        string                `json:"best"`
	BestMeasure measure.Measure       `json:"best_measure,omitempty"`
}

// Diagnostic is a failed token attempt.
type Diagnostic struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Total is the sum of the measurements of one dimension or unit.
type Total struct {
	Dimension unit.Dimension  `json:"dimension"`
	Text      string          `json:"text"`
	Measure   measure.Measure `json:"measure"`
}

// New builds the report of doc, rendering measures in style.
func New(source string, doc *document.Document, style unit.Style) Report {
	r := Report{
		Source:      source,
		Tokens:      make([]Token, 0, len(doc.Tokens)),
		Diagnostics: make([]Diagnostic, 0, len(doc.Diagnostics)),
		Totals:      []Total{},
	}
	for _, tok := range doc.Tokens {
		r.Tokens = append(r.Tokens, NewToken(tok, style))
	}
	for _, d := range doc.Diagnostics {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Start: d.Span.Start,
			End:   d.Span.End,
			Text:  doc.Slice(d.Span),
			Error: d.Err.Error(),
		})
	}
	for _, m := range doc.Totals() {
		r.Totals = append(r.Totals, Total{
			Dimension: m.Dimension(),
			Text:      m.Text(style),
			Measure:   m,
		})
	}
	return r
}

// NewToken describes one token. Best falls back to the token as written
// when its dimension has no display units.
func NewToken(tok parser.Token, style unit.Style) Token {
	span := tok.Span()
	t := Token{
		Raw:     tok.Raw,
		Start:   span.Start,
		End:     span.End,
		Number:  tok.NumberText(),
		Unit:    tok.UnitText(),
		Measure: tok.Measure,
		Best:    tok.Measure.Text(style),
	}
	if best, ok := tok.Magnitude().BestMeasure(); ok {
		t.Best = best.Text(style)
		t.BestMeasure = best
	}
	return t
}
