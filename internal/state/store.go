// Package state persists scanned documents and the measurements found in
// them. SQLite is the default backend; a postgres:// DSN selects PostgreSQL.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/leapstack-labs/portion/pkg/measure"
	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/unit"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence interface used by the CLI and the server.
type Store interface {
	SaveDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, limit int) ([]*Document, error)
	DeleteDocument(ctx context.Context, id string) error
	Close() error
}

// Document is a persisted scan.
type Document struct {
	ID           string        `json:"id"`
	Source       string        `json:"source"`
	Text         string        `json:"text,omitempty"`
	Tokens       int           `json:"tokens"`
	Diagnostics  int           `json:"diagnostics"`
	ParsedAt     time.Time     `json:"parsed_at"`
	Measurements []Measurement `json:"measurements,omitempty"`
}

// Measurement is one persisted token.
type Measurement struct {
	Position  int               `json:"position"`
	Raw       string            `json:"raw"`
	Start     int               `json:"start"`
	End       int               `json:"end"`
	Value     ratio.Ratio       `json:"value"`
	Unit      string            `json:"unit"`
	Dimension unit.Dimension    `json:"dimension"`
	Best      string            `json:"best"`
	Magnitude measure.Magnitude `json:"magnitude"`
}

// NewDocument builds a record for a scanned text. The record gets a fresh
// ID and the current time.
func NewDocument(source string, doc *document.Document, style unit.Style) *Document {
	rec := &Document{
		ID:          uuid.NewString(),
		Source:      source,
		Text:        doc.Text,
		Tokens:      len(doc.Tokens),
		Diagnostics: len(doc.Diagnostics),
		ParsedAt:    time.Now().UTC().Truncate(time.Second),
	}
	for i, tok := range doc.Tokens {
		mag := tok.Magnitude()
		best := tok.Measure.Text(style)
		if m, ok := mag.BestMeasure(); ok {
			best = m.Text(style)
		}
		span := tok.Span()
		rec.Measurements = append(rec.Measurements, Measurement{
			Position:  i,
			Raw:       tok.Raw,
			Start:     span.Start,
			End:       span.End,
			Value:     tok.Measure.Value,
			Unit:      tok.Measure.Unit.Name(),
			Dimension: tok.Measure.Dimension(),
			Best:      best,
			Magnitude: mag,
		})
	}
	return rec
}
