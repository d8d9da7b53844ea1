package report

import (
	"fmt"

	"github.com/leapstack-labs/portion/pkg/measure"
	"github.com/leapstack-labs/portion/pkg/parser"
	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/unit"
)

// Conversion is a quantity expressed in a requested unit.
type Conversion struct {
	Input   string          `json:"input"`
	To      string          `json:"to"`
	Measure measure.Measure `json:"measure"`
	Text    string          `json:"text"`
}

// Convert parses quantity and expresses it in the unit named to. The target
// must be a known unit of the same dimension.
func Convert(p *parser.Parser, quantity, to string, style unit.Style) (Conversion, error) {
	m, err := p.Value(quantity)
	if err != nil {
		return Conversion{}, err
	}
	u, ok := p.Resolver().Lookup(to)
	if !ok {
		return Conversion{}, fmt.Errorf("%w: %q", unit.ErrUnknownUnit, to)
	}
	out, err := m.Magnitude().Measure(u)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{
		Input:   quantity,
		To:      u.Name(),
		Measure: out,
		Text:    out.Text(style),
	}, nil
}

// Best lists the display candidates of a quantity and the pick among them.
type Best struct {
	Input       string                `json:"input"`
	Measure     measure.SingleMeasure `json:"measure"`
	Best        string                `json:"best"`
	BestMeasure measure.Measure       `json:"best_measure,omitempty"`
	Candidates  []string              `json:"candidates"`
}

// NewBest parses quantity and selects its best measure. Quantities without
// display units keep their own text and have no candidates.
func NewBest(p *parser.Parser, quantity string, style unit.Style) (Best, error) {
	m, err := p.Value(quantity)
	if err != nil {
		return Best{}, err
	}
	b := Best{
		Input:      quantity,
		Measure:    m,
		Best:       m.Text(style),
		Candidates: []string{},
	}
	mag := m.Magnitude()
	for _, c := range mag.BestMeasures() {
		b.Candidates = append(b.Candidates, c.Text(style))
	}
	if best, ok := mag.BestMeasure(); ok {
		b.Best = best.Text(style)
		b.BestMeasure = best
	}
	return b, nil
}

// UnitInfo describes one unit of a resolution table.
type UnitInfo struct {
	Name         string         `json:"name"`
	Plural       string         `json:"plural"`
	Abbreviation string         `json:"abbreviation"`
	Dimension    unit.Dimension `json:"dimension"`
	Multiple     ratio.Ratio    `json:"multiple"`
	Common       bool           `json:"common"`
	Aliases      []string       `json:"aliases"`
}

// NewUnitInfo describes u.
func NewUnitInfo(u unit.Unit) UnitInfo {
	return UnitInfo{
		Name:         u.Name(),
		Plural:       u.Description(true),
		Abbreviation: u.Abbreviation(),
		Dimension:    u.Dimension(),
		Multiple:     u.Multiple(),
		Common:       u.IsCommon(),
		Aliases:      u.Aliases(),
	}
}

// Units describes the units of r, optionally only those of one dimension.
func Units(r *unit.Resolver, only *unit.Dimension) []UnitInfo {
	units := []UnitInfo{}
	for _, u := range r.Units() {
		if only != nil && u.Dimension() != *only {
			continue
		}
		units = append(units, NewUnitInfo(u))
	}
	return units
}
