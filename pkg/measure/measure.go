package measure

import (
	"strings"

	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/unit"
)

// Measure is a rendering of a magnitude in one or more display units.
// It is implemented by SingleMeasure, MultiMeasure and RangeMeasure.
type Measure interface {
	// Magnitude returns the quantity the measure renders.
	Magnitude() Magnitude
	Dimension() unit.Dimension
	// MainUnit returns the unit of the leading (largest) part.
	MainUnit() unit.Unit
	// IsInteger reports whether the measure is a whole number of its unit.
	IsInteger() bool
	Text(style unit.Style) string
	String() string

	measure()
}

// SingleMeasure is one value in one unit.
type SingleMeasure struct {
	Value ratio.Ratio
	Unit  unit.Unit
}

// MultiMeasure is a composite rendering whose parts sum to one magnitude,
// largest unit first ("1 C 2 tbsp").
type MultiMeasure struct {
	Measures []SingleMeasure
}

// RangeMeasure renders both endpoints of a range magnitude.
type RangeMeasure struct {
	From SingleMeasure
	To   SingleMeasure
}

var (
	_ Measure = SingleMeasure{}
	_ Measure = MultiMeasure{}
	_ Measure = RangeMeasure{}
)

// Single returns value in u as a measure.
func Single(value ratio.Ratio, u unit.Unit) SingleMeasure {
	return SingleMeasure{Value: value, Unit: u}
}

// Multi returns a composite measure of the given parts.
func Multi(parts ...SingleMeasure) MultiMeasure {
	return MultiMeasure{Measures: parts}
}

func singleFromBase(base ratio.Ratio, u unit.Unit) SingleMeasure {
	return SingleMeasure{Value: u.FromBase(base), Unit: u}
}

func (SingleMeasure) measure() {}
func (MultiMeasure) measure()  {}
func (RangeMeasure) measure()  {}

// BaseValue returns the value converted into base units.
func (s SingleMeasure) BaseValue() ratio.Ratio {
	return s.Unit.ToBase(s.Value)
}

func (s SingleMeasure) Magnitude() Magnitude {
	return FromBase(s.BaseValue(), s.Unit.Dimension())
}

func (s SingleMeasure) Dimension() unit.Dimension { return s.Unit.Dimension() }

func (s SingleMeasure) MainUnit() unit.Unit { return s.Unit }

func (s SingleMeasure) IsInteger() bool { return s.Value.IsInt() }

// IsGood reports whether the value is non-zero and a whole multiple of 1,
// 1/8 or 1/3, the values a person would naturally write.
func (s SingleMeasure) IsGood() bool {
	return isGood(s.Value)
}

func (s SingleMeasure) Text(style unit.Style) string {
	plural := s.Value.Cmp(ratio.One) > 0
	return formatValue(s.Value) + " " + s.Unit.Text(style, plural)
}

func (s SingleMeasure) String() string { return s.Text(unit.Abbreviated) }

// Equal reports whether both measures carry the same value and unit.
func (s SingleMeasure) Equal(other SingleMeasure) bool {
	return s.Unit == other.Unit && s.Value.Equal(other.Value)
}

// BaseValue returns the sum of the parts in base units.
func (m MultiMeasure) BaseValue() ratio.Ratio {
	sum := ratio.Zero
	for _, part := range m.Measures {
		sum = sum.Add(part.BaseValue())
	}
	return sum
}

func (m MultiMeasure) Magnitude() Magnitude {
	return FromBase(m.BaseValue(), m.Dimension())
}

func (m MultiMeasure) Dimension() unit.Dimension {
	return m.MainUnit().Dimension()
}

func (m MultiMeasure) MainUnit() unit.Unit {
	if len(m.Measures) == 0 {
		return unit.Unit{}
	}
	return m.Measures[0].Unit
}

// IsInteger is always false: a composite is never a whole number in one
// unit, even when every part is.
func (m MultiMeasure) IsInteger() bool { return false }

func (m MultiMeasure) Text(style unit.Style) string {
	parts := make([]string, len(m.Measures))
	for i, part := range m.Measures {
		parts[i] = part.Text(style)
	}
	return strings.Join(parts, " ")
}

func (m MultiMeasure) String() string { return m.Text(unit.Abbreviated) }

func (r RangeMeasure) Magnitude() Magnitude {
	return RangeFromBase(r.From.BaseValue(), r.To.BaseValue(), r.Dimension())
}

func (r RangeMeasure) Dimension() unit.Dimension { return r.From.Dimension() }

func (r RangeMeasure) MainUnit() unit.Unit { return r.From.Unit }

func (r RangeMeasure) IsInteger() bool {
	return r.From.IsInteger() && r.To.IsInteger()
}

// Text renders "10-12 min" when both endpoints share a unit and
// "1 C - 1 pt" otherwise.
func (r RangeMeasure) Text(style unit.Style) string {
	if r.From.Unit == r.To.Unit {
		return formatValue(r.From.Value) + "-" + r.To.Text(style)
	}
	return r.From.Text(style) + " - " + r.To.Text(style)
}

func (r RangeMeasure) String() string { return r.Text(unit.Abbreviated) }
