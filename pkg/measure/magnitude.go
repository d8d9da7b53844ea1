// Package measure models dimensioned quantities and their human-facing
// renderings.
//
// A Magnitude is the source of truth: an exact value (or pair of values for
// a range) in the base unit of its dimension. A Measure is a derived view
// of a magnitude in one or more display units. Converting a magnitude into
// any unit of its dimension and back is exact.
package measure

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/unit"
)

// ErrDimensionMismatch is returned when two quantities or a quantity and a
// unit belong to different dimensions.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Magnitude is an immutable exact quantity in the base unit of a dimension,
// either a single value or a from/to range.
type Magnitude struct {
	dim     unit.Dimension
	from    ratio.Ratio
	to      ratio.Ratio
	isRange bool
}

// New converts value expressed in u into a single magnitude.
func New(value ratio.Ratio, u unit.Unit) Magnitude {
	return FromBase(u.ToBase(value), u.Dimension())
}

// FromBase returns a single magnitude of base units.
func FromBase(base ratio.Ratio, dim unit.Dimension) Magnitude {
	return Magnitude{dim: dim, from: base, to: base}
}

// NewRange converts the endpoints, each in its own unit, into a range
// magnitude. Both units must share a dimension.
func NewRange(from ratio.Ratio, fromUnit unit.Unit, to ratio.Ratio, toUnit unit.Unit) (Magnitude, error) {
	if fromUnit.Dimension() != toUnit.Dimension() {
		return Magnitude{}, fmt.Errorf("%w: range from %s to %s",
			ErrDimensionMismatch, fromUnit.Dimension(), toUnit.Dimension())
	}
	return RangeFromBase(fromUnit.ToBase(from), toUnit.ToBase(to), fromUnit.Dimension()), nil
}

// RangeFromBase returns a range magnitude of base units.
func RangeFromBase(from, to ratio.Ratio, dim unit.Dimension) Magnitude {
	return Magnitude{dim: dim, from: from, to: to, isRange: true}
}

// Dimension returns the dimension of the magnitude.
func (m Magnitude) Dimension() unit.Dimension { return m.dim }

// IsRange reports whether the magnitude is a range.
func (m Magnitude) IsRange() bool { return m.isRange }

// Base returns the base value of a single magnitude, or the lower endpoint
// of a range.
func (m Magnitude) Base() ratio.Ratio { return m.from }

// BaseRange returns both endpoints. For a single magnitude they are equal.
func (m Magnitude) BaseRange() (from, to ratio.Ratio) { return m.from, m.to }

// Scale returns the magnitude multiplied by factor.
func (m Magnitude) Scale(factor ratio.Ratio) Magnitude {
	m.from = m.from.Mul(factor)
	m.to = m.to.Mul(factor)
	return m
}

// Add returns the sum of two magnitudes of the same dimension. Adding a
// range to anything yields a range whose endpoints are summed pairwise.
func (m Magnitude) Add(other Magnitude) (Magnitude, error) {
	if m.dim != other.dim {
		return Magnitude{}, fmt.Errorf("%w: cannot add %s to %s", ErrDimensionMismatch, other.dim, m.dim)
	}
	return Magnitude{
		dim:     m.dim,
		from:    m.from.Add(other.from),
		to:      m.to.Add(other.to),
		isRange: m.isRange || other.isRange,
	}, nil
}

// Equal reports whether two magnitudes have the same dimension, shape and
// base values. The units they were written in are irrelevant.
func (m Magnitude) Equal(other Magnitude) bool {
	return m.dim == other.dim &&
		m.isRange == other.isRange &&
		m.from.Equal(other.from) &&
		m.to.Equal(other.to)
}

// Measure renders the magnitude in u. A range renders both endpoints in u.
func (m Magnitude) Measure(u unit.Unit) (Measure, error) {
	if u.Dimension() != m.dim {
		return nil, fmt.Errorf("%w: cannot express %s in %s", ErrDimensionMismatch, m.dim, u.Name())
	}
	if m.isRange {
		return RangeMeasure{
			From: singleFromBase(m.from, u),
			To:   singleFromBase(m.to, u),
		}, nil
	}
	return singleFromBase(m.from, u), nil
}

// String renders the magnitude in its best measure, or in base units of its
// dimension when no display unit applies.
func (m Magnitude) String() string {
	if best, ok := m.BestMeasure(); ok {
		return best.String()
	}
	if m.isRange {
		return fmt.Sprintf("%s-%s %s", formatValue(m.from), formatValue(m.to), m.dim)
	}
	return fmt.Sprintf("%s %s", formatValue(m.from), m.dim)
}
