// Package unit defines measurement units, the dimensions they belong to,
// and the resolver that maps words found in text onto units.
//
// A Unit is a small comparable value. Built-in units (Teaspoon, Cup, Hour,
// ...) are package variables backed by immutable definitions; a word that
// matches no known unit becomes a dimensionless named unit via Unitless.
// Every conversion factor is an exact ratio.Ratio giving the number of base
// units (drops for volume, seconds for time) in one of the unit.
package unit

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leapstack-labs/portion/pkg/ratio"
)

var (
	// ErrUnknownUnit is returned by strict lookups when a unit name cannot
	// be resolved. Resolver.Resolve never returns it.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrInvalidDefinition is returned by Define for malformed definitions.
	ErrInvalidDefinition = errors.New("invalid unit definition")
)

// Style selects how a unit is written out.
type Style int

// Styles.
const (
	Abbreviated Style = iota // "tsp"
	Described                // "teaspoon" / "teaspoons"
)

// ParseStyle parses "abbreviated" or "described".
func ParseStyle(s string) (Style, error) {
	switch s {
	case "", "abbreviated", "short":
		return Abbreviated, nil
	case "described", "long":
		return Described, nil
	default:
		return Abbreviated, fmt.Errorf("unknown unit style %q", s)
	}
}

// String returns the style name.
func (s Style) String() string {
	if s == Described {
		return "described"
	}
	return "abbreviated"
}

// Definition describes a unit with a fixed conversion multiple.
type Definition struct {
	Name         string      // singular description, the primary alias
	Plural       string      // plural description
	Abbreviation string      // short display form
	Aliases      []string    // additional recognized spellings
	Multiple     ratio.Ratio // base units per one of this unit
	Dimension    Dimension
	Common       bool // preferred for display within its dimension

	aliases []string // Name, Plural, Abbreviation, Aliases...
}

// Unit is a built-in or defined unit, or a dimensionless named unit.
// Units are comparable with ==.
type Unit struct {
	def  *Definition
	name string // only for dimensionless units
}

// Unitless returns a dimensionless unit carrying the given name, such as
// "cloves". Its multiple is 1.
func Unitless(name string) Unit {
	return Unit{name: name}
}

// Define validates d and returns a unit backed by a private copy of it.
func Define(d Definition) (Unit, error) {
	switch {
	case d.Name == "":
		return Unit{}, fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	case d.Multiple.Sign() <= 0:
		return Unit{}, fmt.Errorf("%w: %s: multiple must be positive", ErrInvalidDefinition, d.Name)
	case d.Dimension == Dimensionless:
		return Unit{}, fmt.Errorf("%w: %s: dimension is required", ErrInvalidDefinition, d.Name)
	}
	if _, ok := dimensionNames[d.Dimension]; !ok {
		return Unit{}, fmt.Errorf("%w: %s: unknown dimension", ErrInvalidDefinition, d.Name)
	}
	return define(d), nil
}

func define(d Definition) Unit {
	if d.Plural == "" {
		d.Plural = d.Name
	}
	if d.Abbreviation == "" {
		d.Abbreviation = d.Name
	}
	d.Aliases = append([]string(nil), d.Aliases...)
	d.aliases = append([]string{d.Name, d.Plural, d.Abbreviation}, d.Aliases...)
	return Unit{def: &d}
}

// IsUnitless reports whether u is a dimensionless named unit.
func (u Unit) IsUnitless() bool {
	return u.def == nil
}

// Name returns the primary (singular) name of the unit.
func (u Unit) Name() string {
	if u.def == nil {
		return u.name
	}
	return u.def.Name
}

// Dimension returns the dimension the unit belongs to.
func (u Unit) Dimension() Dimension {
	if u.def == nil {
		return Dimensionless
	}
	return u.def.Dimension
}

// Multiple returns the number of base units in one of this unit.
func (u Unit) Multiple() ratio.Ratio {
	if u.def == nil {
		return ratio.One
	}
	return u.def.Multiple
}

// Aliases returns the recognized spellings in precedence order: name,
// plural, abbreviation, then extra aliases. Dimensionless units have none.
func (u Unit) Aliases() []string {
	if u.def == nil {
		return nil
	}
	return append([]string(nil), u.def.aliases...)
}

// Abbreviation returns the short display form.
func (u Unit) Abbreviation() string {
	if u.def == nil {
		return u.name
	}
	return u.def.Abbreviation
}

// Description returns the singular or plural description.
func (u Unit) Description(plural bool) string {
	switch {
	case u.def == nil:
		return u.name
	case plural:
		return u.def.Plural
	default:
		return u.def.Name
	}
}

// IsCommon reports whether the unit is preferred for display.
func (u Unit) IsCommon() bool {
	return u.def != nil && u.def.Common
}

// Text returns the unit written in the given style.
func (u Unit) Text(style Style, plural bool) string {
	if style == Described {
		return u.Description(plural)
	}
	return u.Abbreviation()
}

// ToBase converts a value in this unit into base units.
func (u Unit) ToBase(value ratio.Ratio) ratio.Ratio {
	return value.Mul(u.Multiple())
}

// FromBase converts a value in base units into this unit.
func (u Unit) FromBase(base ratio.Ratio) ratio.Ratio {
	return base.Quo(u.Multiple())
}

// String returns the abbreviation.
func (u Unit) String() string {
	return u.Abbreviation()
}

// GoString returns the plural description, for debugging output.
func (u Unit) GoString() string {
	return u.Description(true)
}

type unitJSON struct {
	Dimension Dimension `json:"dimension"`
	Name      string    `json:"name"`
}

// MarshalJSON encodes the unit as its dimension and primary name.
func (u Unit) MarshalJSON() ([]byte, error) {
	return json.Marshal(unitJSON{Dimension: u.Dimension(), Name: u.Name()})
}

// UnmarshalJSON decodes a unit written by MarshalJSON. Only built-in and
// dimensionless units can be decoded; other names yield ErrUnknownUnit.
func (u *Unit) UnmarshalJSON(data []byte) error {
	var v unitJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Dimension == Dimensionless {
		*u = Unitless(v.Name)
		return nil
	}
	found, ok := ByName(v.Dimension, v.Name)
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrUnknownUnit, v.Dimension, v.Name)
	}
	*u = found
	return nil
}
