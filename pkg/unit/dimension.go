package unit

import (
	"fmt"
	"strings"
)

// Dimension identifies a family of mutually convertible units.
type Dimension uint8

// Dimensions.
const (
	Dimensionless Dimension = iota // bespoke counting units ("cloves", "times")
	Volume
	Temperature
	Time
)

var dimensionNames = map[Dimension]string{
	Dimensionless: "unitless",
	Volume:        "volume",
	Temperature:   "temperature",
	Time:          "time",
}

// Dimensions returns every dimension in declaration order.
func Dimensions() []Dimension {
	return []Dimension{Dimensionless, Volume, Temperature, Time}
}

// String returns the lowercase dimension name.
func (d Dimension) String() string {
	if name, ok := dimensionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dimension(%d)", uint8(d))
}

// ParseDimension returns the dimension with the given name (case-insensitive).
func ParseDimension(name string) (Dimension, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d, n := range dimensionNames {
		if n == name {
			return d, nil
		}
	}
	return Dimensionless, fmt.Errorf("unknown dimension %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (d Dimension) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dimension) UnmarshalText(text []byte) error {
	parsed, err := ParseDimension(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Units returns the built-in units of the dimension, ordered from the
// smallest multiple to the largest.
func (d Dimension) Units() []Unit {
	return clone(builtinUnits[d])
}

// DisplayUnits returns the ordered units best-measure selection may render
// a magnitude of this dimension in. Temperature scales are not related by a
// multiple, so temperatures are never re-rendered and the list is empty.
func (d Dimension) DisplayUnits() []Unit {
	if d == Temperature {
		return nil
	}
	return d.Units()
}

// CommonUnits returns the units flagged as preferred for display.
func (d Dimension) CommonUnits() []Unit {
	var common []Unit
	for _, u := range builtinUnits[d] {
		if u.IsCommon() {
			common = append(common, u)
		}
	}
	return common
}

func clone(units []Unit) []Unit {
	if units == nil {
		return nil
	}
	out := make([]Unit, len(units))
	copy(out, units)
	return out
}
