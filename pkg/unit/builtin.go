package unit

import "github.com/leapstack-labs/portion/pkg/ratio"

// Volume units. The base unit is the drop.
var (
	Drop = define(Definition{
		Name: "drop", Plural: "drops", Abbreviation: "dr",
		Aliases:  []string{"gt", "gtt"},
		Multiple: ratio.Int(1), Dimension: Volume,
	})
	Smidgen = define(Definition{
		Name: "smidgen", Plural: "smidgens", Abbreviation: "smdg",
		Aliases:  []string{"smi"},
		Multiple: ratio.Int(3), Dimension: Volume,
	})
	Pinch = define(Definition{
		Name: "pinch", Plural: "pinches", Abbreviation: "pn",
		Multiple: ratio.Int(6), Dimension: Volume,
	})
	Dash = define(Definition{
		Name: "dash", Plural: "dashes", Abbreviation: "ds",
		Multiple: ratio.Int(12), Dimension: Volume,
	})
	Teaspoon = define(Definition{
		Name: "teaspoon", Plural: "teaspoons", Abbreviation: "tsp",
		Aliases:  []string{"t"},
		Multiple: ratio.Int(96), Dimension: Volume, Common: true,
	})
	Tablespoon = define(Definition{
		Name: "tablespoon", Plural: "tablespoons", Abbreviation: "tbsp",
		Aliases:  []string{"Tb", "T"},
		Multiple: ratio.Int(288), Dimension: Volume, Common: true,
	})
	Cup = define(Definition{
		Name: "cup", Plural: "cups", Abbreviation: "C",
		Aliases:  []string{"c"},
		Multiple: ratio.Int(4608), Dimension: Volume, Common: true,
	})
	Pint = define(Definition{
		Name: "pint", Plural: "pints", Abbreviation: "pt",
		Multiple: ratio.Int(9216), Dimension: Volume,
	})
	Quart = define(Definition{
		Name: "quart", Plural: "quarts", Abbreviation: "qt",
		Multiple: ratio.Int(18432), Dimension: Volume,
	})
	Gallon = define(Definition{
		Name: "gallon", Plural: "gallons", Abbreviation: "gal",
		Multiple: ratio.Int(73728), Dimension: Volume,
	})
)

// Temperature units. Both scales carry a multiple of 1; values are labels
// on a scale and are never converted between scales.
var (
	Fahrenheit = define(Definition{
		Name: "fahrenheit", Plural: "fahrenheit", Abbreviation: "F",
		Aliases:  []string{"degrees", "°F"},
		Multiple: ratio.Int(1), Dimension: Temperature,
	})
	Celsius = define(Definition{
		Name: "celsius", Plural: "celsius", Abbreviation: "C",
		Aliases:  []string{"°C"},
		Multiple: ratio.Int(1), Dimension: Temperature,
	})
)

// Time units. The base unit is the second.
var (
	Second = define(Definition{
		Name: "second", Plural: "seconds", Abbreviation: "sec",
		Aliases:  []string{"secs"},
		Multiple: ratio.Int(1), Dimension: Time,
	})
	Minute = define(Definition{
		Name: "minute", Plural: "minutes", Abbreviation: "min",
		Aliases:  []string{"mins"},
		Multiple: ratio.Int(60), Dimension: Time, Common: true,
	})
	Hour = define(Definition{
		Name: "hour", Plural: "hours", Abbreviation: "hr",
		Aliases:  []string{"hrs"},
		Multiple: ratio.Int(3600), Dimension: Time, Common: true,
	})
)

var builtinUnits = map[Dimension][]Unit{
	Volume:      {Drop, Smidgen, Pinch, Dash, Teaspoon, Tablespoon, Cup, Pint, Quart, Gallon},
	Temperature: {Fahrenheit, Celsius},
	Time:        {Second, Minute, Hour},
}

// Builtin returns every built-in unit in resolution order: volume, then
// temperature, then time, each ascending by multiple.
func Builtin() []Unit {
	var all []Unit
	for _, d := range []Dimension{Volume, Temperature, Time} {
		all = append(all, builtinUnits[d]...)
	}
	return all
}

// ByName returns the built-in unit of the dimension whose primary name is
// name.
func ByName(d Dimension, name string) (Unit, bool) {
	for _, u := range builtinUnits[d] {
		if u.Name() == name {
			return u, true
		}
	}
	return Unit{}, false
}
