package unit

import (
	"sync"

	"golang.org/x/text/cases"
)

type entry struct {
	unit   Unit
	alias  string
	folded string
}

// Resolver maps words onto units.
//
// Resolution precedence for a word:
//  1. the first alias equal to the word, scanning units in table order;
//  2. otherwise the LAST alias equal to the word under case folding;
//  3. otherwise a dimensionless unit named by the word itself.
//
// The table order makes "C" resolve to Cup rather than Celsius, and the
// fold rule makes "TSP" resolve to Teaspoon while "T" stays Tablespoon.
type Resolver struct {
	units   []Unit
	entries []entry
}

// NewResolver builds a resolver over the given units in the given order.
func NewResolver(units ...Unit) *Resolver {
	fold := cases.Fold()
	r := &Resolver{units: clone(units)}
	for _, u := range units {
		for _, alias := range u.Aliases() {
			r.entries = append(r.entries, entry{unit: u, alias: alias, folded: fold.String(alias)})
		}
	}
	return r
}

var defaultResolver = sync.OnceValue(func() *Resolver {
	return NewResolver(Builtin()...)
})

// Default returns the shared resolver over the built-in units.
func Default() *Resolver {
	return defaultResolver()
}

// With returns a new resolver whose table is r's table followed by units.
func (r *Resolver) With(units ...Unit) *Resolver {
	all := append(clone(r.units), units...)
	return NewResolver(all...)
}

// Units returns the units of the resolution table in order.
func (r *Resolver) Units() []Unit {
	return clone(r.units)
}

// Lookup resolves word to a known unit.
func (r *Resolver) Lookup(word string) (Unit, bool) {
	for _, e := range r.entries {
		if e.alias == word {
			return e.unit, true
		}
	}

	// Casers hold state and are not safe for concurrent use.
	folded := cases.Fold().String(word)
	var (
		found Unit
		ok    bool
	)
	for _, e := range r.entries {
		if e.folded == folded {
			found, ok = e.unit, true
		}
	}
	return found, ok
}

// Resolve resolves word to a known unit, or to Unitless(word).
func (r *Resolver) Resolve(word string) Unit {
	if u, ok := r.Lookup(word); ok {
		return u
	}
	return Unitless(word)
}
