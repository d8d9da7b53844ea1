package measure

import (
	"github.com/leapstack-labs/portion/pkg/unit"
)

// BestMeasures returns the natural renderings of the magnitude, smallest
// unit first.
//
// Every display unit of the dimension is tried in ascending order. A unit
// whose value is good (see SingleMeasure.IsGood) yields a single measure.
// Otherwise the whole part is kept and the remainder is re-expressed in the
// largest smaller unit in which both halves are good, yielding a two-part
// MultiMeasure. Once a single whole number in a common unit exists, every
// smaller candidate is dropped.
//
// Ranges only yield single-unit candidates where both endpoints are good.
// Magnitudes without display units (unitless, temperature) yield none.
func (m Magnitude) BestMeasures() []Measure {
	units := m.dim.DisplayUnits()
	if len(units) == 0 {
		return nil
	}

	var candidates []Measure
	if m.isRange {
		candidates = m.rangeCandidates(units)
	} else {
		candidates = m.singleCandidates(units)
	}

	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].IsInteger() && candidates[i].MainUnit().IsCommon() {
			return candidates[i:]
		}
	}
	return candidates
}

func (m Magnitude) singleCandidates(units []unit.Unit) []Measure {
	var candidates []Measure
	for i, u := range units {
		main := singleFromBase(m.from, u)
		if main.IsGood() {
			candidates = append(candidates, main)
			continue
		}

		whole := Single(main.Value.Trunc(), u)
		if !whole.IsGood() {
			continue
		}
		remainder := m.from.Sub(whole.BaseValue())
		for j := i - 1; j >= 0; j-- {
			sub := singleFromBase(remainder, units[j])
			if sub.IsGood() {
				candidates = append(candidates, Multi(whole, sub))
				break
			}
		}
	}
	return candidates
}

func (m Magnitude) rangeCandidates(units []unit.Unit) []Measure {
	var candidates []Measure
	for _, u := range units {
		r := RangeMeasure{From: singleFromBase(m.from, u), To: singleFromBase(m.to, u)}
		if r.From.IsGood() && r.To.IsGood() {
			candidates = append(candidates, r)
		}
	}
	return candidates
}

// BestMeasure returns the largest candidate whose main unit is common, or
// the smallest candidate when none is. It reports false when the magnitude
// has no candidates.
func (m Magnitude) BestMeasure() (Measure, bool) {
	candidates := m.BestMeasures()
	if len(candidates) == 0 {
		return nil, false
	}
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].MainUnit().IsCommon() {
			return candidates[i], true
		}
	}
	return candidates[0], true
}
