package measure

import (
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/unit"
)

// Measure kinds on the wire.
const (
	KindSingle = "single"
	KindMulti  = "multi"
	KindRange  = "range"
)

type singleJSON struct {
	Value ratio.Ratio `json:"value"`
	Unit  unit.Unit   `json:"unit"`
}

type measureJSON struct {
	Type     string       `json:"type"`
	Value    *ratio.Ratio `json:"value,omitempty"`
	Unit     *unit.Unit   `json:"unit,omitempty"`
	Measures []singleJSON `json:"measures,omitempty"`
	From     *singleJSON  `json:"from,omitempty"`
	To       *singleJSON  `json:"to,omitempty"`
}

// MarshalJSON encodes {"type":"single","value":"3/4","unit":{...}}.
func (s SingleMeasure) MarshalJSON() ([]byte, error) {
	return json.Marshal(measureJSON{Type: KindSingle, Value: &s.Value, Unit: &s.Unit})
}

// MarshalJSON encodes {"type":"multi","measures":[{"value":...,"unit":...}]}.
func (m MultiMeasure) MarshalJSON() ([]byte, error) {
	parts := make([]singleJSON, len(m.Measures))
	for i, part := range m.Measures {
		parts[i] = singleJSON(part)
	}
	return json.Marshal(measureJSON{Type: KindMulti, Measures: parts})
}

// MarshalJSON encodes {"type":"range","from":{...},"to":{...}}.
func (r RangeMeasure) MarshalJSON() ([]byte, error) {
	from, to := singleJSON(r.From), singleJSON(r.To)
	return json.Marshal(measureJSON{Type: KindRange, From: &from, To: &to})
}

// UnmarshalJSON decodes a single measure.
func (s *SingleMeasure) UnmarshalJSON(data []byte) error {
	m, err := UnmarshalMeasure(data)
	if err != nil {
		return err
	}
	single, ok := m.(SingleMeasure)
	if !ok {
		return fmt.Errorf("expected a %s measure", KindSingle)
	}
	*s = single
	return nil
}

// UnmarshalJSON decodes a multi measure.
func (m *MultiMeasure) UnmarshalJSON(data []byte) error {
	decoded, err := UnmarshalMeasure(data)
	if err != nil {
		return err
	}
	multi, ok := decoded.(MultiMeasure)
	if !ok {
		return fmt.Errorf("expected a %s measure", KindMulti)
	}
	*m = multi
	return nil
}

// UnmarshalJSON decodes a range measure.
func (r *RangeMeasure) UnmarshalJSON(data []byte) error {
	m, err := UnmarshalMeasure(data)
	if err != nil {
		return err
	}
	rng, ok := m.(RangeMeasure)
	if !ok {
		return fmt.Errorf("expected a %s measure", KindRange)
	}
	*r = rng
	return nil
}

// UnmarshalMeasure decodes any measure written by the MarshalJSON methods.
// Units that are neither built-in nor unitless fail with unit.ErrUnknownUnit.
func UnmarshalMeasure(data []byte) (Measure, error) {
	var v measureJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode measure: %w", err)
	}

	switch v.Type {
	case KindSingle:
		if v.Value == nil || v.Unit == nil {
			return nil, fmt.Errorf("%s measure requires value and unit", KindSingle)
		}
		return SingleMeasure{Value: *v.Value, Unit: *v.Unit}, nil
	case KindMulti:
		if len(v.Measures) == 0 {
			return nil, fmt.Errorf("%s measure requires at least one part", KindMulti)
		}
		parts := make([]SingleMeasure, len(v.Measures))
		for i, part := range v.Measures {
			parts[i] = SingleMeasure(part)
		}
		return MultiMeasure{Measures: parts}, nil
	case KindRange:
		if v.From == nil || v.To == nil {
			return nil, fmt.Errorf("%s measure requires from and to", KindRange)
		}
		return RangeMeasure{From: SingleMeasure(*v.From), To: SingleMeasure(*v.To)}, nil
	default:
		return nil, fmt.Errorf("unknown measure type %q", v.Type)
	}
}

type magnitudeJSON struct {
	Dimension unit.Dimension `json:"dimension"`
	Base      *ratio.Ratio   `json:"base,omitempty"`
	From      *ratio.Ratio   `json:"from,omitempty"`
	To        *ratio.Ratio   `json:"to,omitempty"`
}

// MarshalJSON encodes {"dimension":"volume","base":"96"} for a single
// magnitude and {"dimension":...,"from":...,"to":...} for a range.
func (m Magnitude) MarshalJSON() ([]byte, error) {
	v := magnitudeJSON{Dimension: m.dim}
	if m.isRange {
		v.From, v.To = &m.from, &m.to
	} else {
		v.Base = &m.from
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes a magnitude written by MarshalJSON.
func (m *Magnitude) UnmarshalJSON(data []byte) error {
	var v magnitudeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to decode magnitude: %w", err)
	}
	switch {
	case v.Base != nil:
		*m = FromBase(*v.Base, v.Dimension)
	case v.From != nil && v.To != nil:
		*m = RangeFromBase(*v.From, *v.To, v.Dimension)
	default:
		return fmt.Errorf("magnitude requires base or from and to")
	}
	return nil
}
