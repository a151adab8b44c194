package geozone

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Geometry entry keys modelled by Geometry.
const (
	KeyHorizontalProjection   = "horizontalProjection"
	KeyLowerLimit             = "lowerLimit"
	KeyLowerVerticalReference = "lowerVerticalReference"
	KeyUpperLimit             = "upperLimit"
	KeyUpperVerticalReference = "upperVerticalReference"
)

// Vertical reference codes.
const (
	ReferenceAGL  = "AGL"
	ReferenceAMSL = "AMSL"
)

// SchemaError reports a geometry entry missing an expected key.
type SchemaError struct {
	Feature  string
	Geometry int
	Field    string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("feature %q geometry %d: missing %s", e.Feature, e.Geometry, e.Field)
}

// Geometry is one volume of a feature: a horizontal projection bounded by a
// lower and an upper limit.
type Geometry struct {
	HorizontalProjection   json.RawMessage
	LowerLimit             json.Number
	LowerVerticalReference string
	UpperLimit             json.Number
	UpperVerticalReference string
	Extra                  Object

	keys []string
	raw  json.RawMessage
}

// Validate checks that the entry carries a horizontal projection object.
func (g *Geometry) Validate(feature string, index int) error {
	if g.raw != nil {
		return &SchemaError{Feature: feature, Geometry: index, Field: "geometry object"}
	}
	hp := bytes.TrimSpace(g.HorizontalProjection)
	if len(hp) == 0 || hp[0] != '{' {
		return &SchemaError{Feature: feature, Geometry: index, Field: KeyHorizontalProjection}
	}
	return nil
}

// Lower returns the lower limit as a float, or 0 if it is not numeric.
func (g *Geometry) Lower() float64 {
	v, _ := g.LowerLimit.Float64()
	return v
}

// Upper returns the upper limit as a float, or 0 if it is not numeric.
func (g *Geometry) Upper() float64 {
	v, _ := g.UpperLimit.Float64()
	return v
}

// Clone returns a deep copy.
func (g *Geometry) Clone() Geometry {
	return Geometry{
		HorizontalProjection:   bytes.Clone(g.HorizontalProjection),
		LowerLimit:             g.LowerLimit,
		LowerVerticalReference: g.LowerVerticalReference,
		UpperLimit:             g.UpperLimit,
		UpperVerticalReference: g.UpperVerticalReference,
		Extra:                  g.Extra.Clone(),
		keys:                   slices.Clone(g.keys),
		raw:                    bytes.Clone(g.raw),
	}
}

// UnmarshalJSON decodes a geometry entry. Entries that are not objects are
// kept raw so the feature still round-trips.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var obj Object
	if err := obj.UnmarshalJSON(data); err != nil {
		*g = Geometry{raw: bytes.Clone(data)}
		return nil
	}

	*g = Geometry{keys: obj.Keys()}
	for _, m := range obj {
		switch m.Key {
		case KeyHorizontalProjection:
			g.HorizontalProjection = m.Value
			continue
		case KeyLowerLimit:
			if n, ok := decodeNumber(m.Value); ok {
				g.LowerLimit = n
				continue
			}
		case KeyUpperLimit:
			if n, ok := decodeNumber(m.Value); ok {
				g.UpperLimit = n
				continue
			}
		case KeyLowerVerticalReference:
			if s, ok := decodeString(m.Value); ok {
				g.LowerVerticalReference = s
				continue
			}
		case KeyUpperVerticalReference:
			if s, ok := decodeString(m.Value); ok {
				g.UpperVerticalReference = s
				continue
			}
		}
		g.Extra = append(g.Extra, m)
	}
	return nil
}

// MarshalJSON encodes the entry in its original key order.
func (g Geometry) MarshalJSON() ([]byte, error) {
	if g.raw != nil {
		return g.raw, nil
	}

	emits := func(key string, set bool) bool {
		if g.Extra.Has(key) {
			return false
		}
		return set || slices.Contains(g.keys, key)
	}

	var typed Object
	if emits(KeyHorizontalProjection, len(g.HorizontalProjection) > 0) {
		hp := g.HorizontalProjection
		if len(hp) == 0 {
			hp = json.RawMessage("null")
		}
		typed.Set(KeyHorizontalProjection, hp)
	}
	if emits(KeyLowerLimit, g.LowerLimit != "") {
		typed.Set(KeyLowerLimit, numberOrNull(g.LowerLimit))
	}
	if emits(KeyLowerVerticalReference, g.LowerVerticalReference != "") {
		if err := typed.SetValue(KeyLowerVerticalReference, g.LowerVerticalReference); err != nil {
			return nil, err
		}
	}
	if emits(KeyUpperLimit, g.UpperLimit != "") {
		typed.Set(KeyUpperLimit, numberOrNull(g.UpperLimit))
	}
	if emits(KeyUpperVerticalReference, g.UpperVerticalReference != "") {
		if err := typed.SetValue(KeyUpperVerticalReference, g.UpperVerticalReference); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := ordered(g.keys, typed, g.Extra).writeTo(&buf, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeNumber decodes raw only when it is a JSON number literal, keeping
// its exact text.
func decodeNumber(raw json.RawMessage) (json.Number, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	n, ok := v.(json.Number)
	return n, ok
}

func numberOrNull(n json.Number) json.RawMessage {
	if n == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(n)
}
