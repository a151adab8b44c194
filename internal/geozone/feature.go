package geozone

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// ED-269 feature keys modelled by Feature.
const (
	KeyIdentifier      = "identifier"
	KeyName            = "name"
	KeyOtherReasonInfo = "otherReasonInfo"
	KeyGeometry        = "geometry"
	KeyApplicability   = "applicability"
	KeyDescription     = "description"
)

// Category tags carried in otherReasonInfo and counted in the summary.
const (
	CategoryATM09 = "ATM09"
	CategoryNFZ   = "NFZ"
	CategoryNOTAM = "NOTAM"
)

// Feature is a single geozone.
// Keys not modelled here travel untouched in Extra.
type Feature struct {
	Identifier      string
	Name            string
	OtherReasonInfo string
	Geometry        []Geometry
	Applicability   []Applicability
	Extra           Object

	keys []string
}

// Has reports whether the feature carries key, typed or passthrough.
func (f *Feature) Has(key string) bool {
	return slices.Contains(f.keys, key) || f.Extra.Has(key)
}

// RemoveApplicability drops the applicability key entirely.
func (f *Feature) RemoveApplicability() {
	f.Applicability = nil
	f.Extra.Delete(KeyApplicability)
	f.keys = slices.DeleteFunc(f.keys, func(k string) bool { return k == KeyApplicability })
}

// SetDescription stores a feature level description.
func (f *Feature) SetDescription(text string) error {
	return f.Extra.SetValue(KeyDescription, text)
}

// Description returns the feature description when it is a string.
func (f *Feature) Description() (string, bool) {
	raw, ok := f.Extra.Get(KeyDescription)
	if !ok {
		return "", false
	}
	return decodeString(raw)
}

// Clone returns an independent deep copy of the feature.
func (f *Feature) Clone() Feature {
	out := Feature{
		Identifier:      f.Identifier,
		Name:            f.Name,
		OtherReasonInfo: f.OtherReasonInfo,
		Extra:           f.Extra.Clone(),
		keys:            slices.Clone(f.keys),
	}
	if f.Geometry != nil {
		out.Geometry = make([]Geometry, len(f.Geometry))
		for i := range f.Geometry {
			out.Geometry[i] = f.Geometry[i].Clone()
		}
	}
	if f.Applicability != nil {
		out.Applicability = make([]Applicability, len(f.Applicability))
		for i := range f.Applicability {
			out.Applicability[i] = f.Applicability[i].Clone()
		}
	}
	return out
}

// UnmarshalJSON decodes a feature, keeping unknown or mistyped keys in Extra.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var obj Object
	if err := obj.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("feature: %w", err)
	}

	*f = Feature{keys: obj.Keys()}
	for _, m := range obj {
		switch m.Key {
		case KeyIdentifier:
			if s, ok := decodeString(m.Value); ok {
				f.Identifier = s
				continue
			}
		case KeyName:
			if s, ok := decodeString(m.Value); ok {
				f.Name = s
				continue
			}
		case KeyOtherReasonInfo:
			if s, ok := decodeString(m.Value); ok {
				f.OtherReasonInfo = s
				continue
			}
		case KeyGeometry:
			var geoms []Geometry
			if err := json.Unmarshal(m.Value, &geoms); err == nil {
				f.Geometry = geoms
				continue
			}
		case KeyApplicability:
			var apps []Applicability
			if err := json.Unmarshal(m.Value, &apps); err == nil {
				f.Applicability = apps
				continue
			}
		}
		f.Extra = append(f.Extra, m)
	}
	return nil
}

// MarshalJSON encodes the feature in its original key order.
func (f Feature) MarshalJSON() ([]byte, error) {
	var typed Object

	strs := []struct {
		key   string
		value string
	}{
		{KeyIdentifier, f.Identifier},
		{KeyName, f.Name},
		{KeyOtherReasonInfo, f.OtherReasonInfo},
	}
	for _, s := range strs {
		if f.emits(s.key, s.value != "") {
			if err := typed.SetValue(s.key, s.value); err != nil {
				return nil, err
			}
		}
	}

	if f.emits(KeyApplicability, f.Applicability != nil) {
		if err := typed.SetValue(KeyApplicability, f.Applicability); err != nil {
			return nil, err
		}
	}
	if f.emits(KeyGeometry, f.Geometry != nil) {
		if err := typed.SetValue(KeyGeometry, f.Geometry); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := ordered(f.keys, typed, f.Extra).writeTo(&buf, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// emits reports whether a typed key is written: it is set, or it was present
// in the source and did not fall back to Extra.
func (f *Feature) emits(key string, set bool) bool {
	if f.Extra.Has(key) {
		return false
	}
	return set || slices.Contains(f.keys, key)
}

// Applicability is a time window during which a geozone is in force.
type Applicability struct {
	StartDateTime string
	EndDateTime   string
	Extra         Object

	keys []string
	raw  json.RawMessage
}

// Applicability keys modelled by Applicability.
const (
	KeyStartDateTime = "startDateTime"
	KeyEndDateTime   = "endDateTime"
)

// HasTimes reports whether the window carries a start or end time key.
func (a *Applicability) HasTimes() bool {
	return slices.Contains(a.keys, KeyStartDateTime) || slices.Contains(a.keys, KeyEndDateTime)
}

// Clone returns a deep copy.
func (a *Applicability) Clone() Applicability {
	return Applicability{
		StartDateTime: a.StartDateTime,
		EndDateTime:   a.EndDateTime,
		Extra:         a.Extra.Clone(),
		keys:          slices.Clone(a.keys),
		raw:           bytes.Clone(a.raw),
	}
}

// UnmarshalJSON decodes a window. Entries that are not objects are kept raw.
func (a *Applicability) UnmarshalJSON(data []byte) error {
	var obj Object
	if err := obj.UnmarshalJSON(data); err != nil {
		*a = Applicability{raw: bytes.Clone(data)}
		return nil
	}

	*a = Applicability{keys: obj.Keys()}
	for _, m := range obj {
		switch m.Key {
		case KeyStartDateTime:
			if s, ok := decodeString(m.Value); ok {
				a.StartDateTime = s
				continue
			}
		case KeyEndDateTime:
			if s, ok := decodeString(m.Value); ok {
				a.EndDateTime = s
				continue
			}
		}
		a.Extra = append(a.Extra, m)
	}
	return nil
}

// MarshalJSON encodes the window in its original key order.
func (a Applicability) MarshalJSON() ([]byte, error) {
	if a.raw != nil {
		return a.raw, nil
	}

	var typed Object
	if !a.Extra.Has(KeyStartDateTime) && (a.StartDateTime != "" || slices.Contains(a.keys, KeyStartDateTime)) {
		if err := typed.SetValue(KeyStartDateTime, a.StartDateTime); err != nil {
			return nil, err
		}
	}
	if !a.Extra.Has(KeyEndDateTime) && (a.EndDateTime != "" || slices.Contains(a.keys, KeyEndDateTime)) {
		if err := typed.SetValue(KeyEndDateTime, a.EndDateTime); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := ordered(a.keys, typed, a.Extra).writeTo(&buf, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeString decodes raw only when it is a JSON string literal.
func decodeString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
