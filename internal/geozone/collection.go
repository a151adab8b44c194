// Package geozone models ED-269 style UAS geozone collections and their
// deterministic JSON encoding.
package geozone

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Collection level keys modelled by Collection.
const (
	KeyTitle    = "title"
	KeyFeatures = "features"
)

// Collection is a FeatureCollection with its metadata.
// Metadata keys other than title, description and features are kept in Extra.
type Collection struct {
	Title       *string
	Description *string
	Features    []Feature
	Extra       Object

	keys []string
}

// WithFeatures returns a copy of the collection metadata holding features.
// The receiver is left untouched.
func (c *Collection) WithFeatures(features []Feature) *Collection {
	out := &Collection{
		Features: features,
		Extra:    c.Extra.Clone(),
		keys:     slices.Clone(c.keys),
	}
	if c.Title != nil {
		title := *c.Title
		out.Title = &title
	}
	if c.Description != nil {
		desc := *c.Description
		out.Description = &desc
	}
	if !slices.Contains(out.keys, KeyFeatures) {
		out.keys = append(out.keys, KeyFeatures)
	}
	return out
}

// UnmarshalJSON decodes a collection document.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var obj Object
	if err := obj.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("feature collection: %w", err)
	}

	*c = Collection{keys: obj.Keys()}
	for _, m := range obj {
		switch m.Key {
		case KeyFeatures:
			var features []Feature
			if err := json.Unmarshal(m.Value, &features); err != nil {
				return fmt.Errorf("decode features: %w", err)
			}
			c.Features = features
			continue
		case KeyTitle:
			if s, ok := decodeString(m.Value); ok {
				c.Title = &s
				continue
			}
		case KeyDescription:
			if s, ok := decodeString(m.Value); ok {
				c.Description = &s
				continue
			}
		}
		c.Extra = append(c.Extra, m)
	}
	return nil
}

// MarshalJSON encodes the collection compactly in its original key order.
func (c Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.write(&buf, ","); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// write encodes the collection, joining features with sep.
func (c *Collection) write(buf *bytes.Buffer, sep string) error {
	var typed Object
	if c.Title != nil {
		if err := typed.SetValue(KeyTitle, *c.Title); err != nil {
			return err
		}
	}
	if c.Description != nil {
		if err := typed.SetValue(KeyDescription, *c.Description); err != nil {
			return err
		}
	}
	// Placeholder; features are streamed by the callback below.
	typed.Set(KeyFeatures, json.RawMessage("[]"))

	return ordered(c.keys, typed, c.Extra).writeTo(buf, func(buf *bytes.Buffer, m Member) (bool, error) {
		if m.Key != KeyFeatures {
			return false, nil
		}

		buf.WriteByte('[')
		for i := range c.Features {
			if i > 0 {
				buf.WriteString(sep)
			}
			raw, err := marshal(c.Features[i])
			if err != nil {
				return false, fmt.Errorf("encode feature %d: %w", i, err)
			}
			buf.Write(raw)
		}
		buf.WriteByte(']')
		return true, nil
	})
}
