// Package geo handles geozone geometry: GeoJSON decoding, validity repair,
// centroids, geodesic distance and projections.
package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeometryError indicates a horizontal projection that cannot be used for matching.
type GeometryError struct {
	Reason string
	Err    error
}

func (e *GeometryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid geometry: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid geometry: %s", e.Reason)
}

func (e *GeometryError) Unwrap() error {
	return e.Err
}

// DecodeProjection parses a GeoJSON Polygon or MultiPolygon.
// Polygons are returned as single-member multipolygons.
func DecodeProjection(raw json.RawMessage) (orb.MultiPolygon, error) {
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, &GeometryError{Reason: "decode horizontal projection", Err: err}
	}

	switch shape := g.Coordinates.(type) {
	case orb.Polygon:
		if len(shape) == 0 {
			return nil, &GeometryError{Reason: "empty polygon"}
		}
		return orb.MultiPolygon{shape}, nil
	case orb.MultiPolygon:
		if len(shape) == 0 {
			return nil, &GeometryError{Reason: "empty multipolygon"}
		}
		return shape, nil
	case nil:
		return nil, &GeometryError{Reason: "missing coordinates"}
	default:
		return nil, &GeometryError{Reason: fmt.Sprintf("unsupported geometry type %s", shape.GeoJSONType())}
	}
}
