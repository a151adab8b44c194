package matcher

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geo"
)

// planarBuffer intersects the projected polygon with a disk of
// Radius+Padding meters around the projected center.
type planarBuffer struct {
	region Region
	center orb.Point
	err    error
}

func newPlanar(region Region) *planarBuffer {
	m := &planarBuffer{region: region}
	m.center, m.err = geo.ToMercator(region.Center)
	return m
}

func (m *planarBuffer) Region() Region {
	return m.region
}

func (m *planarBuffer) Match(mp orb.MultiPolygon) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if len(mp) == 0 {
		return false, &geo.GeometryError{Reason: "empty multipolygon"}
	}

	radius := m.region.reach()
	if radius < 0 || math.IsNaN(radius) {
		return false, nil
	}

	projected, err := geo.MultiPolygonToMercator(mp)
	if err != nil {
		return false, err
	}

	// A disk centered inside the polygon intersects it at any radius.
	if planar.MultiPolygonContains(projected, m.center) {
		return true, nil
	}
	return planar.DistanceFrom(projected, m.center) <= radius, nil
}
