package matcher

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geo"
)

// geodetic compares the WGS84 distance between the center and the polygon
// centroid with the radius. Invalid polygons are repaired first.
type geodetic struct {
	region Region
}

func (m *geodetic) Region() Region {
	return m.region
}

func (m *geodetic) Match(mp orb.MultiPolygon) (bool, error) {
	radius := m.region.Radius
	if radius < 0 || math.IsNaN(radius) {
		return false, nil
	}

	shape := mp
	if !geo.IsValid(shape) {
		repaired, err := geo.Repair(shape)
		if err != nil {
			return false, err
		}
		shape = repaired
	}

	centroid, err := geo.Centroid(shape)
	if err != nil {
		return false, err
	}

	d, err := geo.Distance(m.region.Center, centroid)
	if err != nil {
		return false, err
	}
	return d <= radius, nil
}
