package matcher

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// Smallest meridional radius of curvature of WGS84, at the equator.
	minCurvatureRadius = 6335439.0

	boundMargin = 1.01
	maxBoundLat = 85.0
)

// Region is a circular search area around a lon/lat center.
type Region struct {
	Center orb.Point
	// Radius in meters.
	Radius float64
	// Padding in meters added to Radius by the planar policy only.
	Padding float64
	Policy  Policy
}

// NewRegion builds a region from decimal degrees and a radius in meters.
// Any radius is accepted; a negative one simply matches nothing.
func NewRegion(lat, lon, radiusMeters float64, policy Policy) Region {
	return Region{
		Center: orb.Point{lon, lat},
		Radius: radiusMeters,
		Policy: policy,
	}
}

// Kilometers converts a radius given in kilometers to meters.
func Kilometers(km float64) float64 {
	return km * 1000
}

// Lat returns the latitude of the center.
func (r Region) Lat() float64 { return r.Center[1] }

// Lon returns the longitude of the center.
func (r Region) Lon() float64 { return r.Center[0] }

// reach is the radius the active policy compares against.
func (r Region) reach() float64 {
	if r.Policy == PlanarBuffer {
		return r.Radius + r.Padding
	}
	return r.Radius
}

// Bound returns a lon/lat box outside which no geometry bounding box can
// match. ok is false when no such box exists without crossing a pole or the
// antimeridian; callers must then evaluate every geometry.
func (r Region) Bound() (bound orb.Bound, ok bool) {
	lon, lat := r.Lon(), r.Lat()
	radius := r.reach()
	if math.IsNaN(radius) || math.IsInf(radius, 0) || math.IsNaN(lon) || math.IsNaN(lat) {
		return orb.Bound{}, false
	}
	radius = math.Max(radius, 0)

	var dLat, dLon float64
	switch r.Policy {
	case PlanarBuffer:
		// Mercator x is linear in longitude and y grows at least as fast as latitude.
		dLat = degrees(radius / orb.EarthRadius * boundMargin)
		dLon = dLat
	case GeodeticCentroid:
		delta := radius / minCurvatureRadius * boundMargin
		if delta >= math.Pi/2 {
			return orb.Bound{}, false
		}
		s := math.Sin(delta) / math.Cos(radians(lat))
		if s >= 1 {
			return orb.Bound{}, false
		}
		dLat = degrees(delta)
		dLon = degrees(math.Asin(s))
	default:
		return orb.Bound{}, false
	}

	if math.Abs(lat)+dLat >= maxBoundLat || lon-dLon < -180 || lon+dLon > 180 {
		return orb.Bound{}, false
	}

	return orb.Bound{
		Min: orb.Point{lon - dLon, lat - dLat},
		Max: orb.Point{lon + dLon, lat + dLat},
	}, true
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func radians(deg float64) float64 { return deg * math.Pi / 180 }
