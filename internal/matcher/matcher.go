// Package matcher decides whether a geozone geometry falls inside a search
// region. Two strategies are available and callers must pick one explicitly:
// planar-buffer tests the distance between the projected center and the
// polygon boundary, geodetic-centroid tests the ellipsoidal distance between
// the center and the polygon centroid.
package matcher

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Policy names a matching strategy.
type Policy string

const (
	// PlanarBuffer matches polygons reached by a disk drawn in Web Mercator meters.
	PlanarBuffer Policy = "planar-buffer"
	// GeodeticCentroid matches polygons whose centroid lies within the
	// radius on the WGS84 ellipsoid.
	GeodeticCentroid Policy = "geodetic-centroid"
)

// Policies lists every known policy.
var Policies = []Policy{PlanarBuffer, GeodeticCentroid}

// ParsePolicy resolves a policy name.
func ParsePolicy(s string) (Policy, error) {
	for _, p := range Policies {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown matching policy %q (want %s or %s)", s, PlanarBuffer, GeodeticCentroid)
}

func (p Policy) String() string {
	return string(p)
}

// Matcher reports whether a multipolygon in lon/lat coordinates matches a
// search region. A non-nil error always comes with false and describes why
// the geometry could not be evaluated.
type Matcher interface {
	Match(mp orb.MultiPolygon) (bool, error)
	Region() Region
}

// New returns the strategy selected by region.Policy.
func New(region Region) (Matcher, error) {
	switch region.Policy {
	case PlanarBuffer:
		return newPlanar(region), nil
	case GeodeticCentroid:
		return &geodetic{region: region}, nil
	default:
		return nil, fmt.Errorf("unknown matching policy %q", region.Policy)
	}
}
