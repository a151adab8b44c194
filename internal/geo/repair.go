package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// maxSplits bounds the work spent untangling a single ring.
const maxSplits = 10000

// IsValid reports whether every ring of mp is closed, has at least four
// positions, finite coordinates, a non-zero area and no crossing between
// non-adjacent edges.
func IsValid(mp orb.MultiPolygon) bool {
	if len(mp) == 0 {
		return false
	}
	for _, poly := range mp {
		if len(poly) == 0 {
			return false
		}
		for _, ring := range poly {
			if !validRing(ring) {
				return false
			}
		}
	}
	return true
}

func validRing(r orb.Ring) bool {
	if len(r) < 4 || r[0] != r[len(r)-1] {
		return false
	}
	for _, p := range r {
		if !finite(p) {
			return false
		}
	}

	clean := dedupe(r)
	if len(clean) < 4 || math.Abs(planar.Area(clean)) == 0 {
		return false
	}
	_, _, _, crossed := firstCrossing(clean)
	return !crossed
}

// Repair rebuilds mp as a set of simple polygons in the manner of make-valid:
// rings are closed, repeated positions dropped, self-crossing rings split at
// their crossing points and zero-area loops discarded. Every lobe of a
// crossing ring is kept whatever its winding, unlike a zero-width buffer,
// which drops lobes wound against the dominant one. Holes are attached to
// the shell loop that contains them.
func Repair(mp orb.MultiPolygon) (orb.MultiPolygon, error) {
	var out orb.MultiPolygon

	for _, poly := range mp {
		if len(poly) == 0 {
			continue
		}

		shells, err := untangle(poly[0])
		if err != nil {
			return nil, err
		}

		repaired := make([]orb.Polygon, len(shells))
		for i, shell := range shells {
			repaired[i] = orb.Polygon{shell}
		}

		for _, hole := range poly[1:] {
			loops, err := untangle(hole)
			if err != nil {
				return nil, err
			}
			for _, loop := range loops {
				inner, _ := planar.CentroidArea(orb.Polygon{loop})
				for i := range repaired {
					if planar.RingContains(repaired[i][0], inner) {
						repaired[i] = append(repaired[i], loop)
						break
					}
				}
			}
		}

		out = append(out, repaired...)
	}

	if len(out) == 0 {
		return nil, &GeometryError{Reason: "no area left after repair"}
	}
	return out, nil
}

// untangle splits a ring into simple loops with non-zero area.
func untangle(r orb.Ring) ([]orb.Ring, error) {
	ring := closeRing(dedupe(r))
	for _, p := range ring {
		if !finite(p) {
			return nil, &GeometryError{Reason: "non-finite coordinate"}
		}
	}

	var loops []orb.Ring
	stack := []orb.Ring{ring}

	for splits := 0; len(stack) > 0; splits++ {
		if splits > maxSplits {
			return nil, &GeometryError{Reason: "ring too tangled to repair"}
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		current = dedupe(current)
		if len(current) < 4 {
			continue
		}

		i, j, x, crossed := firstCrossing(current)
		if !crossed {
			if math.Abs(planar.Area(current)) > 0 {
				loops = append(loops, current)
			}
			continue
		}

		// Cut at x into the loop between the two edges and the remainder.
		n := len(current) - 1
		inner := orb.Ring{x}
		inner = append(inner, current[i+1:j+1]...)
		inner = append(inner, x)

		outer := orb.Ring{x}
		outer = append(outer, current[j+1:n]...)
		outer = append(outer, current[:i+1]...)
		outer = append(outer, x)

		stack = append(stack, outer, inner)
	}

	return loops, nil
}

// firstCrossing finds the first pair of non-adjacent edges (i, i+1) and
// (j, j+1) of a closed ring that touch or cross, and the contact point.
func firstCrossing(r orb.Ring) (int, int, orb.Point, bool) {
	n := len(r) - 1
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if x, ok := intersection(r[i], r[i+1], r[j], r[j+1]); ok {
				return i, j, x, true
			}
		}
	}
	return 0, 0, orb.Point{}, false
}

// intersection returns a common point of segments p1-p2 and q1-q2.
// For collinear overlaps it returns the overlap start nearest p1.
func intersection(p1, p2, q1, q2 orb.Point) (orb.Point, bool) {
	r := orb.Point{p2[0] - p1[0], p2[1] - p1[1]}
	s := orb.Point{q2[0] - q1[0], q2[1] - q1[1]}
	qp := orb.Point{q1[0] - p1[0], q1[1] - p1[1]}

	denom := cross(r, s)
	if denom == 0 {
		if cross(qp, r) != 0 {
			return orb.Point{}, false
		}
		rr := dot(r, r)
		if rr == 0 {
			return orb.Point{}, false
		}
		t0 := dot(qp, r) / rr
		t1 := t0 + dot(s, r)/rr
		lo, hi := math.Min(t0, t1), math.Max(t0, t1)
		if hi < 0 || lo > 1 {
			return orb.Point{}, false
		}
		t := math.Max(lo, 0)
		return orb.Point{p1[0] + t*r[0], p1[1] + t*r[1]}, true
	}

	t := cross(qp, s) / denom
	u := cross(qp, r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return orb.Point{}, false
	}
	return orb.Point{p1[0] + t*r[0], p1[1] + t*r[1]}, true
}

// dedupe drops consecutive repeated positions.
func dedupe(r orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(r))
	for _, p := range r {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}

// closeRing appends the first position when the ring is open.
func closeRing(r orb.Ring) orb.Ring {
	if len(r) > 0 && r[0] != r[len(r)-1] {
		r = append(r, r[0])
	}
	return r
}

func cross(a, b orb.Point) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

func dot(a, b orb.Point) float64 {
	return a[0]*b[0] + a[1]*b[1]
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}
