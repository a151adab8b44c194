package processor

import (
	"cmp"
	"math"
	"slices"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geo"
	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
	"github.com/fabiov64/Filter-UAS-Zones/internal/matcher"
)

// Minimum rectangle side in degrees, rtreego rejects empty rectangles.
const epsilon = 1e-9

// Entry is one decoded geometry entry of a collection.
type Entry struct {
	Feature  int
	Geometry int
	Shape    orb.MultiPolygon

	bound orb.Bound
}

// Bounds implements rtreego.Spatial.
func (e *Entry) Bounds() rtreego.Rect {
	return rect(e.bound)
}

// Index holds the usable geometry entries of a collection in an R-tree keyed
// by their lon/lat bounding box.
type Index struct {
	source  *geozone.Collection
	tree    *rtreego.Rtree
	entries []*Entry
	loose   []*Entry
	invalid int
}

// NewIndex decodes every geometry entry of c. Entries with a missing
// projection or an unusable shape are logged and left out.
func NewIndex(c *geozone.Collection) *Index {
	idx := &Index{
		source: c,
		tree:   rtreego.NewTree(2, 25, 50),
	}

	for i := range c.Features {
		f := &c.Features[i]
		for j := range f.Geometry {
			g := &f.Geometry[j]
			if err := g.Validate(f.Identifier, j); err != nil {
				log.Warn().Err(err).Str("feature", f.Identifier).Int("geometry", j).Msg("Skipping geometry entry")
				idx.invalid++
				continue
			}

			shape, err := geo.DecodeProjection(g.HorizontalProjection)
			if err != nil {
				log.Debug().Err(err).Str("feature", f.Identifier).Int("geometry", j).Msg("Unusable horizontal projection")
				idx.invalid++
				continue
			}

			e := &Entry{Feature: i, Geometry: j, Shape: shape, bound: shape.Bound()}
			idx.entries = append(idx.entries, e)
			if finiteBound(e.bound) {
				idx.tree.Insert(e)
			} else {
				idx.loose = append(idx.loose, e)
			}
		}
	}

	log.Debug().
		Int("features", len(c.Features)).
		Int("entries", len(idx.entries)).
		Int("invalid", idx.invalid).
		Msg("Geometry index built")

	return idx
}

// Len returns the number of usable entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Invalid returns the number of entries left out of the index.
func (idx *Index) Invalid() int {
	return idx.invalid
}

// Candidates returns, in feature then geometry order, the entries whose
// bounding box can match region. Every entry is returned when the region has
// no usable bound.
func (idx *Index) Candidates(region matcher.Region) []*Entry {
	bound, ok := region.Bound()
	if !ok {
		return idx.entries
	}

	found := idx.tree.SearchIntersect(rect(bound))
	out := make([]*Entry, 0, len(found)+len(idx.loose))
	for _, s := range found {
		out = append(out, s.(*Entry))
	}
	out = append(out, idx.loose...)

	slices.SortFunc(out, func(a, b *Entry) int {
		if c := cmp.Compare(a.Feature, b.Feature); c != 0 {
			return c
		}
		return cmp.Compare(a.Geometry, b.Geometry)
	})
	return out
}

// rect grows b by epsilon on every side. rtreego treats rectangles that only
// touch as disjoint, so a zero-radius center on a zone edge needs the overlap.
func rect(b orb.Bound) rtreego.Rect {
	lengths := []float64{
		math.Max(b.Max[0]-b.Min[0], 0) + 2*epsilon,
		math.Max(b.Max[1]-b.Min[1], 0) + 2*epsilon,
	}
	r, _ := rtreego.NewRect(rtreego.Point{b.Min[0] - epsilon, b.Min[1] - epsilon}, lengths)
	return r
}

func finiteBound(b orb.Bound) bool {
	for _, v := range []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
