package processor

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
	"github.com/fabiov64/Filter-UAS-Zones/internal/matcher"
)

// Options configure a filter run.
type Options struct {
	Transform Transform
	// Index over the source collection, built on demand when nil.
	Index *Index
}

// Result is the outcome of a filter run.
type Result struct {
	Collection *geozone.Collection
	Counts     Counts
	// Skipped counts geometry entries that could not be evaluated.
	Skipped int
}

// Filter returns a new collection holding copies of the features of src with
// at least one geometry entry matched by m. src is not modified. Geometry
// entries that cannot be evaluated count as non-matching.
func Filter(src *geozone.Collection, m matcher.Matcher, opts Options) (*Result, error) {
	if m == nil {
		return nil, errors.New("filter: no matcher")
	}
	if _, err := ParseTransform(string(opts.Transform)); err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}

	idx := opts.Index
	if idx == nil {
		idx = NewIndex(src)
	} else if idx.source != src {
		return nil, errors.New("filter: index was built for another collection")
	}

	region := m.Region()
	skipped := idx.Invalid()
	var (
		features []geozone.Feature
		counts   Counts
		done     = -1
	)

	for _, e := range idx.Candidates(region) {
		// The first matching entry decides; later ones are not evaluated.
		if e.Feature == done {
			continue
		}

		ok, err := m.Match(e.Shape)
		if err != nil {
			log.Debug().
				Err(err).
				Str("feature", src.Features[e.Feature].Identifier).
				Int("geometry", e.Geometry).
				Msg("Geometry excluded")
			skipped++
			continue
		}
		if !ok {
			continue
		}
		done = e.Feature

		f := src.Features[e.Feature].Clone()
		if err := opts.Transform.Apply(&f); err != nil {
			return nil, fmt.Errorf("feature %q: %w", f.Identifier, err)
		}
		counts.Add(&f)
		features = append(features, f)
	}

	out := src.WithFeatures(features)
	Assemble(out, counts)

	log.Info().
		Str("policy", region.Policy.String()).
		Str("transform", opts.Transform.String()).
		Float64("lat", region.Lat()).
		Float64("lon", region.Lon()).
		Float64("radius", region.Radius).
		Int("geozones", counts.Total).
		Int("skipped", skipped).
		Msg("Filter complete")

	return &Result{Collection: out, Counts: counts, Skipped: skipped}, nil
}
