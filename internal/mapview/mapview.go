// Package mapview turns a geozone collection into a Leaflet map page.
package mapview

import (
	"cmp"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geo"
	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
)

// Zone colors by lower limit.
const (
	ColorGround  = "red"
	ColorLow     = "orange"
	ColorMedium  = "yellow"
	ColorHigh    = "lightblue"
	ColorDefault = "purple"
)

// UnnamedZone labels features without a name.
const UnnamedZone = "Unnamed zone"

// Color classifies a zone by its lower limit and vertical reference.
func Color(lower float64, vref string) string {
	switch {
	case vref == geozone.ReferenceAGL && lower == 0:
		return ColorGround
	case lower == 25:
		return ColorLow
	case lower == 45:
		return ColorMedium
	case lower == 60:
		return ColorHigh
	default:
		return ColorDefault
	}
}

// View is the zone layer of a map page.
type View struct {
	// Center is the area-weighted centroid of every zone (lon, lat).
	Center orb.Point
	Zones  *geojson.FeatureCollection
}

// Len returns the number of zones in the view.
func (v View) Len() int {
	if v.Zones == nil {
		return 0
	}
	return len(v.Zones.Features)
}

// Build creates one zone per geometry entry of c, highest lower limit first
// so that lower zones are drawn on top. Entries without a usable polygon are
// left out.
func Build(c *geozone.Collection) View {
	type zone struct {
		lower   float64
		feature *geojson.Feature
	}

	var (
		zones []zone
		all   orb.MultiPolygon
	)

	for i := range c.Features {
		f := &c.Features[i]
		name := f.Name
		if name == "" {
			name = UnnamedZone
		}

		for j := range f.Geometry {
			g := &f.Geometry[j]
			if err := g.Validate(f.Identifier, j); err != nil {
				log.Debug().Err(err).Msg("Zone left off the map")
				continue
			}
			mp, err := geo.DecodeProjection(g.HorizontalProjection)
			if err != nil {
				log.Debug().Err(err).Str("feature", f.Identifier).Int("geometry", j).Msg("Zone left off the map")
				continue
			}
			all = append(all, mp...)

			var shape orb.Geometry = mp
			if len(mp) == 1 {
				shape = mp[0]
			}

			gf := geojson.NewFeature(shape)
			gf.Properties["identifier"] = f.Identifier
			gf.Properties["name"] = name
			gf.Properties["lower"] = g.Lower()
			gf.Properties["lowerReference"] = g.LowerVerticalReference
			gf.Properties["upper"] = g.Upper()
			gf.Properties["upperReference"] = g.UpperVerticalReference
			gf.Properties["color"] = Color(g.Lower(), g.LowerVerticalReference)

			zones = append(zones, zone{lower: g.Lower(), feature: gf})
		}
	}

	slices.SortStableFunc(zones, func(a, b zone) int {
		return cmp.Compare(b.lower, a.lower)
	})

	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		fc.Append(z.feature)
	}

	return View{Center: center(all), Zones: fc}
}

func center(mp orb.MultiPolygon) orb.Point {
	if len(mp) == 0 {
		return orb.Point{}
	}
	if c, err := geo.Centroid(mp); err == nil {
		return c
	}
	// Degenerate shapes only
	return mp.Bound().Center()
}
