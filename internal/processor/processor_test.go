package processor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
	"github.com/fabiov64/Filter-UAS-Zones/internal/matcher"
)

// Zones around Milan; the search center is 45.4642N 9.19E.
const zones = `{
  "type": "FeatureCollection",
  "title": "Italy",
  "description": "UAS geographical zones - GeoZones[7] - ATM09[1]/NFZ[3]/NOTAM[1]",
  "features": [
    {"identifier": "A", "name": "Duomo", "otherReasonInfo": "NFZ",
     "applicability": [{"permanent": "YES", "startDateTime": "2024-01-01T00:00:00Z", "endDateTime": "2024-12-31T23:59:59+01:00"}],
     "geometry": [{"lowerLimit": 0, "lowerVerticalReference": "AGL", "upperLimit": 120, "upperVerticalReference": "AGL",
       "horizontalProjection": {"type": "Polygon", "coordinates": [[[9.15,45.44],[9.25,45.44],[9.25,45.48],[9.15,45.48],[9.15,45.44]]]}}]},
    {"identifier": "B", "name": "Roma", "otherReasonInfo": "ATM09",
     "geometry": [{"lowerLimit": 0, "lowerVerticalReference": "AGL", "upperLimit": 60, "upperVerticalReference": "AGL",
       "horizontalProjection": {"type": "Polygon", "coordinates": [[[12.4,41.8],[12.6,41.8],[12.6,42.0],[12.4,42.0],[12.4,41.8]]]}}]},
    {"identifier": "C", "name": "Split", "otherReasonInfo": "NOTAM",
     "geometry": [
       {"lowerLimit": 25, "lowerVerticalReference": "AGL", "upperLimit": 60, "upperVerticalReference": "AGL",
        "horizontalProjection": {"type": "Polygon", "coordinates": [[[12.0,41.0],[12.1,41.0],[12.1,41.1],[12.0,41.1],[12.0,41.0]]]}},
       {"lowerLimit": 45, "lowerVerticalReference": "AGL", "upperLimit": 60, "upperVerticalReference": "AGL",
        "horizontalProjection": {"type": "Polygon", "coordinates": [[[9.25,45.45],[9.3,45.45],[9.3,45.5],[9.25,45.5],[9.25,45.45]]]}}]},
    {"identifier": "D", "name": "Parco",
     "applicability": [{"permanent": "YES"}],
     "geometry": [{"lowerLimit": 60, "lowerVerticalReference": "AGL", "upperLimit": 120, "upperVerticalReference": "AGL",
       "horizontalProjection": {"type": "Polygon", "coordinates": [[[9.12,45.45],[9.14,45.45],[9.14,45.47],[9.12,45.47],[9.12,45.45]]]}}]},
    {"identifier": "E", "name": "Broken", "otherReasonInfo": "NFZ",
     "geometry": [{"lowerLimit": 0, "lowerVerticalReference": "AGL"}]},
    {"identifier": "F", "name": "Point", "otherReasonInfo": "NFZ",
     "geometry": [{"lowerLimit": 0, "lowerVerticalReference": "AGL",
       "horizontalProjection": {"type": "Point", "coordinates": [9.19, 45.4642]}}]},
    {"identifier": "G", "name": "Bowtie", "otherReasonInfo": "NFZ",
     "geometry": [{"lowerLimit": 0, "lowerVerticalReference": "AMSL", "upperLimit": 50, "upperVerticalReference": "AMSL",
       "horizontalProjection": {"type": "Polygon", "coordinates": [[[9.19,45.46],[9.21,45.48],[9.21,45.46],[9.19,45.48],[9.19,45.46]]]}}]}
  ],
  "source": {"provider": "ENAC"}
}`

const (
	centerLat = 45.4642
	centerLon = 9.19
)

func load(t *testing.T, s string) *geozone.Collection {
	t.Helper()
	c, err := geozone.Decode(strings.NewReader(s))
	require.NoError(t, err)
	return c
}

func encode(t *testing.T, c *geozone.Collection) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, geozone.Encode(&buf, c))
	return buf.String()
}

func newMatcher(t *testing.T, lat, lon, radius float64, policy matcher.Policy) matcher.Matcher {
	t.Helper()
	m, err := matcher.New(matcher.NewRegion(lat, lon, radius, policy))
	require.NoError(t, err)
	return m
}

func identifiers(c *geozone.Collection) []string {
	ids := make([]string, 0, len(c.Features))
	for _, f := range c.Features {
		ids = append(ids, f.Identifier)
	}
	return ids
}

func TestFilterStrip(t *testing.T) {
	for _, policy := range matcher.Policies {
		t.Run(policy.String(), func(t *testing.T) {
			src := load(t, zones)
			before := encode(t, src)

			res, err := Filter(src, newMatcher(t, centerLat, centerLon, 10000, policy), Options{Transform: Strip})
			require.NoError(t, err)

			assert.Equal(t, []string{"A", "C", "D", "G"}, identifiers(res.Collection))
			assert.Equal(t, Counts{Total: 4, NFZ: 2, NOTAM: 1}, res.Counts)
			assert.Equal(t, 2, res.Skipped)

			require.NotNil(t, res.Collection.Title)
			assert.Equal(t, "Italy - cropped", *res.Collection.Title)
			require.NotNil(t, res.Collection.Description)
			assert.Equal(t, "UAS geographical zones - cropped - GeoZones[4] - ATM09[0]/NFZ[2]/NOTAM[1]", *res.Collection.Description)

			a := res.Collection.Features[0]
			assert.False(t, a.Has(geozone.KeyApplicability))
			desc, ok := a.Description()
			require.True(t, ok)
			assert.Equal(t, RemovedDescription, desc)

			d := res.Collection.Features[2]
			assert.False(t, d.Has(geozone.KeyApplicability))
			_, ok = d.Description()
			assert.False(t, ok)

			// All geometries of a matched feature are kept.
			assert.Len(t, res.Collection.Features[1].Geometry, 2)

			out := encode(t, res.Collection)
			assert.Contains(t, out, `"source":{"provider":"ENAC"}`)
			assert.True(t, strings.HasPrefix(out, `{"type":"FeatureCollection","title":"Italy - cropped",`))

			assert.Equal(t, before, encode(t, src), "source collection modified")
		})
	}
}

func TestFilterNormalize(t *testing.T) {
	src := load(t, zones)
	res, err := Filter(src, newMatcher(t, centerLat, centerLon, 10000, matcher.PlanarBuffer), Options{Transform: Normalize})
	require.NoError(t, err)

	a := res.Collection.Features[0]
	require.Len(t, a.Applicability, 1)
	assert.Equal(t, "2024-01-01T00:00:00+00:00", a.Applicability[0].StartDateTime)
	assert.Equal(t, "2024-12-31T23:59:59+01:00", a.Applicability[0].EndDateTime)
	_, ok := a.Description()
	assert.False(t, ok)

	out := encode(t, res.Collection)
	assert.Contains(t, out, `"applicability":[{"permanent":"YES","startDateTime":"2024-01-01T00:00:00+00:00",`)
	assert.Equal(t, "2024-01-01T00:00:00Z", src.Features[0].Applicability[0].StartDateTime)
}

func TestFilterIsIdempotent(t *testing.T) {
	for _, policy := range matcher.Policies {
		t.Run(policy.String(), func(t *testing.T) {
			m := newMatcher(t, centerLat, centerLon, 10000, policy)

			first, err := Filter(load(t, zones), m, Options{Transform: Strip})
			require.NoError(t, err)
			firstOut := encode(t, first.Collection)

			second, err := Filter(load(t, firstOut), m, Options{Transform: Strip})
			require.NoError(t, err)

			assert.Equal(t, identifiers(first.Collection), identifiers(second.Collection))
			assert.Equal(t, firstOut, encode(t, second.Collection))
		})
	}
}

func TestFilterEmptyInput(t *testing.T) {
	src := load(t, `{"title":"Italy","description":"Zones - GeoZones[3] - ATM09[1]/NFZ[1]/NOTAM[1]","features":[]}`)
	res, err := Filter(src, newMatcher(t, centerLat, centerLon, 10000, matcher.GeodeticCentroid), Options{Transform: Strip})
	require.NoError(t, err)

	assert.Equal(t, Counts{}, res.Counts)
	assert.Equal(t,
		`{"title":"Italy - cropped","description":"Zones - cropped - GeoZones[0] - ATM09[0]/NFZ[0]/NOTAM[0]","features":[]}`,
		encode(t, res.Collection))
}

func TestFilterMonotonicAndCounts(t *testing.T) {
	src := load(t, zones)
	idx := NewIndex(src)

	for _, policy := range matcher.Policies {
		t.Run(policy.String(), func(t *testing.T) {
			var prev []string
			for _, radius := range []float64{0, 500, 5000, 10000, 100000, 1000000} {
				res, err := Filter(src, newMatcher(t, centerLat, centerLon, radius, policy), Options{Transform: Strip, Index: idx})
				require.NoError(t, err)

				ids := identifiers(res.Collection)
				for _, id := range prev {
					assert.Contains(t, ids, id, "radius %v dropped %s", radius, id)
				}
				prev = ids

				c := res.Counts
				assert.Equal(t, len(ids), c.Total)
				assert.LessOrEqual(t, c.ATM09+c.NFZ+c.NOTAM, c.Total)
				assert.Equal(t, c.Total, c.ATM09+c.NFZ+c.NOTAM+c.Other())
				assert.Equal(t, CountFeatures(res.Collection.Features), c)
			}
			assert.Equal(t, []string{"A", "B", "C", "D", "G"}, prev)
		})
	}
}

func TestIndexMatchesFullScan(t *testing.T) {
	src := load(t, zones)
	idx := NewIndex(src)
	assert.Equal(t, 6, idx.Len())
	assert.Equal(t, 2, idx.Invalid())

	centers := [][2]float64{{centerLat, centerLon}, {41.9, 12.5}, {45.47, 9.3}, {0, 0}, {45.5, 179.9}}
	for _, policy := range matcher.Policies {
		for _, c := range centers {
			for _, radius := range []float64{0, 3000, 20000, 300000} {
				m := newMatcher(t, c[0], c[1], radius, policy)

				var want []string
				for i := range src.Features {
					for _, e := range idx.entries {
						if e.Feature != i {
							continue
						}
						ok, err := m.Match(e.Shape)
						if err == nil && ok {
							want = append(want, src.Features[i].Identifier)
							break
						}
					}
				}

				res, err := Filter(src, m, Options{Transform: Normalize, Index: idx})
				require.NoError(t, err)
				got := identifiers(res.Collection)
				if len(want) == 0 {
					assert.Empty(t, got)
				} else {
					assert.Equal(t, want, got, fmt.Sprintf("%s %v r=%v", policy, c, radius))
				}
			}
		}
	}
}

func TestFilterErrors(t *testing.T) {
	src := load(t, zones)
	m := newMatcher(t, centerLat, centerLon, 1000, matcher.PlanarBuffer)

	_, err := Filter(src, m, Options{})
	assert.Error(t, err)

	_, err = Filter(src, nil, Options{Transform: Strip})
	assert.Error(t, err)

	_, err = Filter(src, m, Options{Transform: Strip, Index: NewIndex(load(t, zones))})
	assert.Error(t, err)
}

func TestParseTransform(t *testing.T) {
	for _, tr := range Transforms {
		got, err := ParseTransform(tr.String())
		require.NoError(t, err)
		assert.Equal(t, tr, got)
	}
	_, err := ParseTransform("both")
	assert.Error(t, err)
}

func TestStripKeepsUntimedDescription(t *testing.T) {
	c := load(t, `{"features":[{"identifier":"X","description":"keep","applicability":[{"permanent":"YES"}]}]}`)
	f := c.Features[0].Clone()
	require.NoError(t, Strip.Apply(&f))

	desc, ok := f.Description()
	require.True(t, ok)
	assert.Equal(t, "keep", desc)
	assert.False(t, f.Has(geozone.KeyApplicability))
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		desc      string
		wantTitle string
		wantDesc  string
	}{
		{
			name:      "plain",
			title:     "Zones",
			desc:      "All zones",
			wantTitle: "Zones - cropped",
			wantDesc:  "All zones - cropped - GeoZones[3] - ATM09[1]/NFZ[1]/NOTAM[0]",
		},
		{
			name:      "previous summary",
			title:     "Zones - cropped",
			desc:      "  All zones  - cropped - GeoZones[9] - ATM09[9]/NFZ[0]/NOTAM[0]",
			wantTitle: "Zones - cropped",
			wantDesc:  "All zones - cropped - GeoZones[3] - ATM09[1]/NFZ[1]/NOTAM[0]",
		},
		{
			name:      "marker only",
			title:     "",
			desc:      " - GeoZones",
			wantTitle: " - cropped",
			wantDesc:  " - cropped - GeoZones[3] - ATM09[1]/NFZ[1]/NOTAM[0]",
		},
	}

	counts := Counts{Total: 3, ATM09: 1, NFZ: 1}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &geozone.Collection{Title: &tt.title, Description: &tt.desc}
			Assemble(c, counts)
			assert.Equal(t, tt.wantTitle, *c.Title)
			assert.Equal(t, tt.wantDesc, *c.Description)
		})
	}

	bare := &geozone.Collection{}
	Assemble(bare, counts)
	assert.Nil(t, bare.Title)
	assert.Nil(t, bare.Description)
}

func TestSave(t *testing.T) {
	src := load(t, zones)
	path := filepath.Join(t.TempDir(), "out", DefaultOutput)

	require.NoError(t, Save(path, src))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, encode(t, src), string(data))

	// Overwrite keeps a single file in place.
	res, err := Filter(src, newMatcher(t, centerLat, centerLon, 10000, matcher.PlanarBuffer), Options{Transform: Strip})
	require.NoError(t, err)
	require.NoError(t, Save(path, res.Collection))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{DefaultOutput}, names)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"))
	assert.True(t, slices.Equal([]string{"A", "C", "D", "G"}, identifiers(load(t, string(data)))))
}

func TestFilterZeroRadiusOnEdge(t *testing.T) {
	src := load(t, `{"type": "FeatureCollection", "features": [
    {"identifier": "SQ", "otherReasonInfo": "NFZ",
     "geometry": [{"lowerLimit": 0, "lowerVerticalReference": "AGL", "upperLimit": 120, "upperVerticalReference": "AGL",
       "horizontalProjection": {"type": "Polygon", "coordinates": [[[9,45],[10,45],[10,46],[9,46],[9,45]]]}}]}]}`)

	edges := []struct {
		name     string
		lat, lon float64
	}{
		{"east", 45.5, 10},
		{"north", 46, 9.5},
		{"west", 45.5, 9},
		{"south", 45, 9.5},
		{"corner", 46, 10},
	}

	for _, tt := range edges {
		t.Run(tt.name, func(t *testing.T) {
			m := newMatcher(t, tt.lat, tt.lon, 0, matcher.PlanarBuffer)
			ok, err := m.Match(NewIndex(src).entries[0].Shape)
			require.NoError(t, err)
			require.True(t, ok)

			res, err := Filter(src, m, Options{Transform: Strip})
			require.NoError(t, err)
			assert.Equal(t, 1, res.Counts.Total)
		})
	}
}
