package processor

import (
	"strings"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
)

const (
	croppedSuffix = " - cropped"
	summaryMarker = " - GeoZones"
)

// Assemble rewrites the title and description of c to describe a cropped
// collection holding counts. Missing or non-string keys are left alone.
func Assemble(c *geozone.Collection, counts Counts) {
	if c.Title != nil && !strings.HasSuffix(*c.Title, croppedSuffix) {
		title := *c.Title + croppedSuffix
		c.Title = &title
	}

	if c.Description != nil {
		base, _, _ := strings.Cut(*c.Description, summaryMarker)
		base = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(base), croppedSuffix))
		desc := base + croppedSuffix + " - " + counts.String()
		c.Description = &desc
	}
}
