// Package processor runs the filter pipeline: it selects the features of a
// collection that match a search region, rewrites them for RC compatibility,
// counts them and assembles the output collection.
package processor

import (
	"fmt"
	"strings"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
)

// Transform selects the compatibility rewrite applied to every matched feature.
type Transform string

const (
	// Strip removes applicability windows.
	Strip Transform = "strip"
	// Normalize rewrites UTC "Z" timestamps to an explicit +00:00 offset.
	Normalize Transform = "normalize"
)

// Transforms lists every known transform.
var Transforms = []Transform{Strip, Normalize}

// RemovedDescription replaces the description of a feature whose timed
// applicability was stripped.
const RemovedDescription = "[Date/Time removed for RC compatibility]"

// ParseTransform resolves a transform name.
func ParseTransform(s string) (Transform, error) {
	for _, t := range Transforms {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown transform %q (want %s or %s)", s, Strip, Normalize)
}

func (t Transform) String() string {
	return string(t)
}

// Apply rewrites f in place. f must be a copy owned by the caller.
func (t Transform) Apply(f *geozone.Feature) error {
	switch t {
	case Strip:
		return strip(f)
	case Normalize:
		normalize(f)
		return nil
	default:
		return fmt.Errorf("unknown transform %q", t)
	}
}

func strip(f *geozone.Feature) error {
	timed := false
	for i := range f.Applicability {
		if f.Applicability[i].HasTimes() {
			timed = true
			break
		}
	}

	f.RemoveApplicability()
	if timed {
		return f.SetDescription(RemovedDescription)
	}
	return nil
}

func normalize(f *geozone.Feature) {
	for i := range f.Applicability {
		a := &f.Applicability[i]
		a.StartDateTime = utcOffset(a.StartDateTime)
		a.EndDateTime = utcOffset(a.EndDateTime)
	}
}

func utcOffset(ts string) string {
	if base, ok := strings.CutSuffix(ts, "Z"); ok {
		return base + "+00:00"
	}
	return ts
}
