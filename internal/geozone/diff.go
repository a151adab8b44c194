package geozone

import "sort"

// Identifiers returns the set of non-empty feature identifiers.
func Identifiers(c *Collection) map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Features))
	for i := range c.Features {
		if id := c.Features[i].Identifier; id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// Difference lists identifiers present in only one of two collections.
type Difference struct {
	OnlyInFirst  []string `json:"only_in_first" yaml:"only_in_first"`
	OnlyInSecond []string `json:"only_in_second" yaml:"only_in_second"`
}

// Diff compares the identifier sets of a and b. Results are sorted.
func Diff(a, b *Collection) Difference {
	idsA, idsB := Identifiers(a), Identifiers(b)
	return Difference{
		OnlyInFirst:  missing(idsA, idsB),
		OnlyInSecond: missing(idsB, idsA),
	}
}

func missing(from, in map[string]struct{}) []string {
	out := make([]string, 0)
	for id := range from {
		if _, ok := in[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
