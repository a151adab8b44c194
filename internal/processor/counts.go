package processor

import (
	"fmt"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
)

// Counts summarizes a filtered feature set by otherReasonInfo category.
type Counts struct {
	Total int `json:"geozones"`
	ATM09 int `json:"atm09"`
	NFZ   int `json:"nfz"`
	NOTAM int `json:"notam"`
}

// Add counts one feature.
func (c *Counts) Add(f *geozone.Feature) {
	c.Total++
	switch f.OtherReasonInfo {
	case geozone.CategoryATM09:
		c.ATM09++
	case geozone.CategoryNFZ:
		c.NFZ++
	case geozone.CategoryNOTAM:
		c.NOTAM++
	}
}

// Other is the number of features outside the three counted categories.
func (c Counts) Other() int {
	return c.Total - c.ATM09 - c.NFZ - c.NOTAM
}

// String renders the summary used in collection descriptions.
func (c Counts) String() string {
	return fmt.Sprintf("GeoZones[%d] - ATM09[%d]/NFZ[%d]/NOTAM[%d]", c.Total, c.ATM09, c.NFZ, c.NOTAM)
}

// CountFeatures counts every feature of the slice.
func CountFeatures(features []geozone.Feature) Counts {
	var c Counts
	for i := range features {
		c.Add(&features[i])
	}
	return c
}
