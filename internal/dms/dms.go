// Package dms converts degrees-minutes-seconds coordinate strings to decimal degrees.
package dms

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Groups: 1=sign+degrees, 2=minutes, 3=seconds, 4=direction
var dmsRegex = regexp.MustCompile(
	`^(?i)(-?\d+)[°\s]+` + // Degrees, optionally signed
		`(\d+)['\s]+` + // Minutes
		`(\d+(?:\.\d+)?)["\s]*` + // Seconds, optionally fractional
		`([NSEW])?`, // Hemisphere
)

// FormatError reports a coordinate string that does not follow the DMS grammar.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid DMS format: %q", e.Input)
}

// Coordinate is a decimal latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Parse converts a DMS string such as 45°50'34"N to signed decimal degrees.
//
// The value is |deg| + min/60 + sec/3600, negated once when the degree field
// carries a minus sign or the direction is S or W.
func Parse(s string) (float64, error) {
	match := dmsRegex.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return 0, &FormatError{Input: s}
	}

	deg, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, &FormatError{Input: s}
	}
	minutes, err := strconv.ParseFloat(match[2], 64)
	if err != nil {
		return 0, &FormatError{Input: s}
	}
	seconds, err := strconv.ParseFloat(match[3], 64)
	if err != nil {
		return 0, &FormatError{Input: s}
	}

	decimal := abs(deg) + minutes/60 + seconds/3600

	negative := strings.HasPrefix(match[1], "-")
	switch strings.ToUpper(match[4]) {
	case "S", "W":
		negative = true
	}
	if negative {
		decimal *= -1
	}

	return decimal, nil
}

// ParseCoordinate parses a latitude and a longitude DMS string.
func ParseCoordinate(lat, lon string) (Coordinate, error) {
	latitude, err := Parse(lat)
	if err != nil {
		return Coordinate{}, err
	}
	longitude, err := Parse(lon)
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{Lat: latitude, Lon: longitude}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
