package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	yearPattern  = regexp.MustCompile(`^([+-]?\d+)`)
	// Earth coordinates carry no globe IRI, or an explicit Earth (Q2) one
	pointPattern = regexp.MustCompile(`^(?:<http://www\.wikidata\.org/entity/Q2>\s+)?Point\(([-0-9.]+) ([-0-9.]+)\)$`)
)

// ParseYear reads the signed leading integer of a Wikidata timestamp.
// "-0500-01-01T00:00:00Z" is 500 BCE, i.e. -500.
func ParseYear(value string) (int, bool) {
	m := yearPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParsePoint reads a WKT literal "Point(lng lat)" and returns lat, lng.
// Both numbers must be finite and within geographic range. Literals on any
// globe other than Earth are rejected.
func ParsePoint(wkt string) (lat, lng float64, ok bool) {
	m := pointPattern.FindStringSubmatch(strings.TrimSpace(wkt))
	if m == nil {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	lat, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}
