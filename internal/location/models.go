// Package location resolves free-text queries to geographic locations
// through a prioritized fallback chain: persistent cache, embedded dataset,
// forward geocoder, and IP-based auto-detection.
package location

import (
	"fmt"
	"math"
	"strings"
)

// Source records which step of the fallback chain produced a location.
type Source string

const (
	SourceCache        Source = "Cache"
	SourceBuiltIn      Source = "BuiltIn"
	SourceGeocoder     Source = "Geocoder"
	SourceIP           Source = "IP"
	SourceManualCoords Source = "ManualCoords"
)

// ResolvedLocation is a normalized location record with provenance.
type ResolvedLocation struct {
	// Name is the canonical lowercase name, or a coordinate string for
	// manually supplied coordinates.
	Name string `json:"name"`

	// Country is the display country name, when known.
	Country string `json:"country,omitempty"`

	// CountryCode is the ISO 3166-1 alpha-2 code, uppercase, when known.
	CountryCode string `json:"country_code,omitempty"`

	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// TZ is the IANA zone governing civil-local conversion.
	TZ string `json:"tz"`

	Source Source `json:"source"`

	// Confidence reflects resolution quality in [0, 1]. It decreases
	// monotonically along the chain: Cache >= BuiltIn >= Geocoder >= IP.
	Confidence float64 `json:"confidence"`

	// DisplayCoords is the formatted coordinate string.
	DisplayCoords string `json:"display_coords"`
}

// Candidate is one scored geocoding result, carried by ambiguous outcomes so
// a caller can present a choice.
type Candidate struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name,omitempty"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	TZ          string  `json:"tz"`
	Score       float64 `json:"score"`
}

// Options tunes a single resolution.
type Options struct {
	// CountryCode is an ISO 3166-1 alpha-2 hint restricting matches.
	CountryCode string
}

// FormatCoords renders coordinates in the human display form used across
// the engine, e.g. "21.4225°N, 39.8262°E".
func FormatCoords(lat, lon float64) string {
	ns := "N"
	if lat < 0 {
		ns = "S"
	}
	ew := "E"
	if lon < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.4f°%s, %.4f°%s", math.Abs(lat), ns, math.Abs(lon), ew)
}

// NormalizeQuery lowercases, trims, strips diacritics, and collapses
// whitespace so that cache keys and dataset lookups agree on one form.
func NormalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = stripDiacritics(q)
	return strings.Join(strings.Fields(q), " ")
}

var diacriticReplacer = strings.NewReplacer(
	"ø", "o", "å", "a", "ä", "a", "ö", "o", "ü", "u", "ß", "ss",
	"é", "e", "è", "e", "ê", "e", "ë", "e", "á", "a", "à", "a",
	"â", "a", "ã", "a", "í", "i", "ì", "i", "î", "i", "ó", "o",
	"ò", "o", "ô", "o", "õ", "o", "ú", "u", "ù", "u", "û", "u",
	"ñ", "n", "ç", "c", "ş", "s", "ğ", "g", "ı", "i",
)

func stripDiacritics(s string) string {
	return diacriticReplacer.Replace(s)
}

// editDistance computes the Levenshtein distance between two strings.
func editDistance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
