package location

import (
	"sort"
	"strings"
)

// Record is one embedded city entry.
type Record struct {
	CanonicalName string
	Aliases       []string
	CountryCode   string
	CountryName   string
	Lat           float64
	Lon           float64
	TZ            string
}

// Dataset is the embedded, offline-first city table with fuzzy lookup.
type Dataset struct {
	records []Record
}

// NewDataset returns the embedded dataset.
func NewDataset() *Dataset {
	return &Dataset{records: builtinCities}
}

// fuzzyMaxDistance is the edit-distance ceiling for fuzzy matches.
const fuzzyMaxDistance = 2

// Lookup finds records matching a query: exact canonical/alias matches
// first, then substring containment, then fuzzy matching within edit
// distance 2. Multiple matches across countries are returned unranked;
// disambiguation is the resolver's job.
func (d *Dataset) Lookup(query string) []Record {
	q := NormalizeQuery(query)
	if q == "" {
		return nil
	}

	var exact []Record
	for _, rec := range d.records {
		if rec.matchesExact(q) {
			exact = append(exact, rec)
		}
	}
	if len(exact) > 0 {
		return exact
	}

	var contains []Record
	for _, rec := range d.records {
		if rec.matchesSubstring(q) {
			contains = append(contains, rec)
		}
	}
	if len(contains) > 0 {
		return contains
	}

	best := fuzzyMaxDistance + 1
	var fuzzy []Record
	for _, rec := range d.records {
		dist := rec.fuzzyDistance(q)
		if dist < best {
			best = dist
			fuzzy = fuzzy[:0]
		}
		if dist == best && dist <= fuzzyMaxDistance {
			fuzzy = append(fuzzy, rec)
		}
	}
	return fuzzy
}

// LookupCountry is Lookup restricted to one ISO alpha-2 country code.
func (d *Dataset) LookupCountry(query, countryCode string) []Record {
	matches := d.Lookup(query)
	if countryCode == "" {
		return matches
	}
	var filtered []Record
	for _, rec := range matches {
		if rec.CountryCode == countryCode {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// Summary is a dataset listing entry.
type Summary struct {
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	Country     string `json:"country"`
}

// List returns all embedded cities, sorted by name.
func (d *Dataset) List() []Summary {
	out := make([]Summary, 0, len(d.records))
	for _, rec := range d.records {
		out = append(out, Summary{
			Name:        rec.CanonicalName,
			CountryCode: rec.CountryCode,
			Country:     rec.CountryName,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolved converts a record into a resolved location at dataset confidence.
func (r Record) Resolved() ResolvedLocation {
	return ResolvedLocation{
		Name:          r.CanonicalName,
		Country:       r.CountryName,
		CountryCode:   r.CountryCode,
		Lat:           r.Lat,
		Lon:           r.Lon,
		TZ:            r.TZ,
		Source:        SourceBuiltIn,
		Confidence:    datasetConfidence,
		DisplayCoords: FormatCoords(r.Lat, r.Lon),
	}
}

func (r Record) matchesExact(q string) bool {
	if NormalizeQuery(r.CanonicalName) == q {
		return true
	}
	for _, alias := range r.Aliases {
		if NormalizeQuery(alias) == q {
			return true
		}
	}
	return false
}

func (r Record) matchesSubstring(q string) bool {
	if len(q) < 3 {
		return false
	}
	names := append([]string{r.CanonicalName}, r.Aliases...)
	for _, name := range names {
		n := NormalizeQuery(name)
		if strings.Contains(n, q) || strings.Contains(q, n) {
			return true
		}
	}
	return false
}

func (r Record) fuzzyDistance(q string) int {
	best := fuzzyMaxDistance + 1
	names := append([]string{r.CanonicalName}, r.Aliases...)
	for _, name := range names {
		if d := editDistance(NormalizeQuery(name), q); d < best {
			best = d
		}
	}
	return best
}

var builtinCities = []Record{
	{CanonicalName: "mecca", Aliases: []string{"makkah", "mekka"}, CountryCode: "SA", CountryName: "Saudi Arabia", Lat: 21.4225, Lon: 39.8262, TZ: "Asia/Riyadh"},
	{CanonicalName: "medina", Aliases: []string{"madinah", "al-madinah"}, CountryCode: "SA", CountryName: "Saudi Arabia", Lat: 24.4686, Lon: 39.6142, TZ: "Asia/Riyadh"},
	{CanonicalName: "medina", Aliases: []string{"medina ohio"}, CountryCode: "US", CountryName: "United States", Lat: 41.1434, Lon: -81.8632, TZ: "America/New_York"},
	{CanonicalName: "riyadh", Aliases: []string{"ar-riyad"}, CountryCode: "SA", CountryName: "Saudi Arabia", Lat: 24.7136, Lon: 46.6753, TZ: "Asia/Riyadh"},
	{CanonicalName: "jeddah", Aliases: []string{"jiddah"}, CountryCode: "SA", CountryName: "Saudi Arabia", Lat: 21.4858, Lon: 39.1925, TZ: "Asia/Riyadh"},
	{CanonicalName: "stockholm", Aliases: []string{"stokholm"}, CountryCode: "SE", CountryName: "Sweden", Lat: 59.3293, Lon: 18.0686, TZ: "Europe/Stockholm"},
	{CanonicalName: "tromso", Aliases: []string{"tromsø", "tromsoe"}, CountryCode: "NO", CountryName: "Norway", Lat: 69.6492, Lon: 18.9553, TZ: "Europe/Oslo"},
	{CanonicalName: "longyearbyen", Aliases: []string{"svalbard"}, CountryCode: "NO", CountryName: "Norway", Lat: 78.2232, Lon: 15.6267, TZ: "Arctic/Longyearbyen"},
	{CanonicalName: "oslo", Aliases: nil, CountryCode: "NO", CountryName: "Norway", Lat: 59.9139, Lon: 10.7522, TZ: "Europe/Oslo"},
	{CanonicalName: "new york", Aliases: []string{"newyork", "nyc"}, CountryCode: "US", CountryName: "United States", Lat: 40.7128, Lon: -74.0060, TZ: "America/New_York"},
	{CanonicalName: "los angeles", Aliases: []string{"la"}, CountryCode: "US", CountryName: "United States", Lat: 34.0522, Lon: -118.2437, TZ: "America/Los_Angeles"},
	{CanonicalName: "london", Aliases: nil, CountryCode: "GB", CountryName: "United Kingdom", Lat: 51.5074, Lon: -0.1278, TZ: "Europe/London"},
	{CanonicalName: "paris", Aliases: nil, CountryCode: "FR", CountryName: "France", Lat: 48.8566, Lon: 2.3522, TZ: "Europe/Paris"},
	{CanonicalName: "berlin", Aliases: nil, CountryCode: "DE", CountryName: "Germany", Lat: 52.5200, Lon: 13.4050, TZ: "Europe/Berlin"},
	{CanonicalName: "moscow", Aliases: []string{"moskva"}, CountryCode: "RU", CountryName: "Russia", Lat: 55.7558, Lon: 37.6173, TZ: "Europe/Moscow"},
	{CanonicalName: "istanbul", Aliases: []string{"konstantiniyye"}, CountryCode: "TR", CountryName: "Turkey", Lat: 41.0082, Lon: 28.9784, TZ: "Europe/Istanbul"},
	{CanonicalName: "cairo", Aliases: []string{"al-qahirah"}, CountryCode: "EG", CountryName: "Egypt", Lat: 30.0444, Lon: 31.2357, TZ: "Africa/Cairo"},
	{CanonicalName: "jerusalem", Aliases: []string{"al-quds"}, CountryCode: "IL", CountryName: "Israel", Lat: 31.7683, Lon: 35.2137, TZ: "Asia/Jerusalem"},
	{CanonicalName: "gaza", Aliases: []string{"gaza city"}, CountryCode: "PS", CountryName: "Palestine", Lat: 31.5017, Lon: 34.4668, TZ: "Asia/Gaza"},
	{CanonicalName: "baghdad", Aliases: nil, CountryCode: "IQ", CountryName: "Iraq", Lat: 33.3152, Lon: 44.3661, TZ: "Asia/Baghdad"},
	{CanonicalName: "tehran", Aliases: nil, CountryCode: "IR", CountryName: "Iran", Lat: 35.6892, Lon: 51.3890, TZ: "Asia/Tehran"},
	{CanonicalName: "dubai", Aliases: nil, CountryCode: "AE", CountryName: "United Arab Emirates", Lat: 25.2048, Lon: 55.2708, TZ: "Asia/Dubai"},
	{CanonicalName: "karachi", Aliases: nil, CountryCode: "PK", CountryName: "Pakistan", Lat: 24.8607, Lon: 67.0011, TZ: "Asia/Karachi"},
	{CanonicalName: "delhi", Aliases: []string{"new delhi"}, CountryCode: "IN", CountryName: "India", Lat: 28.6139, Lon: 77.2090, TZ: "Asia/Kolkata"},
	{CanonicalName: "mumbai", Aliases: []string{"bombay"}, CountryCode: "IN", CountryName: "India", Lat: 19.0760, Lon: 72.8777, TZ: "Asia/Kolkata"},
	{CanonicalName: "dhaka", Aliases: []string{"dacca"}, CountryCode: "BD", CountryName: "Bangladesh", Lat: 23.8103, Lon: 90.4125, TZ: "Asia/Dhaka"},
	{CanonicalName: "jakarta", Aliases: nil, CountryCode: "ID", CountryName: "Indonesia", Lat: -6.2088, Lon: 106.8456, TZ: "Asia/Jakarta"},
	{CanonicalName: "kuala lumpur", Aliases: []string{"kl"}, CountryCode: "MY", CountryName: "Malaysia", Lat: 3.1390, Lon: 101.6869, TZ: "Asia/Kuala_Lumpur"},
	{CanonicalName: "tokyo", Aliases: nil, CountryCode: "JP", CountryName: "Japan", Lat: 35.6762, Lon: 139.6503, TZ: "Asia/Tokyo"},
	{CanonicalName: "sydney", Aliases: nil, CountryCode: "AU", CountryName: "Australia", Lat: -33.8688, Lon: 151.2093, TZ: "Australia/Sydney"},
	{CanonicalName: "casablanca", Aliases: []string{"dar el beida"}, CountryCode: "MA", CountryName: "Morocco", Lat: 33.5731, Lon: -7.5898, TZ: "Africa/Casablanca"},
	{CanonicalName: "nairobi", Aliases: nil, CountryCode: "KE", CountryName: "Kenya", Lat: -1.2921, Lon: 36.8219, TZ: "Africa/Nairobi"},
	{CanonicalName: "lagos", Aliases: nil, CountryCode: "NG", CountryName: "Nigeria", Lat: 6.5244, Lon: 3.3792, TZ: "Africa/Lagos"},
	{CanonicalName: "buenos aires", Aliases: nil, CountryCode: "AR", CountryName: "Argentina", Lat: -34.6037, Lon: -58.3816, TZ: "America/Argentina/Buenos_Aires"},
	{CanonicalName: "sao paulo", Aliases: []string{"são paulo"}, CountryCode: "BR", CountryName: "Brazil", Lat: -23.5505, Lon: -46.6333, TZ: "America/Sao_Paulo"},
	{CanonicalName: "reykjavik", Aliases: []string{"reykjavík"}, CountryCode: "IS", CountryName: "Iceland", Lat: 64.1466, Lon: -21.9426, TZ: "Atlantic/Reykjavik"},
	{CanonicalName: "ushuaia", Aliases: nil, CountryCode: "AR", CountryName: "Argentina", Lat: -54.8019, Lon: -68.3030, TZ: "America/Argentina/Ushuaia"},
}
