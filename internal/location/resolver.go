package location

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Confidence levels per chain step. They decrease monotonically along the
// chain so provenance is visible in the score alone.
const (
	manualConfidence      = 1.0
	datasetConfidence     = 0.95
	geocoderMaxConfidence = 0.9
	ipConfidence          = 0.3
)

// DefaultScoreMargin is the gap the top geocoder candidate must hold over
// the runner-up to be accepted without disambiguation.
const DefaultScoreMargin = 0.2

// geocoderLimit bounds how many candidates are requested per query.
const geocoderLimit = 5

// Geocoder is a forward-geocoding client returning scored candidates,
// ordered by descending score.
type Geocoder interface {
	Search(ctx context.Context, query, countryHint string, limit int) ([]Candidate, error)
}

// IPLocator resolves the caller's own location from its network address.
type IPLocator interface {
	Locate(ctx context.Context) (*ResolvedLocation, error)
}

// ZoneResolver maps a point to an IANA timezone identifier.
type ZoneResolver interface {
	Zone(ctx context.Context, lat, lon float64) string
}

// ResolverConfig holds the resolver's collaborators.
type ResolverConfig struct {
	// Cache is the persistent query cache (required).
	Cache *Cache

	// Dataset is the embedded city table (required).
	Dataset *Dataset

	// Geocoder is the forward geocoding client (optional; nil = offline).
	Geocoder Geocoder

	// IP is the IP geolocation client (optional; nil disables auto-detect).
	IP IPLocator

	// Zones resolves timezones for raw coordinates (required).
	Zones ZoneResolver

	// ScoreMargin overrides DefaultScoreMargin when positive.
	ScoreMargin float64

	// Logger for resolution steps.
	Logger zerolog.Logger
}

// Resolver orchestrates the location fallback chain. Steps execute strictly
// in order with no speculative fetching; the first success wins.
type Resolver struct {
	cache    *Cache
	dataset  *Dataset
	geocoder Geocoder
	ip       IPLocator
	zones    ZoneResolver
	margin   float64
	logger   zerolog.Logger
}

// NewResolver creates a resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	margin := cfg.ScoreMargin
	if margin <= 0 {
		margin = DefaultScoreMargin
	}
	return &Resolver{
		cache:    cfg.Cache,
		dataset:  cfg.Dataset,
		geocoder: cfg.Geocoder,
		ip:       cfg.IP,
		zones:    cfg.Zones,
		margin:   margin,
		logger:   cfg.Logger,
	}
}

// Resolve turns a free-text query into a single ResolvedLocation, or an
// AmbiguousError carrying the candidates when no single answer is safe.
// An empty query means "auto-detect", served by the IP fallback.
func (r *Resolver) Resolve(ctx context.Context, query string, opts Options) (*ResolvedLocation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.autoDetect(ctx)
	}

	hint, err := normalizeHint(opts.CountryCode)
	if err != nil {
		return nil, err
	}

	if loc, ok, err := parseManualCoords(query); ok || err != nil {
		if err != nil {
			return nil, err
		}
		loc.TZ = r.zones.Zone(ctx, loc.Lat, loc.Lon)
		return loc, nil
	}

	normalized := NormalizeQuery(query)

	if cached := r.cache.Get(ctx, normalized); cached != nil {
		if hint == "" || cached.CountryCode == hint {
			r.logger.Debug().Str("query", normalized).Msg("location cache hit")
			return cached, nil
		}
	}

	matches := r.dataset.Lookup(normalized)
	if hint != "" {
		matches = filterCountry(matches, hint)
	}
	if len(matches) == 1 {
		loc := matches[0].Resolved()
		return &loc, nil
	}

	loc, err := r.geocode(ctx, query, normalized, hint)
	if err == nil {
		r.cache.Put(ctx, normalized, *loc)
		return loc, nil
	}
	if _, ambiguous := AsAmbiguous(err); ambiguous {
		return nil, err
	}

	// The geocoder could not settle it; fall back on whatever the dataset
	// found before giving up.
	if fallback, fbErr := settleDatasetMatches(normalized, matches); fallback != nil || fbErr != nil {
		if fbErr != nil {
			return nil, fbErr
		}
		return fallback, nil
	}
	return nil, err
}

// autoDetect serves empty queries via the IP fallback, with the most recent
// cached location as a last resort when the network is down.
func (r *Resolver) autoDetect(ctx context.Context) (*ResolvedLocation, error) {
	if r.ip == nil {
		return nil, fmt.Errorf("%w: empty query and auto-detection disabled", ErrInvalidInput)
	}

	loc, err := r.ip.Locate(ctx)
	if err != nil {
		if recent := r.cache.MostRecent(ctx); recent != nil {
			r.logger.Warn().Err(err).Msg("ip lookup failed; using most recent cached location")
			return recent, nil
		}
		return nil, fmt.Errorf("auto-detecting location: %w", err)
	}

	r.cache.Put(ctx, loc.Name, *loc)
	return loc, nil
}

// geocode runs the external geocoding step with margin-based acceptance and
// explicit ambiguity.
func (r *Resolver) geocode(ctx context.Context, original, normalized, hint string) (*ResolvedLocation, error) {
	if r.geocoder == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, original)
	}

	candidates, err := r.geocoder.Search(ctx, original, hint, geocoderLimit)
	if err != nil {
		return nil, err
	}
	if hint != "" {
		candidates = filterCandidatesCountry(candidates, hint)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, original)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	top := candidates[0]
	if len(candidates) > 1 && top.Score-candidates[1].Score < r.margin {
		if distinctCountries(candidates) >= 2 {
			return nil, &AmbiguousError{Query: original, Options: candidates}
		}
	}

	tz := top.TZ
	if tz == "" {
		tz = r.zones.Zone(ctx, top.Lat, top.Lon)
	}

	return &ResolvedLocation{
		Name:          strings.ToLower(top.Name),
		Country:       top.Country,
		CountryCode:   top.CountryCode,
		Lat:           top.Lat,
		Lon:           top.Lon,
		TZ:            tz,
		Source:        SourceGeocoder,
		Confidence:    clampScore(top.Score),
		DisplayCoords: FormatCoords(top.Lat, top.Lon),
	}, nil
}

// settleDatasetMatches resolves leftover dataset multi-matches once the
// geocoder is out of the picture: same-country duplicates collapse to the
// first record, cross-country sets surface as ambiguity.
func settleDatasetMatches(query string, matches []Record) (*ResolvedLocation, error) {
	switch {
	case len(matches) == 0:
		return nil, nil
	case distinctRecordCountries(matches) >= 2:
		options := make([]Candidate, 0, len(matches))
		for _, rec := range matches {
			options = append(options, Candidate{
				Name:        rec.CanonicalName,
				Country:     rec.CountryName,
				CountryCode: rec.CountryCode,
				Lat:         rec.Lat,
				Lon:         rec.Lon,
				TZ:          rec.TZ,
				Score:       datasetConfidence,
			})
		}
		return nil, &AmbiguousError{Query: query, Options: options}
	default:
		loc := matches[0].Resolved()
		return &loc, nil
	}
}

// parseManualCoords recognizes "lat,lon" queries. Coordinates that parse but
// fall outside valid ranges are invalid input, not a location name.
func parseManualCoords(query string) (*ResolvedLocation, bool, error) {
	parts := strings.SplitN(query, ",", 2)
	if len(parts) != 2 {
		return nil, false, nil
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lonErr != nil {
		return nil, false, nil
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, true, fmt.Errorf("%w: coordinates out of range (%.4f, %.4f)", ErrInvalidInput, lat, lon)
	}

	return &ResolvedLocation{
		Name:          fmt.Sprintf("%.4f, %.4f", lat, lon),
		Lat:           lat,
		Lon:           lon,
		Source:        SourceManualCoords,
		Confidence:    manualConfidence,
		DisplayCoords: FormatCoords(lat, lon),
	}, true, nil
}

func normalizeHint(hint string) (string, error) {
	hint = strings.ToUpper(strings.TrimSpace(hint))
	if hint == "" {
		return "", nil
	}
	if len(hint) != 2 || !isAlpha(hint) {
		return "", fmt.Errorf("%w: country hint %q is not an ISO alpha-2 code", ErrInvalidInput, hint)
	}
	return hint, nil
}

func isAlpha(s string) bool {
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func filterCountry(records []Record, cc string) []Record {
	var out []Record
	for _, rec := range records {
		if rec.CountryCode == cc {
			out = append(out, rec)
		}
	}
	return out
}

func filterCandidatesCountry(candidates []Candidate, cc string) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if c.CountryCode == cc {
			out = append(out, c)
		}
	}
	return out
}

func distinctCountries(candidates []Candidate) int {
	seen := map[string]struct{}{}
	for _, c := range candidates {
		seen[c.CountryCode] = struct{}{}
	}
	return len(seen)
}

func distinctRecordCountries(records []Record) int {
	seen := map[string]struct{}{}
	for _, rec := range records {
		seen[rec.CountryCode] = struct{}{}
	}
	return len(seen)
}

func clampScore(score float64) float64 {
	if score > geocoderMaxConfidence {
		return geocoderMaxConfidence
	}
	if score < 0 {
		return 0
	}
	return score
}
