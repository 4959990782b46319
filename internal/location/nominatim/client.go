// Package nominatim provides a forward-geocoding client for
// Nominatim-compatible endpoints, with candidate scoring for the resolver's
// disambiguation step.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/polarischronos/polarischronos/internal/location"
	"github.com/polarischronos/polarischronos/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public OpenStreetMap Nominatim endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies the engine; the public endpoint requires
	// a descriptive agent string.
	DefaultUserAgent = "polaris-chronos/1.0 (prayer-time-engine)"
)

// Scoring weights. Provider importance dominates; place type keeps hamlets
// from outscoring major cities, name and country evidence shift borderline
// candidates.
const (
	weightImportance = 0.40
	weightType       = 0.25
	weightName       = 0.20
	weightCountry    = 0.15
)

// ZoneFunc resolves an IANA timezone for a point.
type ZoneFunc func(ctx context.Context, lat, lon float64) string

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the service base URL (optional).
	BaseURL string

	// UserAgent is sent with every request (optional).
	UserAgent string

	// HTTPClient is the resilient HTTP client (optional).
	HTTPClient *resilience.Client

	// Limiter throttles outbound requests. The public endpoint allows one
	// request per second. Optional; nil disables throttling.
	Limiter *rate.Limiter

	// Zone resolves timezones for candidate points (required).
	Zone ZoneFunc

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Nominatim geocoding client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *resilience.Client
	limiter    *rate.Limiter
	zone       ZoneFunc
	logger     zerolog.Logger
}

// NewClient creates a Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
		limiter:    cfg.Limiter,
		zone:       cfg.Zone,
		logger:     cfg.Logger,
	}
}

// searchResult is the provider's candidate shape.
type searchResult struct {
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Importance  float64 `json:"importance"`
	Class       string  `json:"class"`
	Type        string  `json:"type"`
	AddressType string  `json:"addresstype"`
	Address     struct {
		CountryCode string `json:"country_code"`
		Country     string `json:"country"`
	} `json:"address"`
}

// Search forward-geocodes a query and returns scored candidates ordered by
// descending score. An empty 2xx reply maps to location.ErrNotFound, a
// non-2xx reply to location.ErrServiceUnavailable, and transport failures to
// location.ErrNetwork.
func (c *Client) Search(ctx context.Context, query, countryHint string, limit int) ([]location.Candidate, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %v", location.ErrNetwork, err)
		}
	}

	if limit < 3 {
		limit = 3
	}
	if limit > 10 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(limit))
	if countryHint != "" {
		params.Set("countrycodes", strings.ToLower(countryHint))
	}

	endpoint := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", location.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: geocoder returned %d", location.ErrServiceUnavailable, resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: decoding geocoder reply: %v", location.ErrInvalidResponse, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", location.ErrNotFound, query)
	}

	candidates := make([]location.Candidate, 0, len(results))
	for i := range results {
		cand, convErr := c.toCandidate(ctx, query, countryHint, &results[i])
		if convErr != nil {
			c.logger.Warn().Err(convErr).Str("display_name", results[i].DisplayName).Msg("skipping malformed geocoder candidate")
			continue
		}
		candidates = append(candidates, cand)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no usable candidates", location.ErrInvalidResponse)
	}

	sortByScore(candidates)
	return candidates, nil
}

func (c *Client) toCandidate(ctx context.Context, query, countryHint string, r *searchResult) (location.Candidate, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return location.Candidate{}, fmt.Errorf("parsing lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return location.Candidate{}, fmt.Errorf("parsing lon %q: %w", r.Lon, err)
	}

	name := strings.TrimSpace(strings.SplitN(r.DisplayName, ",", 2)[0])
	cc := strings.ToUpper(r.Address.CountryCode)

	return location.Candidate{
		Name:        name,
		DisplayName: r.DisplayName,
		Country:     r.Address.Country,
		CountryCode: cc,
		Lat:         lat,
		Lon:         lon,
		TZ:          c.zone(ctx, lat, lon),
		Score:       score(query, countryHint, r, name, cc),
	}, nil
}

// score combines provider importance, the settlement rank of the place, an
// exact-name boost, and a country-hint boost.
func score(query, countryHint string, r *searchResult, name, cc string) float64 {
	importance := clamp01(r.Importance)

	placeType := r.Type
	if placeType == "" {
		placeType = r.AddressType
	}
	typeScore := typeRank(r.Class, placeType)

	nameScore := 0.3
	q := location.NormalizeQuery(query)
	n := location.NormalizeQuery(name)
	switch {
	case n == q:
		nameScore = 1.0
	case strings.Contains(n, q) || strings.Contains(q, n):
		nameScore = 0.7
	}

	countryScore := 0.5
	if countryHint != "" {
		if cc == strings.ToUpper(countryHint) {
			countryScore = 1.0
		} else {
			countryScore = 0.0
		}
	}

	return weightImportance*importance +
		weightType*typeScore +
		weightName*nameScore +
		weightCountry*countryScore
}

// typeRank orders settlements so a hamlet sharing a famous name cannot
// outscore the city on importance and name match alone.
func typeRank(class, placeType string) float64 {
	switch {
	case class == "place" && placeType == "city",
		class == "boundary" && placeType == "administrative":
		return 1.0
	case class == "place" && placeType == "town":
		return 0.8
	case class == "place" && placeType == "village":
		return 0.4
	case class == "place" && placeType == "hamlet":
		return 0.2
	default:
		return 0.5
	}
}

func sortByScore(candidates []location.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
