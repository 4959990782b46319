// Package tzlookup maps geographic points to IANA timezone identifiers. It
// asks an external time API first and falls back to a coarse
// longitude-based table so resolution still works offline.
package tzlookup

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/polarischronos/polarischronos/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "tzlookup"

	// DefaultBaseURL is the timeapi.io coordinate endpoint.
	DefaultBaseURL = "https://www.timeapi.io"
)

// ResolverConfig holds configuration for the timezone resolver.
type ResolverConfig struct {
	// BaseURL is the time API base URL (optional). Empty string with
	// Offline=true disables the network path entirely.
	BaseURL string

	// Offline skips the external API and uses the longitude table only.
	Offline bool

	// HTTPClient is the resilient HTTP client (optional). The default uses
	// a 3 second timeout: a timezone is a detail worth less waiting than a
	// geocode.
	HTTPClient *resilience.Client

	// Logger for lookup operations.
	Logger zerolog.Logger
}

// Resolver resolves IANA timezones for points.
type Resolver struct {
	baseURL    string
	offline    bool
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewResolver creates a timezone resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = 3 * time.Second
		clientCfg.MaxRetries = 1
		httpClient = resilience.NewClient(clientCfg)
	}
	return &Resolver{
		baseURL:    baseURL,
		offline:    cfg.Offline,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Zone returns the IANA zone for a point. Every returned zone is validated
// against the host zoneinfo database; the method never fails, degrading to
// a longitude estimate and finally to UTC.
func (r *Resolver) Zone(ctx context.Context, lat, lon float64) string {
	if !r.offline {
		if zone, err := r.fromAPI(ctx, lat, lon); err == nil && validZone(zone) {
			return zone
		} else if err != nil {
			r.logger.Debug().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("timezone api lookup failed; using longitude estimate")
		}
	}

	if zone := ApproximateZone(lon); validZone(zone) {
		return zone
	}
	return "UTC"
}

func (r *Resolver) fromAPI(ctx context.Context, lat, lon float64) (string, error) {
	url := fmt.Sprintf("%s/api/timezone/coordinate?latitude=%.6f&longitude=%.6f", r.baseURL, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body struct {
		TimeZone string `json:"timeZone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if body.TimeZone == "" {
		return "", fmt.Errorf("reply lacks timeZone field")
	}
	return body.TimeZone, nil
}

// ApproximateZone estimates a zone from longitude alone. Rough, but it keeps
// manual-coordinate resolution working with no network at all.
func ApproximateZone(lon float64) string {
	offset := int(math.Round(lon / 15.0))
	switch {
	case offset <= -10:
		return "Pacific/Honolulu"
	case offset == -9:
		return "America/Anchorage"
	case offset == -8:
		return "America/Los_Angeles"
	case offset == -7:
		return "America/Denver"
	case offset == -6:
		return "America/Chicago"
	case offset == -5:
		return "America/New_York"
	case offset == -4:
		return "America/Halifax"
	case offset == -3:
		return "America/Sao_Paulo"
	case offset == -2 || offset == -1:
		return "Atlantic/Azores"
	case offset == 0:
		return "Europe/London"
	case offset == 1:
		return "Europe/Paris"
	case offset == 2:
		return "Europe/Helsinki"
	case offset == 3:
		return "Europe/Moscow"
	case offset == 4:
		return "Asia/Dubai"
	case offset == 5:
		return "Asia/Karachi"
	case offset == 6:
		return "Asia/Dhaka"
	case offset == 7:
		return "Asia/Bangkok"
	case offset == 8:
		return "Asia/Shanghai"
	case offset == 9:
		return "Asia/Tokyo"
	case offset == 10:
		return "Australia/Sydney"
	case offset == 11:
		return "Pacific/Noumea"
	default:
		return "Pacific/Auckland"
	}
}

func validZone(zone string) bool {
	_, err := time.LoadLocation(zone)
	return err == nil
}
