// Package ipapi provides IP-based geolocation, the last step of the
// resolution chain when the caller asks for auto-detection.
package ipapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/polarischronos/polarischronos/internal/location"
	"github.com/polarischronos/polarischronos/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "ipapi"

	// DefaultBaseURL is the ipapi.co JSON endpoint.
	DefaultBaseURL = "https://ipapi.co"
)

// ipConfidence is low on purpose: an IP pins a city at best, often only a
// region.
const ipConfidence = 0.3

// ClientConfig holds configuration for the IP geolocation client.
type ClientConfig struct {
	// BaseURL is the service base URL (optional).
	BaseURL string

	// UserAgent is sent with every request (optional).
	UserAgent string

	// HTTPClient is the resilient HTTP client (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an IP geolocation client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates an IP geolocation client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

type lookupResponse struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Timezone    string   `json:"timezone"`
	City        string   `json:"city"`
	CountryName string   `json:"country_name"`
	CountryCode string   `json:"country_code"`
}

// Locate resolves the caller's own location from its public IP address.
func (c *Client) Locate(ctx context.Context) (*location.ResolvedLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/json/", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", location.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: ip service returned %d", location.ErrServiceUnavailable, resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding ip service reply: %v", location.ErrInvalidResponse, err)
	}
	if body.Latitude == nil || body.Longitude == nil {
		return nil, fmt.Errorf("%w: ip service reply lacks coordinates", location.ErrInvalidResponse)
	}

	name := strings.ToLower(strings.TrimSpace(body.City))
	if name == "" {
		name = "unknown"
	}

	return &location.ResolvedLocation{
		Name:          name,
		Country:       body.CountryName,
		CountryCode:   strings.ToUpper(body.CountryCode),
		Lat:           *body.Latitude,
		Lon:           *body.Longitude,
		TZ:            body.Timezone,
		Source:        location.SourceIP,
		Confidence:    ipConfidence,
		DisplayCoords: location.FormatCoords(*body.Latitude, *body.Longitude),
	}, nil
}
