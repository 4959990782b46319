package ipapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarischronos/polarischronos/internal/location"
	"github.com/polarischronos/polarischronos/internal/location/ipapi"
	"github.com/polarischronos/polarischronos/internal/provider/resilience"
)

func newTestClient(serverURL string) *ipapi.Client {
	clientCfg := resilience.DefaultClientConfig("ipapi-test")
	clientCfg.MaxRetries = 1
	return ipapi.NewClient(ipapi.ClientConfig{
		BaseURL:    serverURL,
		HTTPClient: resilience.NewClient(clientCfg),
	})
}

func TestClient_Locate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"latitude": 52.3676,
			"longitude": 4.9041,
			"timezone": "Europe/Amsterdam",
			"city": "Amsterdam",
			"country_name": "Netherlands",
			"country_code": "nl"
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	loc, err := client.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "amsterdam", loc.Name)
	assert.Equal(t, "NL", loc.CountryCode)
	assert.Equal(t, "Europe/Amsterdam", loc.TZ)
	assert.Equal(t, location.SourceIP, loc.Source)
	assert.InDelta(t, 0.3, loc.Confidence, 1e-9)
	assert.InDelta(t, 52.3676, loc.Lat, 1e-6)
}

func TestClient_MissingCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"city": "Amsterdam"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Locate(context.Background())
	assert.ErrorIs(t, err, location.ErrInvalidResponse)
}

func TestClient_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Locate(context.Background())
	assert.ErrorIs(t, err, location.ErrServiceUnavailable)
}
