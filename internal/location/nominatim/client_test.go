package nominatim_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarischronos/polarischronos/internal/location"
	"github.com/polarischronos/polarischronos/internal/location/nominatim"
	"github.com/polarischronos/polarischronos/internal/provider/resilience"
)

func staticZone(context.Context, float64, float64) string { return "Asia/Riyadh" }

func newTestClient(serverURL string) *nominatim.Client {
	clientCfg := resilience.DefaultClientConfig("nominatim-test")
	clientCfg.MaxRetries = 1
	return nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:    serverURL,
		HTTPClient: resilience.NewClient(clientCfg),
		Zone:       staticZone,
	})
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Medina", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		response := []map[string]interface{}{
			{
				"display_name": "Medina, Al Madinah Region, Saudi Arabia",
				"lat":          "24.4686",
				"lon":          "39.6142",
				"importance":   0.75,
				"class":        "place",
				"type":         "city",
				"address": map[string]string{
					"country_code": "sa",
					"country":      "Saudi Arabia",
				},
			},
			{
				"display_name": "Medina, Medina County, Ohio, United States",
				"lat":          "41.1434",
				"lon":          "-81.8632",
				"importance":   0.55,
				"class":        "place",
				"type":         "town",
				"address": map[string]string{
					"country_code": "us",
					"country":      "United States",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	candidates, err := client.Search(context.Background(), "Medina", "", 5)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// Ordered by descending score.
	assert.GreaterOrEqual(t, candidates[0].Score, candidates[1].Score)
	assert.Equal(t, "Medina", candidates[0].Name)
	assert.Equal(t, "SA", candidates[0].CountryCode)
	assert.Equal(t, "Saudi Arabia", candidates[0].Country)
	assert.InDelta(t, 24.4686, candidates[0].Lat, 1e-6)
	assert.Equal(t, "Asia/Riyadh", candidates[0].TZ)
}

func TestClient_SearchCountryHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sa", r.URL.Query().Get("countrycodes"))

		response := []map[string]interface{}{
			{
				"display_name": "Medina, Saudi Arabia",
				"lat":          "24.4686",
				"lon":          "39.6142",
				"importance":   0.75,
				"class":        "place",
				"type":         "city",
				"address":      map[string]string{"country_code": "sa", "country": "Saudi Arabia"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	candidates, err := client.Search(context.Background(), "Medina", "SA", 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	// Matching the hint lifts the score above the neutral-country form.
	noHintScore := 0.40*0.75 + 0.25*1.0 + 0.20*1.0 + 0.15*0.5
	assert.Greater(t, candidates[0].Score, noHintScore)
}

func TestClient_SearchExactNameBoost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := []map[string]interface{}{
			{
				"display_name": "Paris, Île-de-France, France",
				"lat":          "48.8566",
				"lon":          "2.3522",
				"importance":   0.5,
				"address":      map[string]string{"country_code": "fr", "country": "France"},
			},
			{
				"display_name": "Paradise Valley, Arizona, United States",
				"lat":          "33.53",
				"lon":          "-111.94",
				"importance":   0.5,
				"address":      map[string]string{"country_code": "us", "country": "United States"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	candidates, err := client.Search(context.Background(), "Paris", "", 5)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// Equal importance: the exact name match wins.
	assert.Equal(t, "Paris", candidates[0].Name)
	assert.Greater(t, candidates[0].Score, candidates[1].Score)
}

func TestClient_SearchPlaceTypeRanking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := []map[string]interface{}{
			{
				"display_name": "Springfield, Hampden County, Massachusetts, United States",
				"lat":          "42.1015",
				"lon":          "-72.5898",
				"importance":   0.6,
				"class":        "place",
				"type":         "city",
				"address":      map[string]string{"country_code": "us", "country": "United States"},
			},
			{
				"display_name": "Springfield, Otago, New Zealand",
				"lat":          "-43.3369",
				"lon":          "171.9244",
				"importance":   0.7,
				"class":        "place",
				"type":         "hamlet",
				"address":      map[string]string{"country_code": "nz", "country": "New Zealand"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	candidates, err := client.Search(context.Background(), "Springfield", "", 5)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// The hamlet's higher raw importance does not beat the city's
	// settlement rank.
	assert.Equal(t, "US", candidates[0].CountryCode)
	assert.Greater(t, candidates[0].Score, candidates[1].Score)
}

func TestClient_EmptyResultIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Search(context.Background(), "nowhere", "", 5)
	assert.ErrorIs(t, err, location.ErrNotFound)
}

func TestClient_ClientErrorIsServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Search(context.Background(), "anywhere", "", 5)
	assert.ErrorIs(t, err, location.ErrServiceUnavailable)
}

func TestClient_MalformedReplyIsInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"unexpected": "shape"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Search(context.Background(), "anywhere", "", 5)
	assert.ErrorIs(t, err, location.ErrInvalidResponse)
}

func TestClient_UnreachableServerIsNetworkError(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")

	_, err := client.Search(context.Background(), "anywhere", "", 5)
	assert.ErrorIs(t, err, location.ErrNetwork)
}

func TestClient_SkipsMalformedCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := []map[string]interface{}{
			{
				"display_name": "Broken, Nowhere",
				"lat":          "not-a-number",
				"lon":          "0",
				"importance":   0.9,
				"address":      map[string]string{"country_code": "xx", "country": "Nowhere"},
			},
			{
				"display_name": "Ghent, Belgium",
				"lat":          "51.05",
				"lon":          "3.72",
				"importance":   0.6,
				"address":      map[string]string{"country_code": "be", "country": "Belgium"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	candidates, err := client.Search(context.Background(), "Ghent", "", 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Ghent", candidates[0].Name)
}
