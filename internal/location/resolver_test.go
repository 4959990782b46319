package location_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarischronos/polarischronos/internal/location"
)

// fakeGeocoder is a scripted Geocoder.
type fakeGeocoder struct {
	candidates []location.Candidate
	err        error
	calls      int
	lastQuery  string
	lastHint   string
}

func (f *fakeGeocoder) Search(_ context.Context, query, countryHint string, _ int) ([]location.Candidate, error) {
	f.calls++
	f.lastQuery = query
	f.lastHint = countryHint
	if f.err != nil {
		return nil, f.err
	}
	if countryHint != "" {
		var filtered []location.Candidate
		for _, c := range f.candidates {
			if c.CountryCode == countryHint {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) == 0 {
			return nil, fmt.Errorf("%w: %q", location.ErrNotFound, query)
		}
		return filtered, nil
	}
	return f.candidates, nil
}

// fakeIP is a scripted IPLocator.
type fakeIP struct {
	loc *location.ResolvedLocation
	err error
}

func (f *fakeIP) Locate(context.Context) (*location.ResolvedLocation, error) {
	return f.loc, f.err
}

// staticZones returns a fixed timezone.
type staticZones struct{ zone string }

func (s staticZones) Zone(context.Context, float64, float64) string { return s.zone }

func newTestResolver(t *testing.T, geocoder location.Geocoder, ip location.IPLocator) *location.Resolver {
	t.Helper()
	cache := location.NewCache(location.CacheConfig{
		Store:  location.NewFileStore(filepath.Join(t.TempDir(), "cache.json")),
		Logger: zerolog.Nop(),
	})
	return location.NewResolver(location.ResolverConfig{
		Cache:    cache,
		Dataset:  location.NewDataset(),
		Geocoder: geocoder,
		IP:       ip,
		Zones:    staticZones{zone: "UTC"},
		Logger:   zerolog.Nop(),
	})
}

func TestResolver_ManualCoords(t *testing.T) {
	r := newTestResolver(t, nil, nil)

	loc, err := r.Resolve(context.Background(), "21.4225, 39.8262", location.Options{})
	require.NoError(t, err)
	assert.Equal(t, location.SourceManualCoords, loc.Source)
	assert.Equal(t, 1.0, loc.Confidence)
	assert.InDelta(t, 21.4225, loc.Lat, 1e-9)
	assert.Equal(t, "UTC", loc.TZ)
	assert.Equal(t, "21.4225, 39.8262", loc.Name)
}

func TestResolver_ManualCoordsOutOfRange(t *testing.T) {
	r := newTestResolver(t, nil, nil)

	_, err := r.Resolve(context.Background(), "95.0, 10.0", location.Options{})
	assert.ErrorIs(t, err, location.ErrInvalidInput)
}

func TestResolver_BuiltinSingleMatch(t *testing.T) {
	r := newTestResolver(t, nil, nil)

	loc, err := r.Resolve(context.Background(), "Mecca", location.Options{})
	require.NoError(t, err)
	assert.Equal(t, location.SourceBuiltIn, loc.Source)
	assert.Equal(t, 0.95, loc.Confidence)
	assert.Equal(t, "mecca", loc.Name)
	assert.Equal(t, "Asia/Riyadh", loc.TZ)
}

func TestResolver_BuiltinFuzzy(t *testing.T) {
	r := newTestResolver(t, nil, nil)

	loc, err := r.Resolve(context.Background(), "stockhlm", location.Options{})
	require.NoError(t, err)
	assert.Equal(t, "stockholm", loc.Name)
}

func TestResolver_MedinaAmbiguousWithoutHint(t *testing.T) {
	// Offline: the dataset's two medinas cannot be told apart.
	r := newTestResolver(t, nil, nil)

	_, err := r.Resolve(context.Background(), "Medina", location.Options{})
	amb, ok := location.AsAmbiguous(err)
	require.True(t, ok, "expected ambiguous result, got %v", err)
	require.GreaterOrEqual(t, len(amb.Options), 2)

	codes := map[string]bool{}
	for _, opt := range amb.Options {
		codes[opt.CountryCode] = true
		assert.NotEmpty(t, opt.Name)
		assert.NotEmpty(t, opt.TZ)
	}
	assert.True(t, codes["SA"])
	assert.True(t, codes["US"])
}

func TestResolver_MedinaAmbiguousViaGeocoder(t *testing.T) {
	geocoder := &fakeGeocoder{candidates: []location.Candidate{
		{Name: "Medina", Country: "Saudi Arabia", CountryCode: "SA", Lat: 24.4686, Lon: 39.6142, TZ: "Asia/Riyadh", Score: 0.72},
		{Name: "Medina", Country: "United States", CountryCode: "US", Lat: 41.1434, Lon: -81.8632, TZ: "America/New_York", Score: 0.68},
	}}
	r := newTestResolver(t, geocoder, nil)

	_, err := r.Resolve(context.Background(), "Medina", location.Options{})
	amb, ok := location.AsAmbiguous(err)
	require.True(t, ok)
	assert.Equal(t, "Medina", amb.Query)
	assert.GreaterOrEqual(t, len(amb.Options), 2)
}

func TestResolver_MedinaWithCountryHint(t *testing.T) {
	r := newTestResolver(t, nil, nil)

	loc, err := r.Resolve(context.Background(), "Medina", location.Options{CountryCode: "sa"})
	require.NoError(t, err)
	assert.Equal(t, "SA", loc.CountryCode)
	assert.InDelta(t, 24.47, loc.Lat, 0.05)
	assert.InDelta(t, 39.61, loc.Lon, 0.05)
	assert.Equal(t, "Asia/Riyadh", loc.TZ)
	assert.GreaterOrEqual(t, loc.Confidence, 0.9)
}

func TestResolver_GeocoderClearWinner(t *testing.T) {
	geocoder := &fakeGeocoder{candidates: []location.Candidate{
		{Name: "Ghent", Country: "Belgium", CountryCode: "BE", Lat: 51.05, Lon: 3.72, TZ: "Europe/Brussels", Score: 0.85},
		{Name: "Ghent", Country: "United States", CountryCode: "US", Lat: 42.0, Lon: -73.9, TZ: "America/New_York", Score: 0.30},
	}}
	r := newTestResolver(t, geocoder, nil)

	loc, err := r.Resolve(context.Background(), "Ghent", location.Options{})
	require.NoError(t, err)
	assert.Equal(t, location.SourceGeocoder, loc.Source)
	assert.Equal(t, "ghent", loc.Name)
	assert.Equal(t, "BE", loc.CountryCode)
	// Geocoder confidence never reaches dataset confidence.
	assert.LessOrEqual(t, loc.Confidence, 0.9)
}

func TestResolver_GeocoderResultIsCached(t *testing.T) {
	geocoder := &fakeGeocoder{candidates: []location.Candidate{
		{Name: "Ghent", Country: "Belgium", CountryCode: "BE", Lat: 51.05, Lon: 3.72, TZ: "Europe/Brussels", Score: 0.85},
	}}
	r := newTestResolver(t, geocoder, nil)
	ctx := context.Background()

	first, err := r.Resolve(ctx, "Ghent", location.Options{})
	require.NoError(t, err)
	require.Equal(t, location.SourceGeocoder, first.Source)
	require.Equal(t, 1, geocoder.calls)

	second, err := r.Resolve(ctx, "Ghent", location.Options{})
	require.NoError(t, err)
	assert.Equal(t, location.SourceCache, second.Source)
	assert.Equal(t, 1, geocoder.calls, "cache hit must not call the geocoder")
}

func TestResolver_GeocoderHintPassedThrough(t *testing.T) {
	geocoder := &fakeGeocoder{candidates: []location.Candidate{
		{Name: "Springfield", Country: "United States", CountryCode: "US", Lat: 39.78, Lon: -89.65, TZ: "America/Chicago", Score: 0.6},
	}}
	r := newTestResolver(t, geocoder, nil)

	loc, err := r.Resolve(context.Background(), "Springfield", location.Options{CountryCode: "US"})
	require.NoError(t, err)
	assert.Equal(t, "US", geocoder.lastHint)
	assert.Equal(t, "US", loc.CountryCode)
}

func TestResolver_InvalidCountryHint(t *testing.T) {
	r := newTestResolver(t, nil, nil)

	_, err := r.Resolve(context.Background(), "Paris", location.Options{CountryCode: "FRA"})
	assert.ErrorIs(t, err, location.ErrInvalidInput)
}

func TestResolver_NotFound(t *testing.T) {
	geocoder := &fakeGeocoder{err: fmt.Errorf("%w: no match", location.ErrNotFound)}
	r := newTestResolver(t, geocoder, nil)

	_, err := r.Resolve(context.Background(), "xyznonexistentcity123", location.Options{})
	assert.ErrorIs(t, err, location.ErrNotFound)
}

func TestResolver_EmptyQueryUsesIP(t *testing.T) {
	ip := &fakeIP{loc: &location.ResolvedLocation{
		Name:       "amsterdam",
		Lat:        52.37,
		Lon:        4.90,
		TZ:         "Europe/Amsterdam",
		Source:     location.SourceIP,
		Confidence: 0.3,
	}}
	r := newTestResolver(t, nil, ip)

	loc, err := r.Resolve(context.Background(), "", location.Options{})
	require.NoError(t, err)
	assert.Equal(t, location.SourceIP, loc.Source)
	assert.InDelta(t, 0.3, loc.Confidence, 1e-9)
}

func TestResolver_IPFailureFallsBackToRecentCache(t *testing.T) {
	ip := &fakeIP{err: errors.New("connection refused")}

	cache := location.NewCache(location.CacheConfig{
		Store:  location.NewFileStore(filepath.Join(t.TempDir(), "cache.json")),
		Logger: zerolog.Nop(),
	})
	cache.Put(context.Background(), "oslo", location.ResolvedLocation{
		Name: "oslo", Lat: 59.91, Lon: 10.75, TZ: "Europe/Oslo",
		Source: location.SourceGeocoder, Confidence: 0.8,
	})

	r := location.NewResolver(location.ResolverConfig{
		Cache:   cache,
		Dataset: location.NewDataset(),
		IP:      ip,
		Zones:   staticZones{zone: "UTC"},
		Logger:  zerolog.Nop(),
	})

	loc, err := r.Resolve(context.Background(), "", location.Options{})
	require.NoError(t, err)
	assert.Equal(t, "oslo", loc.Name)
	assert.Equal(t, location.SourceCache, loc.Source)
}

func TestResolver_EmptyQueryNoIPConfigured(t *testing.T) {
	r := newTestResolver(t, nil, nil)

	_, err := r.Resolve(context.Background(), "", location.Options{})
	assert.ErrorIs(t, err, location.ErrInvalidInput)
}

func TestResolver_ConfidenceOrderAlongChain(t *testing.T) {
	// Cache >= BuiltIn >= Geocoder >= IP, observed end to end.
	geocoder := &fakeGeocoder{candidates: []location.Candidate{
		{Name: "Ghent", Country: "Belgium", CountryCode: "BE", Lat: 51.05, Lon: 3.72, TZ: "Europe/Brussels", Score: 0.85},
	}}
	ip := &fakeIP{loc: &location.ResolvedLocation{
		Name: "amsterdam", Lat: 52.37, Lon: 4.9, TZ: "Europe/Amsterdam",
		Source: location.SourceIP, Confidence: 0.3,
	}}
	r := newTestResolver(t, geocoder, ip)
	ctx := context.Background()

	builtin, err := r.Resolve(ctx, "Mecca", location.Options{})
	require.NoError(t, err)
	geocoded, err := r.Resolve(ctx, "Ghent", location.Options{})
	require.NoError(t, err)
	auto, err := r.Resolve(ctx, "", location.Options{})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, builtin.Confidence, geocoded.Confidence)
	assert.GreaterOrEqual(t, geocoded.Confidence, auto.Confidence)
}
