package location_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarischronos/polarischronos/internal/location"
)

func TestDataset_ExactMatch(t *testing.T) {
	ds := location.NewDataset()

	matches := ds.Lookup("Mecca")
	require.Len(t, matches, 1)
	assert.Equal(t, "mecca", matches[0].CanonicalName)
	assert.Equal(t, "SA", matches[0].CountryCode)
	assert.InDelta(t, 21.4225, matches[0].Lat, 0.01)
	assert.Equal(t, "Asia/Riyadh", matches[0].TZ)
}

func TestDataset_AliasMatch(t *testing.T) {
	ds := location.NewDataset()

	matches := ds.Lookup("makkah")
	require.Len(t, matches, 1)
	assert.Equal(t, "mecca", matches[0].CanonicalName)

	matches = ds.Lookup("NYC")
	require.Len(t, matches, 1)
	assert.Equal(t, "new york", matches[0].CanonicalName)
}

func TestDataset_CaseAndDiacritics(t *testing.T) {
	ds := location.NewDataset()

	matches := ds.Lookup("STOCKHOLM")
	require.Len(t, matches, 1)
	assert.Equal(t, "stockholm", matches[0].CanonicalName)

	matches = ds.Lookup("Tromsø")
	require.Len(t, matches, 1)
	assert.Equal(t, "tromso", matches[0].CanonicalName)

	matches = ds.Lookup("São Paulo")
	require.Len(t, matches, 1)
	assert.Equal(t, "sao paulo", matches[0].CanonicalName)
}

func TestDataset_FuzzyMatch(t *testing.T) {
	ds := location.NewDataset()

	// One dropped letter.
	matches := ds.Lookup("stockhlm")
	require.Len(t, matches, 1)
	assert.Equal(t, "stockholm", matches[0].CanonicalName)
}

func TestDataset_MultiCountryMatch(t *testing.T) {
	ds := location.NewDataset()

	matches := ds.Lookup("medina")
	require.Len(t, matches, 2)

	codes := map[string]bool{}
	for _, rec := range matches {
		codes[rec.CountryCode] = true
	}
	assert.True(t, codes["SA"])
	assert.True(t, codes["US"])
}

func TestDataset_CountryFilter(t *testing.T) {
	ds := location.NewDataset()

	matches := ds.LookupCountry("medina", "SA")
	require.Len(t, matches, 1)
	assert.Equal(t, "SA", matches[0].CountryCode)
	assert.InDelta(t, 24.4686, matches[0].Lat, 0.01)
	assert.Equal(t, "Asia/Riyadh", matches[0].TZ)
}

func TestDataset_NoMatch(t *testing.T) {
	ds := location.NewDataset()
	assert.Empty(t, ds.Lookup("xyznonexistentcity123"))
	assert.Empty(t, ds.Lookup(""))
}

func TestDataset_List(t *testing.T) {
	ds := location.NewDataset()
	list := ds.List()

	require.GreaterOrEqual(t, len(list), 30)
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Name, list[i].Name)
	}

	for _, entry := range list {
		assert.NotEmpty(t, entry.Name)
		assert.Len(t, entry.CountryCode, 2)
		assert.NotEmpty(t, entry.Country)
	}
}

func TestRecord_Resolved(t *testing.T) {
	ds := location.NewDataset()
	matches := ds.Lookup("oslo")
	require.Len(t, matches, 1)

	loc := matches[0].Resolved()
	assert.Equal(t, location.SourceBuiltIn, loc.Source)
	assert.Equal(t, 0.95, loc.Confidence)
	assert.NotEmpty(t, loc.DisplayCoords)
}

func TestFormatCoords(t *testing.T) {
	assert.Equal(t, "21.4225°N, 39.8262°E", location.FormatCoords(21.4225, 39.8262))
	assert.Equal(t, "33.8688°S, 151.2093°W", location.FormatCoords(-33.8688, -151.2093))
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "tromso", location.NormalizeQuery("  Tromsø "))
	assert.Equal(t, "multiple spaces", location.NormalizeQuery("Multiple   Spaces"))
	assert.Equal(t, "sao paulo", location.NormalizeQuery("São Paulo"))
}
