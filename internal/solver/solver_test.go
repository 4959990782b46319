package solver_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarischronos/polarischronos/internal/location"
	"github.com/polarischronos/polarischronos/internal/schedule"
	"github.com/polarischronos/polarischronos/internal/solver"
)

func mecca() location.ResolvedLocation {
	return location.ResolvedLocation{
		Name:        "mecca",
		Country:     "Saudi Arabia",
		CountryCode: "SA",
		Lat:         21.4225,
		Lon:         39.8262,
		TZ:          "Asia/Riyadh",
		Source:      location.SourceBuiltIn,
		Confidence:  0.95,
	}
}

func tromso() location.ResolvedLocation {
	return location.ResolvedLocation{
		Name:       "tromso",
		Lat:        69.6492,
		Lon:        18.9553,
		TZ:         "Europe/Oslo",
		Source:     location.SourceBuiltIn,
		Confidence: 0.95,
	}
}

func TestParseDate(t *testing.T) {
	d, err := solver.ParseDate("2026-03-20")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year)
	assert.Equal(t, time.March, d.Month)
	assert.Equal(t, 20, d.Day)
	assert.Equal(t, "2026-03-20", d.String())

	_, err = solver.ParseDate("20-03-2026")
	assert.Error(t, err)
}

func TestComputeDay_MeccaShape(t *testing.T) {
	ds, err := solver.ComputeDay(mecca(), solver.Date{Year: 2026, Month: time.March, Day: 20}, schedule.StrategyProjected45)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-20", ds.Date)
	assert.Equal(t, schedule.StateNormal, ds.State)
	assert.Equal(t, schedule.StrategyProjected45, ds.GapStrategy)
	assert.Equal(t, "mecca", ds.Location.Name)
	assert.Equal(t, 0.95, ds.Location.ResolvedConfidence)

	for _, kind := range schedule.Kinds {
		ev := ds.Events.ByKind(kind)
		require.NotNil(t, ev.Time, "kind %s", kind)
		assert.Equal(t, schedule.MethodStandard, ev.Method, "kind %s", kind)
		assert.Equal(t, 1.0, ev.Confidence, "kind %s", kind)
		assert.False(t, ev.NextDay, "kind %s", kind)
		// Display times are truncated to the minute.
		assert.Regexp(t, `^\d{2}:\d{2}:00$`, *ev.Time, "kind %s", kind)
	}
}

func TestComputeDay_JSONContract(t *testing.T) {
	ds, err := solver.ComputeDay(mecca(), solver.Date{Year: 2026, Month: time.March, Day: 20}, schedule.StrategyProjected45)
	require.NoError(t, err)

	data, err := json.Marshal(ds)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, field := range []string{"date", "state", "gap_strategy", "location", "solar", "events"} {
		assert.Contains(t, decoded, field)
	}

	events, ok := decoded["events"].(map[string]interface{})
	require.True(t, ok)
	for _, kind := range []string{"fajr", "sunrise", "dhuhr", "asr", "maghrib", "isha"} {
		require.Contains(t, events, kind)
		event := events[kind].(map[string]interface{})
		assert.Contains(t, event, "time")
		assert.Contains(t, event, "next_day")
		assert.Contains(t, event, "method")
		assert.Contains(t, event, "confidence")
		assert.Contains(t, event, "note")
	}

	loc, ok := decoded["location"].(map[string]interface{})
	require.True(t, ok)
	for _, field := range []string{"name", "lat", "lon", "tz", "source", "resolved_confidence"} {
		assert.Contains(t, loc, field)
	}

	sol, ok := decoded["solar"].(map[string]interface{})
	require.True(t, ok)
	for _, field := range []string{"max_altitude", "min_altitude", "peak_utc", "nadir_utc"} {
		assert.Contains(t, sol, field)
	}
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2}$`, sol["peak_utc"])
}

func TestComputeDay_NoneEventsSerializeNullTime(t *testing.T) {
	ds, err := solver.ComputeDay(tromso(), solver.Date{Year: 2026, Month: time.December, Day: 21}, schedule.StrategyStrict)
	require.NoError(t, err)

	data, err := json.Marshal(ds)
	require.NoError(t, err)

	var decoded struct {
		Events map[string]struct {
			Time       *string `json:"time"`
			Method     string  `json:"method"`
			Confidence float64 `json:"confidence"`
			Note       string  `json:"note"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	sunrise := decoded.Events["sunrise"]
	assert.Nil(t, sunrise.Time)
	assert.Equal(t, "None", sunrise.Method)
	assert.Equal(t, 0.0, sunrise.Confidence)
	assert.NotEmpty(t, sunrise.Note)

	dhuhr := decoded.Events["dhuhr"]
	require.NotNil(t, dhuhr.Time)
	assert.Equal(t, "Standard", dhuhr.Method)
}

func TestComputeDay_TromsoMidsummerNextDayFlags(t *testing.T) {
	ds, err := solver.ComputeDay(tromso(), solver.Date{Year: 2026, Month: time.June, Day: 21}, schedule.StrategyProjected45)
	require.NoError(t, err)

	assert.Equal(t, schedule.StatePolarDay, ds.State)
	assert.True(t, ds.Events.Fajr.NextDay)
	assert.True(t, ds.Events.Isha.NextDay)
	assert.Contains(t, ds.Events.Fajr.Note, "next day")
	assert.Equal(t, schedule.MethodVirtual, ds.Events.Fajr.Method)
	assert.Equal(t, schedule.MethodProjected, ds.Events.Sunrise.Method)
	assert.False(t, ds.Events.Dhuhr.NextDay)
}

func TestComputeDay_Deterministic(t *testing.T) {
	date := solver.Date{Year: 2026, Month: time.June, Day: 21}
	a, err := solver.ComputeDay(tromso(), date, schedule.StrategyProjected45)
	require.NoError(t, err)
	b, err := solver.ComputeDay(tromso(), date, schedule.StrategyProjected45)
	require.NoError(t, err)

	aJSON, err := json.Marshal(a)
	require.NoError(t, err)
	bJSON, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, aJSON, bJSON)
}

func TestComputeDay_InvalidInputs(t *testing.T) {
	date := solver.Date{Year: 2026, Month: time.March, Day: 20}

	bad := mecca()
	bad.Lat = 95
	_, err := solver.ComputeDay(bad, date, schedule.StrategyProjected45)
	assert.ErrorIs(t, err, location.ErrInvalidInput)

	bad = mecca()
	bad.TZ = "Mars/Olympus_Mons"
	_, err = solver.ComputeDay(bad, date, schedule.StrategyProjected45)
	assert.ErrorIs(t, err, location.ErrInvalidInput)

	_, err = solver.ComputeDay(mecca(), solver.Date{Year: 3026, Month: time.March, Day: 20}, schedule.StrategyProjected45)
	assert.ErrorIs(t, err, location.ErrInvalidInput)
}

func TestComputeMonth(t *testing.T) {
	schedules, err := solver.ComputeMonth(mecca(), 2026, time.February, schedule.StrategyProjected45)
	require.NoError(t, err)
	require.Len(t, schedules, 28)

	for i, ds := range schedules {
		require.NotNil(t, ds, "day %d", i+1)
		assert.Equal(t, solver.Date{Year: 2026, Month: time.February, Day: i + 1}.String(), ds.Date)
	}
}

func TestComputeMonth_MatchesComputeDay(t *testing.T) {
	schedules, err := solver.ComputeMonth(tromso(), 2026, time.June, schedule.StrategyProjected45)
	require.NoError(t, err)
	require.Len(t, schedules, 30)

	single, err := solver.ComputeDay(tromso(), solver.Date{Year: 2026, Month: time.June, Day: 21}, schedule.StrategyProjected45)
	require.NoError(t, err)

	assert.Equal(t, single, schedules[20])
}

func TestCache(t *testing.T) {
	cache := solver.NewCache(time.Hour)
	date := solver.Date{Year: 2026, Month: time.March, Day: 20}
	key := solver.CacheKey(21.4225, 39.8262, date, "Asia/Riyadh", schedule.StrategyProjected45)

	_, ok := cache.Get(key)
	assert.False(t, ok)

	ds, err := solver.ComputeDay(mecca(), date, schedule.StrategyProjected45)
	require.NoError(t, err)
	cache.Put(key, ds)

	cached, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, ds, cached)

	otherKey := solver.CacheKey(21.4225, 39.8262, date, "Asia/Riyadh", schedule.StrategyStrict)
	_, ok = cache.Get(otherKey)
	assert.False(t, ok)
}
