package solar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarischronos/polarischronos/internal/solar"
)

func TestJulianDay_J2000Epoch(t *testing.T) {
	// J2000.0 is 2000-01-01 12:00 UTC by definition.
	jd := solar.JulianDay(time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC))
	assert.InDelta(t, 2451545.0, jd, 1e-6)
}

func TestJulianDay_Monotonic(t *testing.T) {
	a := solar.JulianDay(time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC))
	b := solar.JulianDay(time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC))
	assert.InDelta(t, 0.5, b-a, 1e-9)
}

func TestPositionAt_CairoEquinoxNoon(t *testing.T) {
	// Cairo at 30°N: equinox noon altitude is close to 90 - 30 = 60°.
	curve := solar.SampleDay(2024, time.March, 20, 30.0444, 31.2357, time.UTC)
	peak := curve.Peak()
	assert.InDelta(t, 60.0, peak.Altitude, 1.5)
}

func TestPositionAt_CairoSummerSolstice(t *testing.T) {
	curve := solar.SampleDay(2024, time.June, 21, 30.0444, 31.2357, time.UTC)
	peak := curve.Peak()
	assert.Greater(t, peak.Altitude, 80.0)
}

func TestPositionAt_TromsoWinterPeakBelowHorizon(t *testing.T) {
	curve := solar.SampleDay(2025, time.December, 21, 69.6492, 18.9553, time.UTC)
	peak := curve.Peak()
	assert.Less(t, peak.Altitude, 0.0)
	assert.Greater(t, peak.Altitude, -10.0)
}

func TestPositionAt_DeclinationRange(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		decl := solar.DeclinationAt(time.Date(2026, month, 15, 12, 0, 0, 0, time.UTC))
		assert.LessOrEqual(t, decl, 23.5)
		assert.GreaterOrEqual(t, decl, -23.5)
	}
}

func TestSampleDay_Shape(t *testing.T) {
	curve := solar.SampleDay(2026, time.March, 20, 21.4225, 39.8262, time.UTC)
	samples := curve.Samples()

	// One civil day plus a full lookahead day at one-minute resolution.
	require.GreaterOrEqual(t, len(samples), 2*1440)

	for i := 1; i < len(samples); i++ {
		assert.Equal(t, time.Minute, samples[i].At.Sub(samples[i-1].At))
	}

	assert.Equal(t, samples[0].At, curve.DayStart())
	assert.Equal(t, 24*time.Hour, curve.DayEnd().Sub(curve.DayStart()))
}

func TestSampleDay_CivilDayFollowsTimezone(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	curve := solar.SampleDay(2026, time.June, 21, 69.6492, 18.9553, oslo)

	// Midsummer Oslo time is UTC+2, so the civil day starts at 22:00 UTC
	// the evening before.
	assert.Equal(t, time.Date(2026, time.June, 20, 22, 0, 0, 0, time.UTC), curve.DayStart())
}

func TestCrossings_CairoSunriseSunset(t *testing.T) {
	curve := solar.SampleDay(2024, time.March, 20, 30.0444, 31.2357, time.UTC)
	peak := curve.Peak()

	sunrise, ok := curve.CrossingBefore(solar.HorizonAngle, true, peak.At)
	require.True(t, ok)
	sunset, ok := curve.CrossingAfter(solar.HorizonAngle, false, peak.At)
	require.True(t, ok)

	// Cairo is roughly UTC+2 in solar terms: sunrise near 04:00 UTC,
	// sunset near 16:00 UTC at equinox.
	assert.True(t, sunrise.After(curve.DayStart().Add(3*time.Hour)))
	assert.True(t, sunrise.Before(curve.DayStart().Add(5*time.Hour)))
	assert.True(t, sunset.After(curve.DayStart().Add(15*time.Hour)))
	assert.True(t, sunset.Before(curve.DayStart().Add(17*time.Hour)))

	assert.True(t, sunrise.Before(sunset))
}

func TestCrossings_PolarDayHasNoHorizonCrossing(t *testing.T) {
	curve := solar.SampleDay(2026, time.June, 21, 78.2232, 15.6267, time.UTC)
	assert.False(t, curve.Crosses(solar.HorizonAngle, true))
	assert.False(t, curve.Crosses(solar.HorizonAngle, false))
}

func TestCurve_EquatorEquinoxSymmetry(t *testing.T) {
	curve := solar.SampleDay(2026, time.March, 20, 0.0, 0.0, time.UTC)
	peak := curve.Peak()
	nadir := curve.Nadir()

	// At the equator on the equinox the wave is symmetric: the nadir
	// mirrors the peak and the extremes sit half a day apart.
	assert.InDelta(t, peak.Altitude, -nadir.Altitude, 0.5)

	gap := nadir.At.Sub(peak.At)
	if gap < 0 {
		gap = -gap
	}
	assert.InDelta(t, (12 * time.Hour).Minutes(), gap.Minutes(), 6)

	// Sunrise and sunset sit symmetrically around solar noon.
	sunrise, ok := curve.CrossingBefore(solar.HorizonAngle, true, peak.At)
	require.True(t, ok)
	sunset, ok := curve.CrossingAfter(solar.HorizonAngle, false, peak.At)
	require.True(t, ok)

	morning := peak.At.Sub(sunrise)
	evening := sunset.Sub(peak.At)
	assert.InDelta(t, morning.Minutes(), evening.Minutes(), 3)
}

func TestPositionAt_Deterministic(t *testing.T) {
	at := time.Date(2026, time.June, 21, 10, 46, 0, 0, time.UTC)
	a := solar.PositionAt(at, 69.6492, 18.9553)
	b := solar.PositionAt(at, 69.6492, 18.9553)
	assert.Equal(t, a, b)
}
