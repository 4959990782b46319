package schedule

import (
	"math"
	"time"

	"github.com/polarischronos/polarischronos/internal/solar"
)

const degToRad = math.Pi / 180

// Classify determines the day state from the curve's civil-day extremes.
// The cases are checked most-extreme first so the states are disjoint.
func Classify(peakAlt, nadirAlt float64) DayState {
	switch {
	case peakAlt < solar.HorizonAngle:
		return StatePolarNight
	case nadirAlt > solar.HorizonAngle:
		return StatePolarDay
	case nadirAlt > solar.TwilightAngle:
		return StateWhiteNight
	default:
		return StateNormal
	}
}

// Compute builds the full schedule for the civil day (year, month, day) in
// loc at the given coordinates. It never fails: events the day cannot
// provide come back filled in by the strategy, as Projected/Virtual or None.
func Compute(year int, month time.Month, day int, lat, lon float64, loc *time.Location, strategy Strategy) Result {
	curve := solar.SampleDay(year, month, day, lat, lon, loc)
	peak := curve.Peak()
	nadir := curve.Nadir()
	state := Classify(peak.Altitude, nadir.Altitude)

	events := detect(curve, peak, state, lat)

	filler := &gapFiller{
		curve: curve,
		peak:  peak,
		state: state,
		year:  year,
		month: month,
		day:   day,
		lat:   lat,
		lon:   lon,
		loc:   loc,
	}
	filler.apply(&events, strategy)

	return Result{
		State:  state,
		Events: events,
		Solar: Summary{
			MaxAltitude: peak.Altitude,
			MinAltitude: nadir.Altitude,
			PeakUTC:     peak.At,
			NadirUTC:    nadir.At,
		},
	}
}

// detect resolves every event the curve physically provides. Unresolved
// events are left as zero values for the gap strategy.
//
// Which thresholds can exist follows from the state, so detection is gated
// on it rather than re-probing thresholds the classification already ruled
// out (this also keeps curves that kiss a threshold within the bracketing
// tolerance on the side the classification chose).
func detect(curve *solar.Curve, peak solar.Sample, state DayState, lat float64) Events {
	var events Events

	// Dhuhr: the curve maximum always exists, even below the horizon.
	events.Dhuhr = standardEvent(peak.At)

	if state == StatePolarNight {
		return events
	}

	// Asr: descending crossing of the shadow-rule altitude after solar noon.
	asrAlt := asrAltitude(lat, solar.DeclinationAt(peak.At))
	if at, ok := curve.CrossingAfter(asrAlt, false, peak.At); ok {
		events.Asr = standardEvent(at)
	}

	if state == StateNormal || state == StateWhiteNight {
		// The ascending horizon crossing closest before solar noon, and the
		// first descending crossing after it.
		if at, ok := curve.CrossingBefore(solar.HorizonAngle, true, peak.At); ok {
			events.Sunrise = standardEvent(at)
		}
		if at, ok := curve.CrossingAfter(solar.HorizonAngle, false, peak.At); ok {
			events.Maghrib = standardEvent(at)
		}
	}

	if state == StateNormal {
		if at, ok := curve.CrossingBefore(solar.TwilightAngle, true, peak.At); ok {
			events.Fajr = standardEvent(at)
		}
		if at, ok := curve.CrossingAfter(solar.TwilightAngle, false, peak.At); ok {
			events.Isha = standardEvent(at)
		}
	}

	return events
}

// asrAltitude returns the sun altitude at which the shadow of a gnomon
// equals its height plus the noon shadow (the standard shadow rule):
// cot(alt) = 1 + tan(|lat - decl|).
func asrAltitude(lat, decl float64) float64 {
	denom := 1 + math.Tan(math.Abs(lat-decl)*degToRad)
	if denom <= 0 {
		return 0
	}
	return math.Atan(1/denom) / degToRad
}
