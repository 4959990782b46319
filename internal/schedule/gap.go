package schedule

import (
	"fmt"
	"math"
	"time"

	"github.com/polarischronos/polarischronos/internal/solar"
)

// Reference-latitude band for gap filling. Projection starts at the low edge
// and widens poleward in one-degree steps until the event resolves; the
// virtual twilight anchor searches the same band from the high edge down for
// the nearest latitude where twilight still exists.
const (
	refLatMin  = 45.0
	refLatMax  = 55.0
	refLatStep = 1.0
)

// gapFiller synthesizes times for events the observer's curve cannot
// provide.
type gapFiller struct {
	curve *solar.Curve
	peak  solar.Sample
	state DayState

	year  int
	month time.Month
	day   int
	lat   float64
	lon   float64
	loc   *time.Location

	refCurves map[float64]*solar.Curve
}

// apply fills every event detect left unresolved, according to the strategy.
func (g *gapFiller) apply(events *Events, strategy Strategy) {
	for _, kind := range Kinds {
		if events.ByKind(kind).Method == MethodStandard {
			continue
		}

		if strategy == StrategyStrict {
			events.set(kind, noneEvent(g.absenceReason(kind)))
			continue
		}

		// Virtual applies to the twilight pair only, and needs a nadir on a
		// night that belongs to an actual day; in polar night it cascades
		// straight to projection.
		if (kind == KindFajr || kind == KindIsha) && g.state != StatePolarNight {
			if ev, ok := g.virtualTwilight(kind); ok {
				events.set(kind, ev)
				continue
			}
		}

		if ev, ok := g.projected(kind); ok {
			events.set(kind, ev)
			continue
		}

		events.set(kind, noneEvent(g.absenceReason(kind)))
	}
}

// virtualTwilight places Fajr and Isha symmetrically around the solar nadir
// that closes the civil day, using the twilight-to-nadir gap measured at the
// nearest reference latitude where the -18° threshold still exists for this
// date and longitude.
func (g *gapFiller) virtualTwilight(kind Kind) (Event, bool) {
	refLat, ref := g.nearestTwilightLatitude()
	if ref == nil {
		return Event{}, false
	}

	nightNadir := g.curve.NadirWithin(g.peak.At, g.peak.At.Add(24*time.Hour))
	refPeak := ref.Peak()
	refNadir := ref.NadirWithin(refPeak.At, refPeak.At.Add(24*time.Hour))

	note := fmt.Sprintf("twilight never reached; anchored at solar nadir with offset from %.1f° reference latitude", refLat)

	switch kind {
	case KindFajr:
		at, ok := ref.CrossingAfter(solar.TwilightAngle, true, refNadir.At)
		if !ok {
			return Event{}, false
		}
		return virtualEvent(nightNadir.At.Add(at.Sub(refNadir.At)), note), true
	case KindIsha:
		at, ok := ref.CrossingAfter(solar.TwilightAngle, false, refPeak.At)
		if !ok {
			return Event{}, false
		}
		return virtualEvent(nightNadir.At.Add(-refNadir.At.Sub(at)), note), true
	default:
		return Event{}, false
	}
}

// projected transplants the event's duration from solar noon at a reference
// latitude onto the observer's solar noon. The reference starts at 45° and
// widens poleward one degree at a time until the event resolves there.
func (g *gapFiller) projected(kind Kind) (Event, bool) {
	for phi := refLatMin; phi <= refLatMax; phi += refLatStep {
		ref := g.referenceCurve(phi)
		refPeak := ref.Peak()

		var at time.Time
		var ok bool
		switch kind {
		case KindSunrise:
			at, ok = ref.CrossingBefore(solar.HorizonAngle, true, refPeak.At)
		case KindFajr:
			at, ok = ref.CrossingBefore(solar.TwilightAngle, true, refPeak.At)
		case KindMaghrib:
			at, ok = ref.CrossingAfter(solar.HorizonAngle, false, refPeak.At)
		case KindIsha:
			at, ok = ref.CrossingAfter(solar.TwilightAngle, false, refPeak.At)
		case KindAsr:
			alt := asrAltitude(math.Copysign(phi, g.lat), solar.DeclinationAt(refPeak.At))
			at, ok = ref.CrossingAfter(alt, false, refPeak.At)
		default:
			return Event{}, false
		}
		if !ok {
			continue
		}

		note := fmt.Sprintf("projected from %.1f° reference latitude", phi)
		return projectedEvent(g.peak.At.Add(at.Sub(refPeak.At)), note), true
	}
	return Event{}, false
}

// nearestTwilightLatitude returns the highest reference latitude in the band
// whose curve still crosses -18° in both directions, together with its
// curve. Around the summer solstice this lands near 48°; in winter it is the
// top of the band.
func (g *gapFiller) nearestTwilightLatitude() (float64, *solar.Curve) {
	for phi := refLatMax; phi >= refLatMin; phi -= refLatStep {
		ref := g.referenceCurve(phi)
		if ref.Crosses(solar.TwilightAngle, true) && ref.Crosses(solar.TwilightAngle, false) {
			return phi, ref
		}
	}
	return 0, nil
}

// referenceCurve samples (and memoizes) the same date and longitude at a
// reference latitude in the observer's hemisphere.
func (g *gapFiller) referenceCurve(phi float64) *solar.Curve {
	if g.refCurves == nil {
		g.refCurves = make(map[float64]*solar.Curve)
	}
	if c, ok := g.refCurves[phi]; ok {
		return c
	}
	c := solar.SampleDay(g.year, g.month, g.day, math.Copysign(phi, g.lat), g.lon, g.loc)
	g.refCurves[phi] = c
	return c
}

// absenceReason explains why an event has no physical time on this day.
func (g *gapFiller) absenceReason(kind Kind) string {
	switch kind {
	case KindSunrise, KindMaghrib:
		if g.state == StatePolarDay {
			return "sun never sets on this day"
		}
		return "sun never rises on this day"
	case KindFajr, KindIsha:
		if g.state == StatePolarNight {
			return "sun never rises on this day"
		}
		return fmt.Sprintf("sun never descends to %.0f° on this day", solar.TwilightAngle)
	case KindAsr:
		return "sun never reaches the asr shadow altitude on this day"
	default:
		return "event has no physical time on this day"
	}
}
