package solar

import (
	"time"
)

// SampleStep is the curve resolution. One minute keeps event detection well
// inside one-minute fidelity after linear interpolation of the crossing.
const SampleStep = time.Minute

// crossTol is the bracketing tolerance for threshold crossings, in degrees.
// A curve that kisses a threshold within this band counts as crossing it.
const crossTol = 1e-3

// Sample is one point of the altitude curve.
type Sample struct {
	At       time.Time
	Altitude float64
}

// Curve is a sampled sun-altitude curve for one civil day, with one extra
// civil day of lookahead so events that spill past local midnight are still
// detectable. All instants are UTC.
type Curve struct {
	samples  []Sample
	dayStart time.Time
	dayEnd   time.Time
}

// SampleDay samples the sun altitude for the civil day (year, month, day) as
// defined by loc, at one-minute resolution, extended through the following
// civil day.
func SampleDay(year int, month time.Month, day int, lat, lon float64, loc *time.Location) *Curve {
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, loc)
	dayEnd := time.Date(year, month, day+1, 0, 0, 0, 0, loc)
	scanEnd := time.Date(year, month, day+2, 0, 0, 0, 0, loc)

	n := int(scanEnd.Sub(dayStart)/SampleStep) + 1
	samples := make([]Sample, 0, n)
	for at := dayStart; !at.After(scanEnd); at = at.Add(SampleStep) {
		utc := at.UTC()
		samples = append(samples, Sample{At: utc, Altitude: Altitude(utc, lat, lon)})
	}

	return &Curve{
		samples:  samples,
		dayStart: dayStart.UTC(),
		dayEnd:   dayEnd.UTC(),
	}
}

// Samples returns the full ordered sample sequence, lookahead included.
func (c *Curve) Samples() []Sample { return c.samples }

// DayStart returns the UTC instant of the civil day's first local midnight.
func (c *Curve) DayStart() time.Time { return c.dayStart }

// DayEnd returns the UTC instant of the local midnight ending the civil day.
func (c *Curve) DayEnd() time.Time { return c.dayEnd }

// Peak returns the refined altitude maximum within the civil day.
func (c *Curve) Peak() Sample {
	return c.PeakWithin(c.dayStart, c.dayEnd)
}

// Nadir returns the refined altitude minimum within the civil day.
func (c *Curve) Nadir() Sample {
	return c.NadirWithin(c.dayStart, c.dayEnd)
}

// PeakWithin returns the refined altitude maximum in [from, to).
func (c *Curve) PeakWithin(from, to time.Time) Sample {
	return c.extremeWithin(from, to, true)
}

// NadirWithin returns the refined altitude minimum in [from, to).
func (c *Curve) NadirWithin(from, to time.Time) Sample {
	return c.extremeWithin(from, to, false)
}

func (c *Curve) extremeWithin(from, to time.Time, max bool) Sample {
	best := -1
	for i, s := range c.samples {
		if s.At.Before(from) || !s.At.Before(to) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		if max && s.Altitude > c.samples[best].Altitude {
			best = i
		}
		if !max && s.Altitude < c.samples[best].Altitude {
			best = i
		}
	}
	if best < 0 {
		return Sample{}
	}
	return c.refineExtreme(best)
}

// refineExtreme fits a parabola through the extreme sample and its two
// neighbours and returns the vertex. Falls back to the raw sample at the
// curve edges or when the points are collinear.
func (c *Curve) refineExtreme(i int) Sample {
	if i <= 0 || i >= len(c.samples)-1 {
		return c.samples[i]
	}
	y0 := c.samples[i-1].Altitude
	y1 := c.samples[i].Altitude
	y2 := c.samples[i+1].Altitude

	denom := y0 - 2*y1 + y2
	if denom == 0 {
		return c.samples[i]
	}
	delta := 0.5 * (y0 - y2) / denom
	delta = clamp(delta, -1, 1)

	at := c.samples[i].At.Add(time.Duration(delta * float64(SampleStep)))
	alt := y1 - 0.25*(y0-y2)*delta
	return Sample{At: at, Altitude: alt}
}

// CrossingAfter finds the first crossing of target at or after from, in the
// given direction. The crossing instant is linearly interpolated between the
// bracketing samples.
func (c *Curve) CrossingAfter(target float64, ascending bool, from time.Time) (time.Time, bool) {
	for i := 0; i+1 < len(c.samples); i++ {
		a, b := c.samples[i], c.samples[i+1]
		if b.At.Before(from) {
			continue
		}
		if at, ok := crossingBetween(a, b, target, ascending); ok && !at.Before(from) {
			return at, true
		}
	}
	return time.Time{}, false
}

// CrossingBefore finds the last crossing of target strictly before limit, in
// the given direction.
func (c *Curve) CrossingBefore(target float64, ascending bool, limit time.Time) (time.Time, bool) {
	var found time.Time
	ok := false
	for i := 0; i+1 < len(c.samples); i++ {
		a, b := c.samples[i], c.samples[i+1]
		if !a.At.Before(limit) {
			break
		}
		if at, hit := crossingBetween(a, b, target, ascending); hit && at.Before(limit) {
			found = at
			ok = true
		}
	}
	return found, ok
}

// Crosses reports whether the curve crosses target in the given direction
// anywhere within the civil day.
func (c *Curve) Crosses(target float64, ascending bool) bool {
	at, ok := c.CrossingAfter(target, ascending, c.dayStart)
	return ok && at.Before(c.dayEnd)
}

func crossingBetween(a, b Sample, target float64, ascending bool) (time.Time, bool) {
	var crosses bool
	if ascending {
		crosses = a.Altitude-target <= crossTol && b.Altitude-target > crossTol
	} else {
		crosses = a.Altitude-target >= -crossTol && b.Altitude-target < -crossTol
	}
	if !crosses {
		return time.Time{}, false
	}
	frac := (target - a.Altitude) / (b.Altitude - a.Altitude)
	frac = clamp(frac, 0, 1)
	dt := time.Duration(frac * float64(b.At.Sub(a.At)))
	return a.At.Add(dt), true
}
