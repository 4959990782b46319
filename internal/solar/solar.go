// Package solar computes topocentric sun positions and sampled altitude
// curves using a Meeus-class solar position algorithm. Accuracy is about
// 0.01 degrees of altitude within roughly a century of J2000, which is far
// inside the one-minute-of-time fidelity the schedule layer needs.
//
// Everything in this package is pure: no clocks, no locale, no global state.
package solar

import (
	"math"
	"time"
)

const degToRad = math.Pi / 180

// HorizonAngle is the refraction-corrected geometric horizon. Sunrise and
// sunset are crossings of this altitude, not of zero.
const HorizonAngle = -0.833

// TwilightAngle is the astronomical twilight depression defining Fajr and Isha.
const TwilightAngle = -18.0

// Position is the sun's position for one observer at one UTC instant.
type Position struct {
	// Altitude is degrees above the local horizon, negative below.
	Altitude float64

	// Azimuth is degrees clockwise from true north.
	Azimuth float64

	// Declination is the solar declination in degrees.
	Declination float64

	// EquationOfTime is the equation of time in minutes.
	EquationOfTime float64
}

// JulianDay converts a UTC instant to a Julian Day number.
func JulianDay(t time.Time) float64 {
	t = t.UTC()
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())
	h := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600

	if m <= 2 {
		y--
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	return math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + h/24 + b - 1524.5
}

func julianCentury(jd float64) float64 {
	return (jd - 2451545.0) / 36525.0
}

func normalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func sunMeanLongitude(t float64) float64 {
	return normalizeDegrees(280.46646 + t*(36000.76983+t*0.0003032))
}

func sunMeanAnomaly(t float64) float64 {
	return normalizeDegrees(357.52911 + t*(35999.05029-t*0.0001537))
}

func earthEccentricity(t float64) float64 {
	return 0.016708634 - t*(0.000042037+t*0.0000001267)
}

func sunEquationOfCenter(t float64) float64 {
	m := sunMeanAnomaly(t) * degToRad
	return math.Sin(m)*(1.914602-t*(0.004817+t*0.000014)) +
		math.Sin(2*m)*(0.019993-t*0.000101) +
		math.Sin(3*m)*0.000289
}

func sunTrueLongitude(t float64) float64 {
	return sunMeanLongitude(t) + sunEquationOfCenter(t)
}

func sunApparentLongitude(t float64) float64 {
	omega := 125.04 - 1934.136*t
	return sunTrueLongitude(t) - 0.00569 - 0.00478*math.Sin(omega*degToRad)
}

func meanObliquity(t float64) float64 {
	return 23.0 + (26.0+(21.448-t*(46.815+t*(0.00059-t*0.001813)))/60.0)/60.0
}

func obliquityCorrected(t float64) float64 {
	omega := 125.04 - 1934.136*t
	return meanObliquity(t) + 0.00256*math.Cos(omega*degToRad)
}

func solarDeclination(t float64) float64 {
	e := obliquityCorrected(t) * degToRad
	lambda := sunApparentLongitude(t) * degToRad
	return math.Asin(math.Sin(e)*math.Sin(lambda)) / degToRad
}

func equationOfTime(t float64) float64 {
	e := obliquityCorrected(t) * degToRad
	l0 := sunMeanLongitude(t) * degToRad
	ecc := earthEccentricity(t)
	m := sunMeanAnomaly(t) * degToRad

	y := math.Tan(e / 2)
	y *= y

	eq := y*math.Sin(2*l0) - 2*ecc*math.Sin(m) +
		4*ecc*y*math.Sin(m)*math.Cos(2*l0) -
		0.5*y*y*math.Sin(4*l0) -
		1.25*ecc*ecc*math.Sin(2*m)

	return 4 * eq / degToRad
}

// PositionAt computes the solar position for a UTC instant at the given
// observer latitude and longitude (decimal degrees, WGS-84).
func PositionAt(at time.Time, lat, lon float64) Position {
	at = at.UTC()
	jd := JulianDay(at)
	t := julianCentury(jd)

	decl := solarDeclination(t)
	eqt := equationOfTime(t)

	hour := float64(at.Hour()) + float64(at.Minute())/60 + float64(at.Second())/3600
	solarTime := hour*60 + eqt + 4*lon
	hourAngle := solarTime/4 - 180

	latR := lat * degToRad
	declR := decl * degToRad
	haR := hourAngle * degToRad

	sinAlt := math.Sin(latR)*math.Sin(declR) + math.Cos(latR)*math.Cos(declR)*math.Cos(haR)
	altitude := math.Asin(sinAlt) / degToRad

	var azimuth float64
	if math.Abs(math.Cos(latR)) > 1e-10 {
		zenith := math.Asin(sinAlt)
		cosAz := (math.Sin(declR) - math.Sin(zenith)*math.Sin(latR)) / (math.Cos(zenith) * math.Cos(latR))
		az := math.Acos(clamp(cosAz, -1, 1)) / degToRad
		if hourAngle > 0 {
			azimuth = 360 - az
		} else {
			azimuth = az
		}
	} else if decl > 0 {
		azimuth = 180
	}

	return Position{
		Altitude:       altitude,
		Azimuth:        normalizeDegrees(azimuth),
		Declination:    decl,
		EquationOfTime: eqt,
	}
}

// Altitude computes only the sun altitude at a UTC instant.
func Altitude(at time.Time, lat, lon float64) float64 {
	return PositionAt(at, lat, lon).Altitude
}

// DeclinationAt returns the solar declination in degrees at a UTC instant.
func DeclinationAt(at time.Time) float64 {
	return solarDeclination(julianCentury(JulianDay(at)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
