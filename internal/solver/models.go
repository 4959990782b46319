// Package solver is the end-to-end entry point of the engine: it composes
// the solar kernel, event scheduler, and gap strategy into a DaySchedule for
// a resolved location and civil date, and handles the UTC-to-local
// assembly of the result.
package solver

import (
	"fmt"
	"time"

	"github.com/polarischronos/polarischronos/internal/location"
	"github.com/polarischronos/polarischronos/internal/schedule"
)

// Date is a civil calendar date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf extracts the civil date of an instant in its own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before reports whether d is an earlier calendar date than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// DaySchedule is the engine's top-level product in its stable JSON form.
type DaySchedule struct {
	Date        string            `json:"date"`
	State       schedule.DayState `json:"state"`
	GapStrategy schedule.Strategy `json:"gap_strategy"`
	Location    LocationInfo      `json:"location"`
	Solar       SolarInfo         `json:"solar"`
	Events      EventSet          `json:"events"`
}

// LocationInfo is the schedule's view of the resolved location.
type LocationInfo struct {
	Name               string          `json:"name"`
	Lat                float64         `json:"lat"`
	Lon                float64         `json:"lon"`
	TZ                 string          `json:"tz"`
	Source             location.Source `json:"source"`
	ResolvedConfidence float64         `json:"resolved_confidence"`
	Country            string          `json:"country,omitempty"`
	CountryCode        string          `json:"country_code,omitempty"`
}

// SolarInfo carries the day's altitude extremes. Instants are full-precision
// UTC times of day.
type SolarInfo struct {
	MaxAltitude float64 `json:"max_altitude"`
	MinAltitude float64 `json:"min_altitude"`
	PeakUTC     string  `json:"peak_utc"`
	NadirUTC    string  `json:"nadir_utc"`
}

// EventSet always contains all six prayer events.
type EventSet struct {
	Fajr    PrayerEvent `json:"fajr"`
	Sunrise PrayerEvent `json:"sunrise"`
	Dhuhr   PrayerEvent `json:"dhuhr"`
	Asr     PrayerEvent `json:"asr"`
	Maghrib PrayerEvent `json:"maghrib"`
	Isha    PrayerEvent `json:"isha"`
}

// ByKind returns the serialized event for a kind.
func (e *EventSet) ByKind(k schedule.Kind) PrayerEvent {
	switch k {
	case schedule.KindFajr:
		return e.Fajr
	case schedule.KindSunrise:
		return e.Sunrise
	case schedule.KindDhuhr:
		return e.Dhuhr
	case schedule.KindAsr:
		return e.Asr
	case schedule.KindMaghrib:
		return e.Maghrib
	default:
		return e.Isha
	}
}

// PrayerEvent is one serialized prayer event. Time is the local time of day
// truncated to the minute, or null when the method is None. NextDay marks a
// time that falls on the civil day after the target date.
type PrayerEvent struct {
	Time       *string           `json:"time"`
	NextDay    bool              `json:"next_day"`
	Method     schedule.Method   `json:"method"`
	Confidence float64           `json:"confidence"`
	Note       string            `json:"note"`
}
