package solver

import (
	"fmt"
	"sync"
	"time"

	"github.com/polarischronos/polarischronos/internal/location"
	"github.com/polarischronos/polarischronos/internal/schedule"
)

// monthConcurrency bounds the worker pool for month fan-out. Day
// computations share no state, so they parallelize freely.
const monthConcurrency = 8

// ComputeDay produces the full schedule for one civil date at a resolved
// location. The computation is pure: identical inputs yield identical
// schedules.
func ComputeDay(loc location.ResolvedLocation, date Date, strategy schedule.Strategy) (*DaySchedule, error) {
	tz, err := validate(loc, date)
	if err != nil {
		return nil, err
	}

	result := schedule.Compute(date.Year, date.Month, date.Day, loc.Lat, loc.Lon, tz, strategy)

	events := EventSet{
		Fajr:    localEvent(result.Events.Fajr, tz, date),
		Sunrise: localEvent(result.Events.Sunrise, tz, date),
		Dhuhr:   localEvent(result.Events.Dhuhr, tz, date),
		Asr:     localEvent(result.Events.Asr, tz, date),
		Maghrib: localEvent(result.Events.Maghrib, tz, date),
		Isha:    localEvent(result.Events.Isha, tz, date),
	}

	return &DaySchedule{
		Date:        date.String(),
		State:       result.State,
		GapStrategy: strategy,
		Location: LocationInfo{
			Name:               loc.Name,
			Lat:                loc.Lat,
			Lon:                loc.Lon,
			TZ:                 loc.TZ,
			Source:             loc.Source,
			ResolvedConfidence: loc.Confidence,
			Country:            loc.Country,
			CountryCode:        loc.CountryCode,
		},
		Solar: SolarInfo{
			MaxAltitude: result.Solar.MaxAltitude,
			MinAltitude: result.Solar.MinAltitude,
			PeakUTC:     utcClock(result.Solar.PeakUTC),
			NadirUTC:    utcClock(result.Solar.NadirUTC),
		},
		Events: events,
	}, nil
}

// ComputeMonth computes every day of a month. Days are independent, so the
// fan-out runs on a bounded worker pool; the result is ordered by day.
func ComputeMonth(loc location.ResolvedLocation, year int, month time.Month, strategy schedule.Strategy) ([]*DaySchedule, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d out of range", location.ErrInvalidInput, month)
	}
	if _, err := validate(loc, Date{Year: year, Month: month, Day: 1}); err != nil {
		return nil, err
	}

	days := daysIn(year, month)
	schedules := make([]*DaySchedule, days)

	var wg sync.WaitGroup
	sem := make(chan struct{}, monthConcurrency)
	for day := 1; day <= days; day++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(day int) {
			defer wg.Done()
			defer func() { <-sem }()
			// Inputs were validated above, so per-day computation cannot fail.
			ds, err := ComputeDay(loc, Date{Year: year, Month: month, Day: day}, strategy)
			if err == nil {
				schedules[day-1] = ds
			}
		}(day)
	}
	wg.Wait()

	return schedules, nil
}

func validate(loc location.ResolvedLocation, date Date) (*time.Location, error) {
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lon < -180 || loc.Lon > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range (%.4f, %.4f)", location.ErrInvalidInput, loc.Lat, loc.Lon)
	}
	if date.Year < 1900 || date.Year > 2200 {
		return nil, fmt.Errorf("%w: year %d out of supported range", location.ErrInvalidInput, date.Year)
	}
	tz, err := time.LoadLocation(loc.TZ)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", location.ErrInvalidInput, loc.TZ)
	}
	return tz, nil
}

// localEvent converts a UTC scheduler event into the local serialized form.
// The displayed time is truncated, not rounded, to the minute; the raw
// instant drives the next-day flag.
func localEvent(ev schedule.Event, tz *time.Location, date Date) PrayerEvent {
	out := PrayerEvent{
		Method:     ev.Method,
		Confidence: ev.Confidence,
		Note:       ev.Note,
	}
	if !ev.Resolved() {
		return out
	}

	local := ev.At.In(tz)
	if date.Before(DateOf(local)) {
		out.NextDay = true
		if out.Note != "" {
			out.Note += " (next day)"
		} else {
			out.Note = "next day"
		}
	}

	clock := fmt.Sprintf("%02d:%02d:00", local.Hour(), local.Minute())
	out.Time = &clock
	return out
}

func utcClock(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%02d:%02d:%02d", u.Hour(), u.Minute(), u.Second())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
