// Package schedule maps a sampled sun-altitude curve to the six canonical
// prayer events, classifies the solar regime of the day, and fills the gaps
// the sun physically cannot provide at high latitudes.
package schedule

import (
	"fmt"
	"time"
)

// Kind identifies one of the six prayer events.
type Kind string

const (
	KindFajr    Kind = "fajr"
	KindSunrise Kind = "sunrise"
	KindDhuhr   Kind = "dhuhr"
	KindAsr     Kind = "asr"
	KindMaghrib Kind = "maghrib"
	KindIsha    Kind = "isha"
)

// Kinds lists all prayer kinds in day order.
var Kinds = []Kind{KindFajr, KindSunrise, KindDhuhr, KindAsr, KindMaghrib, KindIsha}

// Method describes how an event time was derived.
type Method string

const (
	// MethodStandard is a real threshold crossing or curve maximum.
	MethodStandard Method = "Standard"

	// MethodVirtual is derived from the wave geometry when the defining
	// threshold is physically unreachable.
	MethodVirtual Method = "Virtual"

	// MethodProjected borrows the event's duration-from-noon from an
	// adaptive reference latitude.
	MethodProjected Method = "Projected"

	// MethodNone marks an event that does not exist for this day state.
	MethodNone Method = "None"
)

// Confidence scores are a contract, not decoration: downstream consumers
// render and assert on these exact values.
const (
	ConfidenceStandard  = 1.0
	ConfidenceVirtual   = 0.7
	ConfidenceProjected = 0.5
	ConfidenceNone      = 0.0
)

// DayState is the solar regime of a civil day at a location.
type DayState string

const (
	// StateNormal: a real sunrise and sunset occur and twilight ends.
	StateNormal DayState = "Normal"

	// StateWhiteNight: the sun sets but never descends to -18°.
	StateWhiteNight DayState = "WhiteNight"

	// StatePolarDay: the sun never sets.
	StatePolarDay DayState = "PolarDay"

	// StatePolarNight: the sun never rises.
	StatePolarNight DayState = "PolarNight"
)

// Strategy selects how unresolved events are handled.
type Strategy string

const (
	// StrategyProjected45 fills gaps via virtual wave geometry and
	// reference-latitude projection. This is the default.
	StrategyProjected45 Strategy = "projected45"

	// StrategyStrict reports unresolved events as None.
	StrategyStrict Strategy = "strict"
)

// DefaultStrategy is used when a caller does not choose one.
const DefaultStrategy = StrategyProjected45

// ParseStrategy parses a strategy name. The empty string yields the default.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return DefaultStrategy, nil
	case StrategyProjected45, StrategyStrict:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown gap strategy %q", s)
	}
}

// Event is one computed prayer event. At is the UTC instant and is zero only
// when Method is MethodNone.
type Event struct {
	At         time.Time
	Method     Method
	Confidence float64
	Note       string
}

// Resolved reports whether the event carries a concrete time.
func (e Event) Resolved() bool { return e.Method != MethodNone }

// Events holds all six events of a day. Every field is always populated; an
// event the day cannot provide is present with MethodNone, never omitted.
type Events struct {
	Fajr    Event
	Sunrise Event
	Dhuhr   Event
	Asr     Event
	Maghrib Event
	Isha    Event
}

// ByKind returns the event for a kind.
func (e *Events) ByKind(k Kind) Event {
	switch k {
	case KindFajr:
		return e.Fajr
	case KindSunrise:
		return e.Sunrise
	case KindDhuhr:
		return e.Dhuhr
	case KindAsr:
		return e.Asr
	case KindMaghrib:
		return e.Maghrib
	default:
		return e.Isha
	}
}

func (e *Events) set(k Kind, ev Event) {
	switch k {
	case KindFajr:
		e.Fajr = ev
	case KindSunrise:
		e.Sunrise = ev
	case KindDhuhr:
		e.Dhuhr = ev
	case KindAsr:
		e.Asr = ev
	case KindMaghrib:
		e.Maghrib = ev
	case KindIsha:
		e.Isha = ev
	}
}

// Summary carries the day's altitude extremes and their UTC instants.
type Summary struct {
	MaxAltitude float64
	MinAltitude float64
	PeakUTC     time.Time
	NadirUTC    time.Time
}

// Result is the scheduler's output for one (date, location, strategy).
type Result struct {
	State  DayState
	Events Events
	Solar  Summary
}

func standardEvent(at time.Time) Event {
	return Event{At: at, Method: MethodStandard, Confidence: ConfidenceStandard}
}

func virtualEvent(at time.Time, note string) Event {
	return Event{At: at, Method: MethodVirtual, Confidence: ConfidenceVirtual, Note: note}
}

func projectedEvent(at time.Time, note string) Event {
	return Event{At: at, Method: MethodProjected, Confidence: ConfidenceProjected, Note: note}
}

func noneEvent(note string) Event {
	return Event{Method: MethodNone, Confidence: ConfidenceNone, Note: note}
}
