package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/polarischronos/polarischronos/internal/api/response"
	"github.com/polarischronos/polarischronos/internal/location"
	"github.com/polarischronos/polarischronos/internal/schedule"
	"github.com/polarischronos/polarischronos/internal/solver"
)

// ScheduleHandler serves day and month schedule computation.
type ScheduleHandler struct {
	resolver *location.Resolver
	cache    *solver.Cache
	logger   zerolog.Logger
}

// NewScheduleHandler creates a ScheduleHandler.
func NewScheduleHandler(resolver *location.Resolver, cache *solver.Cache, logger zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{resolver: resolver, cache: cache, logger: logger}
}

// Day handles GET /v1/schedule. The location comes from ?query= or from
// ?lat=&lon=; the date defaults to today in the resolved timezone.
func (h *ScheduleHandler) Day(w http.ResponseWriter, r *http.Request) {
	query, err := locationQuery(r)
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	loc, err := h.resolver.Resolve(r.Context(), query, location.Options{
		CountryCode: r.URL.Query().Get("country"),
	})
	if err != nil {
		writeLocationError(w, r, query, err)
		return
	}

	strategy, err := schedule.ParseStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	date, err := requestDate(r, loc.TZ)
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	key := solver.CacheKey(loc.Lat, loc.Lon, date, loc.TZ, strategy)
	if cached, ok := h.cache.Get(key); ok {
		response.JSON(w, r, http.StatusOK, cached)
		return
	}

	ds, err := solver.ComputeDay(*loc, date, strategy)
	if err != nil {
		writeLocationError(w, r, query, err)
		return
	}
	h.cache.Put(key, ds)

	response.JSON(w, r, http.StatusOK, ds)
}

// Month handles GET /v1/schedule/month?year=&month=. Pure fan-out over the
// month's days.
func (h *ScheduleHandler) Month(w http.ResponseWriter, r *http.Request) {
	query, err := locationQuery(r)
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	loc, err := h.resolver.Resolve(r.Context(), query, location.Options{
		CountryCode: r.URL.Query().Get("country"),
	})
	if err != nil {
		writeLocationError(w, r, query, err)
		return
	}

	strategy, err := schedule.ParseStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	year, month, err := requestMonth(r, loc.TZ)
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	schedules, err := solver.ComputeMonth(*loc, year, month, strategy)
	if err != nil {
		writeLocationError(w, r, query, err)
		return
	}

	response.JSON(w, r, http.StatusOK, schedules)
}

// locationQuery extracts the location selector: ?query= wins, raw ?lat=&lon=
// are folded into the manual-coordinate form the resolver understands.
func locationQuery(r *http.Request) (string, error) {
	if query := r.URL.Query().Get("query"); query != "" {
		return query, nil
	}

	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" && lonStr == "" {
		return "", nil
	}
	if latStr == "" || lonStr == "" {
		return "", fmt.Errorf("both lat and lon are required")
	}
	return latStr + "," + lonStr, nil
}

func requestDate(r *http.Request, tz string) (solver.Date, error) {
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		return solver.ParseDate(dateStr)
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return solver.Date{}, fmt.Errorf("unknown timezone %q", tz)
	}
	return solver.DateOf(time.Now().In(loc)), nil
}

func requestMonth(r *http.Request, tz string) (int, time.Month, error) {
	yearStr := r.URL.Query().Get("year")
	monthStr := r.URL.Query().Get("month")

	if yearStr == "" && monthStr == "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return 0, 0, fmt.Errorf("unknown timezone %q", tz)
		}
		now := time.Now().In(loc)
		return now.Year(), now.Month(), nil
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", yearStr)
	}
	monthNum, err := strconv.Atoi(monthStr)
	if err != nil || monthNum < 1 || monthNum > 12 {
		return 0, 0, fmt.Errorf("invalid month %q", monthStr)
	}
	return year, time.Month(monthNum), nil
}
