// Package handler provides HTTP handlers for the prayer-time API.
package handler

import (
	"errors"
	"net/http"

	"github.com/polarischronos/polarischronos/internal/api/response"
	"github.com/polarischronos/polarischronos/internal/location"
)

// ambiguousOption is one choice offered to the caller when a query matches
// locations in several countries.
type ambiguousOption struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	TZ          string  `json:"tz"`
}

// ambiguousResponse is the HTTP 300 Multiple Choices payload. Ambiguity is
// data, not an error: the caller picks and retries with a country hint.
type ambiguousResponse struct {
	Query   string            `json:"query"`
	Options []ambiguousOption `json:"options"`
}

// writeLocationError maps resolution errors onto the HTTP boundary.
func writeLocationError(w http.ResponseWriter, r *http.Request, query string, err error) {
	if amb, ok := location.AsAmbiguous(err); ok {
		options := make([]ambiguousOption, 0, len(amb.Options))
		for _, c := range amb.Options {
			options = append(options, ambiguousOption{
				Name:        c.Name,
				Country:     c.Country,
				CountryCode: c.CountryCode,
				Lat:         c.Lat,
				Lon:         c.Lon,
				TZ:          c.TZ,
			})
		}
		response.JSON(w, r, http.StatusMultipleChoices, ambiguousResponse{
			Query:   query,
			Options: options,
		})
		return
	}

	switch {
	case errors.Is(err, location.ErrInvalidInput):
		response.BadRequest(w, r, err.Error())
	case errors.Is(err, location.ErrNotFound):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, location.ErrNetwork),
		errors.Is(err, location.ErrServiceUnavailable),
		errors.Is(err, location.ErrInvalidResponse):
		response.BadGateway(w, r, err.Error())
	default:
		response.InternalError(w, r, err.Error())
	}
}
