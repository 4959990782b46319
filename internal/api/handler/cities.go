package handler

import (
	"net/http"

	"github.com/polarischronos/polarischronos/internal/api/response"
	"github.com/polarischronos/polarischronos/internal/location"
)

// CitiesHandler serves the embedded dataset listing.
type CitiesHandler struct {
	dataset *location.Dataset
}

// NewCitiesHandler creates a CitiesHandler.
func NewCitiesHandler(dataset *location.Dataset) *CitiesHandler {
	return &CitiesHandler{dataset: dataset}
}

// List handles GET /v1/cities.
func (h *CitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.dataset.List())
}
