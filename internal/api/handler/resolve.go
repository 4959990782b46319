package handler

import (
	"net/http"

	"github.com/polarischronos/polarischronos/internal/api/response"
	"github.com/polarischronos/polarischronos/internal/location"
)

// ResolveHandler serves location resolution.
type ResolveHandler struct {
	resolver *location.Resolver
}

// NewResolveHandler creates a ResolveHandler.
func NewResolveHandler(resolver *location.Resolver) *ResolveHandler {
	return &ResolveHandler{resolver: resolver}
}

// Resolve handles GET /v1/resolve?query=&country=. An empty query asks for
// IP auto-detection. An ambiguous query returns 300 Multiple Choices with
// the candidates.
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	opts := location.Options{CountryCode: r.URL.Query().Get("country")}

	loc, err := h.resolver.Resolve(r.Context(), query, opts)
	if err != nil {
		writeLocationError(w, r, query, err)
		return
	}

	response.JSON(w, r, http.StatusOK, loc)
}
