package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/polarischronos/polarischronos/internal/api/response"
	"github.com/polarischronos/polarischronos/internal/location"
)

// AdminHandler serves operator-only mutation endpoints.
type AdminHandler struct {
	cache  *location.Cache
	logger zerolog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(cache *location.Cache, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{cache: cache, logger: logger}
}

// PurgeCache handles POST /v1/admin/cache/purge.
func (h *AdminHandler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Purge(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("cache purge failed")
		response.InternalError(w, r, "cache purge failed")
		return
	}

	h.logger.Info().Msg("location cache purged")
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "purged"})
}
