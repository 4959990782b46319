package handler

import (
	"net/http"
	"time"

	"github.com/polarischronos/polarischronos/internal/api/models"
	"github.com/polarischronos/polarischronos/internal/api/response"
	"github.com/polarischronos/polarischronos/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	providers *resilience.Registry
}

// NewOpsHandler creates an OpsHandler. The registry may be nil when no
// external providers are configured (offline deployments).
func NewOpsHandler(version, buildTime string, providers *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		providers: providers,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now().UTC(),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The core is pure computation,
// so readiness only degrades when no external provider circuit is closed.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	if h.providers != nil {
		health := h.providers.Health()
		healthy := 0
		for _, p := range health {
			if p.Healthy() {
				healthy++
			}
		}
		if len(health) > 0 && healthy == 0 {
			status = models.HealthStatusDegraded
		}
	}
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: status,
		Time:   time.Now().UTC(),
	})
}

// SystemStatus handles GET /v1/ops/status - external provider health.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   time.Now().UTC(),
	}

	if h.providers != nil {
		for _, p := range h.providers.Health() {
			ps := models.ProviderStatus{
				Provider:      p.Name,
				Status:        models.HealthStatusOK,
				LastSuccessAt: p.LastSuccessAt,
				LastFailureAt: p.LastFailureAt,
				LastError:     p.LastError,
			}
			if !p.Healthy() {
				ps.Status = models.HealthStatusDegraded
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}
