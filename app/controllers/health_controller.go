package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/responses"
	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthController serves liveness and readiness
type HealthController struct {
	startTime time.Time
	checks    map[string]HealthCheck
}

// NewHealthController creates a HealthController. checks are run by Ready.
func NewHealthController(checks map[string]HealthCheck) *HealthController {
	return &HealthController{startTime: time.Now(), checks: checks}
}

// Live reports that the process is up
func (hc *HealthController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, hc.response("healthy", nil))
}

// Ready runs every dependency check; any failure answers 503
func (hc *HealthController) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status, code := "healthy", http.StatusOK
	services := make(map[string]string, len(hc.checks))
	for name, check := range hc.checks {
		if err := check(ctx); err != nil {
			services[name] = "unhealthy: " + err.Error()
			status, code = "unhealthy", http.StatusServiceUnavailable
			continue
		}
		services[name] = "healthy"
	}

	c.JSON(code, hc.response(status, services))
}

func (hc *HealthController) response(status string, services map[string]string) responses.HealthCheckResponse {
	return responses.HealthCheckResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(hc.startTime).Round(time.Second).String(),
		Version:   Version,
		Services:  services,
	}
}
