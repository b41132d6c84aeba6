package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// HealthHandler handles liveness and readiness endpoints.
type HealthHandler struct {
	checks map[string]CheckFunc
}

// NewHealthHandler creates a health handler with named dependency probes.
func NewHealthHandler(checks map[string]CheckFunc) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  "healthy",
		"service": "form-intake-api",
	})
}

// Ready handles GET /health/ready: every dependency probe must pass.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	results := gin.H{}
	ready := true

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = "unhealthy: " + err.Error()
			ready = false
			continue
		}
		results[name] = "healthy"
	}

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"success": ready,
		"status":  status,
		"checks":  results,
	})
}
