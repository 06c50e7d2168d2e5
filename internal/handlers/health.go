package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/brokerdesk/api/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout bounds each dependency check
	HealthCheckTimeout = 2 * time.Second
)

// Pinger is a dependency that can report its availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is a named optional check run by Ready.
type Dependency struct {
	Name   string
	Pinger Pinger
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db        Pinger
	deps      []Dependency
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance. The database is
// required for readiness; deps are reported but do not fail it.
func NewHealthHandler(db Pinger, env string, deps ...Dependency) *HealthHandler {
	return &HealthHandler{
		db:        db,
		deps:      deps,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Status       string            `json:"status"`
	Database     string            `json:"database"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
}

// Health handles GET /health endpoint.
// This is a basic liveness check that always returns 200 OK.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready endpoint.
// Returns 200 OK when the database answers, 503 Service Unavailable
// otherwise. Cache and blob store states are reported alongside.
func (h *HealthHandler) Ready(c *gin.Context) {
	log := middleware.GetLogger(c)
	resp := ReadyResponse{Status: "ready", Database: "connected"}

	if err := h.ping(c.Request.Context(), h.db); err != nil {
		if log != nil {
			log.Error("Database health check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
			})
		}
		resp.Status = "not_ready"
		resp.Database = "disconnected"
	}

	if len(h.deps) > 0 {
		resp.Dependencies = make(map[string]string, len(h.deps))
	}
	for _, dep := range h.deps {
		if err := h.ping(c.Request.Context(), dep.Pinger); err != nil {
			if log != nil {
				log.Warn("Dependency health check failed", map[string]interface{}{
					"dependency": dep.Name,
					"error":      err.Error(),
				})
			}
			resp.Dependencies[dep.Name] = "unavailable"
			continue
		}
		resp.Dependencies[dep.Name] = "available"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (h *HealthHandler) ping(ctx context.Context, p Pinger) error {
	if p == nil {
		return fmt.Errorf("not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()
	return p.Ping(ctx)
}

// Info handles GET /api/v1/info endpoint.
// Returns API metadata including version, environment, and uptime.
func (h *HealthHandler) Info(c *gin.Context) {
	uptime := time.Since(h.startTime)

	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(uptime),
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
