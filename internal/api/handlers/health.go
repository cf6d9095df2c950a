package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness plus the state of each registered dependency.
type HealthHandler struct {
	checks  map[string]func(context.Context) error
	timeout time.Duration
}

func NewHealthHandler(checks map[string]func(context.Context) error) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// HealthCheck handles the health check endpoint
//
//	@Summary		Health check
//	@Description	Check if the service and its dependencies are up
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}	"API is healthy"
//	@Failure		503	{object}	map[string]interface{}	"A dependency is down"
//	@Router			/health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	deps := gin.H{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := gin.H{"status": "ok", "dependencies": deps}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
