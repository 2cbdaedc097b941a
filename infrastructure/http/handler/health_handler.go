package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/chtmcooks/auth-service/infrastructure/http/response"
	"github.com/chtmcooks/auth-service/infrastructure/service/logger"
)

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]Pinger
	logger  logger.Logger
	timeout time.Duration
}

func NewHealthHandler(log logger.Logger, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		logger:  log,
		timeout: 2 * time.Second,
	}
}

// Health answers 503 when any dependency is down.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.logger.Warn(ctx, "Health check failed", map[string]interface{}{
				"dependency": name,
				"error":      err.Error(),
			})
			deps[name] = "down"
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	response.WriteJSON(w, code, map[string]interface{}{
		"status":       status,
		"dependencies": deps,
	})
}
