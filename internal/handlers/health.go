package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bandlink/internal/cache"
)

// Pinger checks a backing store's reachability. Implemented by models.Database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports readiness of the resolver, database and cache.
type HealthHandler struct {
	resolver TrackResolver
	db       Pinger
	cache    cache.Cache
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(resolver TrackResolver, db Pinger, c cache.Cache) *HealthHandler {
	return &HealthHandler{resolver: resolver, db: db, cache: c}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	checks := make(map[string]string)

	for name, err := range h.resolver.Health(c.Request.Context()) {
		if err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}

	if err := h.db.Ping(c.Request.Context()); err != nil {
		checks["mongodb"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["mongodb"] = "ok"
	}

	if err := h.cache.Health(c.Request.Context()); err != nil {
		checks["cache"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["cache"] = "ok"
	}

	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
}
