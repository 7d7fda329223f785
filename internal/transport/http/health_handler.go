package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	ledger  Pinger
	logger  *slog.Logger
	version string
	started time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(ledger Pinger, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		ledger:  ledger,
		logger:  logger.With(slog.String("component", "health_handler")),
		version: version,
		started: time.Now(),
	}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetHealth)

	return r
}

// GetHealth reports service health. The ledger is probed so a broken
// database surfaces as degraded rather than a late 503 on first use.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	checks := map[string]string{"ledger": "ok"}

	if err := h.ledger.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "ledger health check failed", slog.String("error", err.Error()))
		status = "degraded"
		checks["ledger"] = err.Error()
		render.Status(r, http.StatusServiceUnavailable)
	}

	render.JSON(w, r, map[string]interface{}{
		"status":     status,
		"version":    h.version,
		"uptime_sec": int64(time.Since(h.started).Seconds()),
		"checks":     checks,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
