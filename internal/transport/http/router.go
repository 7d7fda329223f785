package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"freightpulse/internal/config"
	apierrors "freightpulse/internal/errors"
	custommw "freightpulse/internal/middleware"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Service      AnalyticsServiceInterface
	Ledger       Pinger
	MetricsHTTP  http.Handler
	UploadDir    string
	Version      string
	RateLimit    config.RateLimitConfig
	Logger       *slog.Logger
	ErrorHandler *apierrors.ErrorHandler
}

// NewRouter assembles the full route tree with the standard middleware
// chain applied.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.StructuredLogger(cfg.Logger))
	r.Use(custommw.Recoverer(cfg.Logger))
	r.Use(custommw.Compress(5))
	if cfg.RateLimit.Enabled {
		r.Use(custommw.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.Logger).Handler)
	}

	r.NotFound(cfg.ErrorHandler.NotFound)
	r.MethodNotAllowed(cfg.ErrorHandler.MethodNotAllowed)

	historyHandler := NewHistoryHandler(cfg.Service, cfg.Logger, cfg.ErrorHandler)
	manifestHandler := NewManifestHandler(cfg.Service, cfg.UploadDir, cfg.Logger, cfg.ErrorHandler)
	healthHandler := NewHealthHandler(cfg.Ledger, cfg.Version, cfg.Logger)

	r.Route("/api", func(api chi.Router) {
		api.Mount("/history", historyHandler.Routes())
		api.Mount("/manifests", manifestHandler.Routes())
		api.Mount("/healthz", healthHandler.Routes())
	})

	if cfg.MetricsHTTP != nil {
		r.Handle("/metrics", cfg.MetricsHTTP)
	}

	return r
}
