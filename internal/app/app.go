package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"freightpulse/internal/config"
	"freightpulse/internal/dataprocessing"
	apierrors "freightpulse/internal/errors"
	"freightpulse/internal/exporter"
	"freightpulse/internal/history"
	"freightpulse/internal/infrastructure"
	"freightpulse/internal/services"
	transport "freightpulse/internal/transport/http"
)

const (
	Version = "1.2.0"
	AppName = "FreightPulse"
)

// Application is the composed service container: configuration, the
// ledger, the analytics service, and the HTTP server.
type Application struct {
	Config        *config.Config
	Server        *http.Server
	Ledger        *history.Store
	Service       *services.AnalyticsService
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
}

// NewApplication wires the full dependency graph from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("represented_codes", len(cfg.Analytics.RepresentedCodes)))

	otelCfg := infrastructure.DefaultOTelConfig()
	otelProviders, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := infrastructure.CreatePipelineMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	ledger, err := history.New(cfg.Paths.LedgerFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open history ledger: %w", err)
	}

	service := BuildAnalyticsService(cfg, ledger, metrics, logger)

	errorHandler := apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug")
	router := transport.NewRouter(transport.RouterConfig{
		Service:      service,
		Ledger:       ledger,
		MetricsHTTP:  otelProviders.PrometheusHTTP,
		UploadDir:    filepath.Join(cfg.Paths.DataDir, "uploads"),
		Version:      Version,
		RateLimit:    cfg.Server.RateLimit,
		Logger:       logger,
		ErrorHandler: errorHandler,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Application{
		Config:        cfg,
		Server:        server,
		Ledger:        ledger,
		Service:       service,
		Logger:        logger,
		OTelProviders: otelProviders,
	}, nil
}

// BuildAnalyticsService constructs the processing pipeline from
// configuration. Shared by the web server and the batch processor so
// both run identical semantics.
func BuildAnalyticsService(cfg *config.Config, ledger history.Ledger, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *services.AnalyticsService {
	parserCfg := dataprocessing.DefaultParserConfig()
	parserCfg.DefaultPrice = cfg.Analytics.DefaultPrice

	return services.NewAnalyticsService(services.Config{
		Parser:           dataprocessing.NewParser(parserCfg, logger),
		Engine:           dataprocessing.NewAnalyticsEngine(logger),
		Resolver:         dataprocessing.NewPeriodResolver(dataprocessing.PeriodStrategy(cfg.Analytics.PeriodStrategy), logger),
		Ledger:           ledger,
		Artifacts:        exporter.NewArtifactWriter(cfg.Paths, logger),
		Metrics:          metrics,
		RepresentedCodes: cfg.Analytics.RepresentedCodes,
	}, logger)
}

// Run starts the HTTP server and blocks until a shutdown signal
// arrives or the server fails.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-sigCh:
		a.Logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	return a.Shutdown()
}

// Shutdown stops the server and releases resources within the
// configured timeout.
func (a *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error

	if err := a.Server.Shutdown(ctx); err != nil {
		a.Logger.Error("http server shutdown failed", slog.String("error", err.Error()))
		firstErr = err
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := a.Ledger.Close(); err != nil {
		a.Logger.Error("ledger close failed", slog.String("error", err.Error()))
		if firstErr == nil {
			firstErr = err
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil && firstErr == nil {
		firstErr = err
	}

	a.Logger.Info("application stopped")
	return firstErr
}
