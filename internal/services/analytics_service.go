package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"freightpulse/internal/dataprocessing"
	apperrors "freightpulse/internal/errors"
	"freightpulse/internal/exporter"
	"freightpulse/internal/freshness"
	"freightpulse/internal/history"
	"freightpulse/internal/infrastructure"
	"freightpulse/pkg/contracts/domain"
)

// AnalyticsService orchestrates one manifest processing run end to end:
// parse, classify, compute statistics, resolve the period, pass the
// freshness gate, commit to the ledger when the gate allows it, and
// materialize artifacts. Runs are sequential per service instance; the
// ledger is single-writer by design.
type AnalyticsService struct {
	parser    *dataprocessing.Parser
	engine    *dataprocessing.AnalyticsEngine
	resolver  *dataprocessing.PeriodResolver
	gate      *freshness.Gate
	ledger    history.Ledger
	artifacts *exporter.ArtifactWriter
	metrics   *infrastructure.PipelineMetrics
	codes     []string
	logger    *slog.Logger
}

// Config holds the dependencies and parameters for the analytics service.
type Config struct {
	Parser           *dataprocessing.Parser
	Engine           *dataprocessing.AnalyticsEngine
	Resolver         *dataprocessing.PeriodResolver
	Ledger           history.Ledger
	Artifacts        *exporter.ArtifactWriter
	Metrics          *infrastructure.PipelineMetrics // optional
	RepresentedCodes []string
}

// NewAnalyticsService creates the service.
func NewAnalyticsService(cfg Config, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		parser:    cfg.Parser,
		engine:    cfg.Engine,
		resolver:  cfg.Resolver,
		gate:      freshness.NewGate(cfg.Ledger, logger),
		ledger:    cfg.Ledger,
		artifacts: cfg.Artifacts,
		metrics:   cfg.Metrics,
		codes:     cfg.RepresentedCodes,
		logger:    logger.With(slog.String("component", "analytics_service")),
	}
}

// ProcessFile loads a manifest file and processes it.
func (s *AnalyticsService) ProcessFile(ctx context.Context, path string) (domain.ProcessOutcome, error) {
	manifest, err := s.parser.ParseFile(ctx, path)
	if err != nil {
		return domain.ProcessOutcome{}, err
	}
	return s.ProcessManifest(ctx, manifest)
}

// ProcessManifest runs the full pipeline on an already-loaded manifest.
// Metrics are always computed and returned, whatever the freshness
// decision; only a COMMIT decision persists anything.
func (s *AnalyticsService) ProcessManifest(ctx context.Context, manifest *domain.Manifest) (domain.ProcessOutcome, error) {
	started := time.Now()

	if len(s.codes) == 0 {
		return domain.ProcessOutcome{}, apperrors.NewValidationError("no represented carrier codes configured", nil)
	}

	outcome := domain.ProcessOutcome{
		RunID:       uuid.New().String(),
		SourceFile:  manifest.SourceFile,
		ProcessedAt: started.UTC(),
	}

	logger := s.logger.With(slog.String("run_id", outcome.RunID), slog.String("source_file", manifest.SourceFile))
	logger.InfoContext(ctx, "processing manifest",
		slog.Int("record_count", manifest.Len()),
		slog.Int("represented_codes", len(s.codes)))

	outcome.Metrics = s.engine.ComputeGroupedStats(ctx, manifest, s.codes)

	period, err := s.resolver.Resolve(ctx, manifest)
	if err != nil {
		return domain.ProcessOutcome{}, err
	}
	outcome.Period = period

	decision, err := s.gate.Decide(ctx, period)
	if err != nil {
		return domain.ProcessOutcome{}, apperrors.NewStorageError("freshness decision failed", err)
	}
	outcome.Decision = decision

	if decision == domain.DecisionCommit {
		inserted, err := s.ledger.Insert(ctx, domain.HistoricalRecord{
			Period:            period,
			MedianRepresented: outcome.Metrics.MedianRepresented,
			MedianOther:       outcome.Metrics.MedianOther,
			MeanRepresented:   outcome.Metrics.MeanRepresented,
			MeanOther:         outcome.Metrics.MeanOther,
			ParticipationPct:  outcome.Metrics.ParticipationPct,
		})
		if err != nil {
			return domain.ProcessOutcome{}, apperrors.NewStorageError("history insert failed", err)
		}
		// The insert is atomic at the storage layer; losing it means the
		// period landed between the gate's read and our write.
		if !inserted {
			outcome.Decision = domain.DecisionDuplicate
		}
		outcome.HistoricalUpdated = inserted
	}

	if s.artifacts != nil {
		if _, err := s.artifacts.WriteOutcome(ctx, outcome); err != nil {
			return domain.ProcessOutcome{}, err
		}
		if outcome.HistoricalUpdated {
			records, err := s.ledger.AllRecords(ctx)
			if err != nil {
				return domain.ProcessOutcome{}, apperrors.NewStorageError("history read failed", err)
			}
			if _, err := s.artifacts.WriteHistoryCSV(ctx, records); err != nil {
				return domain.ProcessOutcome{}, err
			}
		}
	}

	duration := time.Since(started)
	s.metrics.RecordOutcome(ctx, outcome, duration)

	logger.InfoContext(ctx, "manifest processed",
		slog.String("period", outcome.Period),
		slog.String("decision", string(outcome.Decision)),
		slog.Bool("historical_updated", outcome.HistoricalUpdated),
		slog.Duration("duration", duration))

	return outcome, nil
}

// History returns the full historical series in ascending period order.
func (s *AnalyticsService) History(ctx context.Context) ([]domain.HistoricalRecord, error) {
	records, err := s.ledger.AllRecords(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("history read failed", err)
	}
	return records, nil
}

// Latest returns the most recent historical record, or found=false for an
// empty ledger.
func (s *AnalyticsService) Latest(ctx context.Context) (domain.HistoricalRecord, bool, error) {
	period, err := s.ledger.MostRecentPeriod(ctx)
	if err != nil {
		return domain.HistoricalRecord{}, false, apperrors.NewStorageError("history read failed", err)
	}
	if period == "" {
		return domain.HistoricalRecord{}, false, nil
	}

	records, err := s.ledger.AllRecords(ctx)
	if err != nil {
		return domain.HistoricalRecord{}, false, apperrors.NewStorageError("history read failed", err)
	}
	for _, r := range records {
		if r.Period == period {
			return r, true, nil
		}
	}
	return domain.HistoricalRecord{}, false, nil
}

// CarriersForPeriod lists the represented carriers active in the given
// period of a manifest, for downstream reporting.
func (s *AnalyticsService) CarriersForPeriod(ctx context.Context, manifest *domain.Manifest, period string) []domain.CarrierEntry {
	return s.engine.CarriersForPeriod(ctx, manifest, s.codes, period)
}
