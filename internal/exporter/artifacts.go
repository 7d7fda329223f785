package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"freightpulse/internal/config"
	apperrors "freightpulse/internal/errors"
	"freightpulse/pkg/contracts/domain"
)

// ArtifactWriter materializes processing outputs on disk. Output routing
// follows the freshness decision: COMMIT outcomes go to the canonical
// per-period reports directory, DUPLICATE and PREVIEW outcomes to the
// transient preview directory, which later runs are free to overwrite.
type ArtifactWriter struct {
	reportsDir string
	previewDir string
	logger     *slog.Logger
}

// NewArtifactWriter creates an artifact writer over the configured paths.
func NewArtifactWriter(paths config.PathsConfig, logger *slog.Logger) *ArtifactWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactWriter{
		reportsDir: paths.ReportsDir,
		previewDir: paths.PreviewDir,
		logger:     logger.With(slog.String("component", "artifact_writer")),
	}
}

// OutcomeDir returns the directory outcome artifacts belong in.
func (w *ArtifactWriter) OutcomeDir(outcome domain.ProcessOutcome) string {
	if outcome.Decision == domain.DecisionCommit {
		return filepath.Join(w.reportsDir, outcome.Period)
	}
	return w.previewDir
}

// WriteOutcome writes the run's metrics as a JSON artifact and returns its
// path.
func (w *ArtifactWriter) WriteOutcome(ctx context.Context, outcome domain.ProcessOutcome) (string, error) {
	dir := w.OutcomeDir(outcome)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create artifact directory", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("metrics_%s.json", outcome.Period))

	payload := map[string]interface{}{
		"outcome":      outcome,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"format":       "cohort_metrics_v1",
	}

	file, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewStorageError("failed to create metrics artifact", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return "", apperrors.NewStorageError("failed to encode metrics artifact", err)
	}

	w.logger.InfoContext(ctx, "wrote outcome artifact",
		slog.String("path", path),
		slog.String("decision", string(outcome.Decision)))

	return path, nil
}

// WriteHistoryCSV writes the full historical series to history.csv in the
// canonical reports directory, ascending period order, and returns its
// path. Consumers chart month-over-month trends straight from this file.
func (w *ArtifactWriter) WriteHistoryCSV(ctx context.Context, records []domain.HistoricalRecord) (string, error) {
	path := filepath.Join(w.reportsDir, "history.csv")

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Period,
			fmt.Sprintf("%.2f", r.MedianRepresented),
			fmt.Sprintf("%.2f", r.MedianOther),
			fmt.Sprintf("%.2f", r.MeanRepresented),
			fmt.Sprintf("%.2f", r.MeanOther),
			fmt.Sprintf("%.2f", r.ParticipationPct),
		})
	}

	options := WriteOptions{
		Headers:   []string{"Period", "MedianRepresented", "MedianOther", "MeanRepresented", "MeanOther", "ParticipationPct"},
		Records:   rows,
		BOMPrefix: true,
	}
	if err := writeCSV(path, options); err != nil {
		return "", apperrors.NewStorageError("failed to write history CSV", err)
	}

	w.logger.InfoContext(ctx, "wrote history series",
		slog.String("path", path),
		slog.Int("record_count", len(records)))

	return path, nil
}
