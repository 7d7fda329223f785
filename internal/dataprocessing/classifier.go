package dataprocessing

import (
	"context"
	"log/slog"

	"freightpulse/pkg/contracts/domain"
)

// Cohorts holds the two disjoint partitions of a manifest produced by
// Classify. Represented and Other together contain every input record
// exactly once, in original manifest order.
type Cohorts struct {
	Represented []domain.TripRecord
	Other       []domain.TripRecord
}

// Classifier partitions manifests into represented and other cohorts by
// normalized carrier-code membership.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger}
}

// Classify partitions the manifest's records by membership of their
// normalized carrier code in the represented set. The input is never
// mutated; both output slices are fresh copies so callers can filter or
// derive from them without cross-contaminating the source manifest.
func (c *Classifier) Classify(ctx context.Context, manifest *domain.Manifest, representedCodes []string) Cohorts {
	codeSet := NormalizeCodes(representedCodes)

	cohorts := Cohorts{
		Represented: make([]domain.TripRecord, 0),
		Other:       make([]domain.TripRecord, 0, len(manifest.Records)),
	}

	emptyCodes := 0
	for _, record := range manifest.Records {
		normalized := NormalizeCode(record.CarrierCode)
		if normalized == "" {
			emptyCodes++
		}
		if _, ok := codeSet[normalized]; ok {
			cohorts.Represented = append(cohorts.Represented, record)
		} else {
			cohorts.Other = append(cohorts.Other, record)
		}
	}

	if emptyCodes > 0 {
		c.logger.WarnContext(ctx, "manifest rows with empty normalized carrier code",
			slog.Int("row_count", emptyCodes),
			slog.String("source_file", manifest.SourceFile))
	}

	return cohorts
}
