package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"freightpulse/pkg/contracts/domain"
)

// periodLayout is the canonical calendar-period format. Zero-padded months
// make lexicographic order coincide with chronological order, which the
// ledger and freshness gate rely on.
const periodLayout = "2006-01"

// ErrNoValidDates is returned when a manifest's date column contains no
// parseable dates at all. No period means no freshness decision is
// possible, so this is fatal to the processing run.
var ErrNoValidDates = errors.New("no valid trip dates in manifest")

// PeriodStrategy selects how the resolver derives a period when a manifest
// spans more than one calendar month.
type PeriodStrategy string

const (
	// StrategyFirstValid takes the period of the first record with a
	// parseable date, in original manifest order.
	StrategyFirstValid PeriodStrategy = "first_valid"
	// StrategyMostFrequent takes the modal period across every dated
	// record, breaking ties toward the period seen earliest in the
	// manifest. This is the default: a manifest with a handful of stray
	// rows from a neighboring month still resolves to the month it is
	// actually about.
	StrategyMostFrequent PeriodStrategy = "most_frequent"
)

// Valid reports whether the strategy is one of the known values.
func (s PeriodStrategy) Valid() bool {
	return s == StrategyFirstValid || s == StrategyMostFrequent
}

// PeriodResolver derives the canonical YYYY-MM period token for a manifest.
type PeriodResolver struct {
	strategy PeriodStrategy
	logger   *slog.Logger
}

// NewPeriodResolver creates a resolver using the given strategy. An
// unknown strategy falls back to StrategyMostFrequent.
func NewPeriodResolver(strategy PeriodStrategy, logger *slog.Logger) *PeriodResolver {
	if logger == nil {
		logger = slog.Default()
	}
	if !strategy.Valid() {
		strategy = StrategyMostFrequent
	}
	return &PeriodResolver{strategy: strategy, logger: logger}
}

// Strategy returns the resolver's configured strategy.
func (r *PeriodResolver) Strategy() PeriodStrategy {
	return r.strategy
}

// Resolve derives the manifest's period. Records without a date are
// skipped; if every record is dateless the resolver fails with
// ErrNoValidDates rather than inventing a sentinel period.
func (r *PeriodResolver) Resolve(ctx context.Context, manifest *domain.Manifest) (string, error) {
	switch r.strategy {
	case StrategyFirstValid:
		return r.resolveFirstValid(ctx, manifest)
	default:
		return r.resolveMostFrequent(ctx, manifest)
	}
}

func (r *PeriodResolver) resolveFirstValid(ctx context.Context, manifest *domain.Manifest) (string, error) {
	for _, record := range manifest.Records {
		if record.TripDate != nil {
			period := record.TripDate.Format(periodLayout)
			r.logger.DebugContext(ctx, "resolved period from first valid date",
				slog.String("period", period),
				slog.String("source_file", manifest.SourceFile))
			return period, nil
		}
	}
	return "", fmt.Errorf("resolve period for %q: %w", manifest.SourceFile, ErrNoValidDates)
}

func (r *PeriodResolver) resolveMostFrequent(ctx context.Context, manifest *domain.Manifest) (string, error) {
	counts := make(map[string]int)
	var order []string

	for _, record := range manifest.Records {
		if record.TripDate == nil {
			continue
		}
		period := record.TripDate.Format(periodLayout)
		if _, seen := counts[period]; !seen {
			order = append(order, period)
		}
		counts[period]++
	}

	if len(order) == 0 {
		return "", fmt.Errorf("resolve period for %q: %w", manifest.SourceFile, ErrNoValidDates)
	}

	best := order[0]
	for _, period := range order {
		if counts[period] > counts[best] {
			best = period
		}
	}

	if len(order) > 1 {
		r.logger.InfoContext(ctx, "manifest spans multiple periods",
			slog.Int("period_count", len(order)),
			slog.String("resolved_period", best),
			slog.Int("resolved_rows", counts[best]),
			slog.String("source_file", manifest.SourceFile))
	}

	return best, nil
}
