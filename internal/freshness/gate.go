// Package freshness decides what a newly resolved period means relative
// to the recorded history: a genuinely new batch to commit, a duplicate of
// an already-recorded period, or a chronologically stale batch shown as a
// preview only. The three-way classification keeps the ledger's period
// coverage monotonically non-decreasing, which month-over-month trend
// consumers depend on.
package freshness

import (
	"context"
	"fmt"
	"log/slog"

	"freightpulse/internal/history"
	"freightpulse/pkg/contracts/domain"
)

// Gate classifies resolved periods against a ledger.
type Gate struct {
	ledger history.Ledger
	logger *slog.Logger
}

// NewGate creates a freshness gate over the given ledger.
func NewGate(ledger history.Ledger, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		ledger: ledger,
		logger: logger.With(slog.String("component", "freshness_gate")),
	}
}

// Decide classifies the resolved period:
//
//   - DecisionDuplicate when the exact period is already recorded
//   - DecisionPreview when the period is unrecorded but not newer than the
//     most recent recorded period (a late-arriving batch for a past month)
//   - DecisionCommit otherwise: the batch advances the history
//
// Period ordering is plain string comparison, which is chronological for
// zero-padded YYYY-MM tokens.
func (g *Gate) Decide(ctx context.Context, period string) (domain.Decision, error) {
	exists, err := g.ledger.PeriodExists(ctx, period)
	if err != nil {
		return "", fmt.Errorf("freshness decision for %s: %w", period, err)
	}
	if exists {
		g.logger.InfoContext(ctx, "period already recorded",
			slog.String("period", period),
			slog.String("decision", string(domain.DecisionDuplicate)))
		return domain.DecisionDuplicate, nil
	}

	mostRecent, err := g.ledger.MostRecentPeriod(ctx)
	if err != nil {
		return "", fmt.Errorf("freshness decision for %s: %w", period, err)
	}
	if mostRecent != "" && period <= mostRecent {
		g.logger.InfoContext(ctx, "period is stale relative to recorded history",
			slog.String("period", period),
			slog.String("most_recent", mostRecent),
			slog.String("decision", string(domain.DecisionPreview)))
		return domain.DecisionPreview, nil
	}

	g.logger.InfoContext(ctx, "period is new",
		slog.String("period", period),
		slog.String("most_recent", mostRecent),
		slog.String("decision", string(domain.DecisionCommit)))
	return domain.DecisionCommit, nil
}
