package http

import (
	"context"

	"freightpulse/pkg/contracts/domain"
)

// AnalyticsServiceInterface is the service surface the handlers depend
// on. Defined here so handler tests can substitute a fake without
// standing up a real ledger.
type AnalyticsServiceInterface interface {
	ProcessFile(ctx context.Context, path string) (domain.ProcessOutcome, error)
	History(ctx context.Context) ([]domain.HistoricalRecord, error)
	Latest(ctx context.Context) (domain.HistoricalRecord, bool, error)
}
