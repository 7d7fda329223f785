package dataprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightpulse/pkg/contracts/domain"
)

func datedRecord(day string) domain.TripRecord {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return domain.TripRecord{CarrierCode: "1", CarrierName: "A", TripDate: &d}
}

func TestPeriodStrategyValid(t *testing.T) {
	assert.True(t, StrategyFirstValid.Valid())
	assert.True(t, StrategyMostFrequent.Valid())
	assert.False(t, PeriodStrategy("newest").Valid())
}

func TestNewPeriodResolverFallsBackToMostFrequent(t *testing.T) {
	resolver := NewPeriodResolver(PeriodStrategy("bogus"), nil)
	assert.Equal(t, StrategyMostFrequent, resolver.Strategy())
}

func TestResolveMostFrequent(t *testing.T) {
	tests := []struct {
		name     string
		records  []domain.TripRecord
		expected string
	}{
		{
			name: "single period",
			records: []domain.TripRecord{
				datedRecord("2025-06-01"),
				datedRecord("2025-06-20"),
			},
			expected: "2025-06",
		},
		{
			name: "modal period wins over stray rows",
			records: []domain.TripRecord{
				datedRecord("2025-05-31"),
				datedRecord("2025-06-01"),
				datedRecord("2025-06-02"),
				datedRecord("2025-06-03"),
			},
			expected: "2025-06",
		},
		{
			name: "tie breaks toward earliest seen",
			records: []domain.TripRecord{
				datedRecord("2025-07-01"),
				datedRecord("2025-06-01"),
				datedRecord("2025-07-02"),
				datedRecord("2025-06-02"),
			},
			expected: "2025-07",
		},
		{
			name: "dateless records skipped",
			records: []domain.TripRecord{
				{CarrierCode: "1", CarrierName: "A"},
				datedRecord("2025-08-15"),
			},
			expected: "2025-08",
		},
	}

	resolver := NewPeriodResolver(StrategyMostFrequent, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, err := resolver.Resolve(context.Background(), testManifest(tt.records...))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, period)
		})
	}
}

func TestResolveFirstValid(t *testing.T) {
	resolver := NewPeriodResolver(StrategyFirstValid, nil)

	period, err := resolver.Resolve(context.Background(), testManifest(
		domain.TripRecord{CarrierCode: "1", CarrierName: "A"},
		datedRecord("2025-04-09"),
		datedRecord("2025-05-01"),
	))

	require.NoError(t, err)
	assert.Equal(t, "2025-04", period)
}

func TestResolveNoValidDates(t *testing.T) {
	manifest := testManifest(
		domain.TripRecord{CarrierCode: "1", CarrierName: "A"},
		domain.TripRecord{CarrierCode: "2", CarrierName: "B"},
	)

	for _, strategy := range []PeriodStrategy{StrategyFirstValid, StrategyMostFrequent} {
		t.Run(string(strategy), func(t *testing.T) {
			_, err := NewPeriodResolver(strategy, nil).Resolve(context.Background(), manifest)
			assert.ErrorIs(t, err, ErrNoValidDates)
		})
	}
}
