package dataprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightpulse/pkg/contracts/domain"
)

func tripsFor(code, name string, n int) []domain.TripRecord {
	records := make([]domain.TripRecord, n)
	for i := range records {
		records[i] = domain.TripRecord{CarrierCode: code, CarrierName: name}
	}
	return records
}

func TestComputeGroupedStats(t *testing.T) {
	engine := NewAnalyticsEngine(nil)

	t.Run("mixed cohorts", func(t *testing.T) {
		var records []domain.TripRecord
		records = append(records, tripsFor("001", "Alpha Freight", 1)...)
		records = append(records, tripsFor("002", "Beta Cargo", 2)...)
		records = append(records, tripsFor("100", "Gamma Lines", 3)...)
		records = append(records, tripsFor("200", "Delta Haul", 4)...)

		metrics := engine.ComputeGroupedStats(context.Background(), testManifest(records...), []string{"001", "002"})

		// Represented counts per carrier: [1 2]; other: [3 4].
		assert.InDelta(t, 1.5, metrics.MedianRepresented, 1e-9)
		assert.InDelta(t, 3.5, metrics.MedianOther, 1e-9)
		assert.InDelta(t, 1.5, metrics.MeanRepresented, 1e-9)
		assert.InDelta(t, 3.5, metrics.MeanOther, 1e-9)

		// 3 represented trips out of 10 total.
		assert.InDelta(t, 30.0, metrics.ParticipationPct, 1e-9)
		assert.Equal(t, 3, metrics.TripsRepresented)
		assert.Equal(t, 7, metrics.TripsOther)
	})

	t.Run("counts group by carrier name not code", func(t *testing.T) {
		var records []domain.TripRecord
		records = append(records, tripsFor("001", "Alpha North", 2)...)
		records = append(records, tripsFor("001", "Alpha South", 4)...)

		metrics := engine.ComputeGroupedStats(context.Background(), testManifest(records...), []string{"001"})

		// One code, two names: counts [2 4].
		assert.InDelta(t, 3.0, metrics.MedianRepresented, 1e-9)
		assert.InDelta(t, 3.0, metrics.MeanRepresented, 1e-9)
	})

	t.Run("odd count series uses middle element", func(t *testing.T) {
		var records []domain.TripRecord
		records = append(records, tripsFor("1", "A", 1)...)
		records = append(records, tripsFor("2", "B", 5)...)
		records = append(records, tripsFor("3", "C", 2)...)

		metrics := engine.ComputeGroupedStats(context.Background(), testManifest(records...), []string{"1", "2", "3"})

		assert.InDelta(t, 2.0, metrics.MedianRepresented, 1e-9)
	})

	t.Run("empty represented cohort falls back to zero", func(t *testing.T) {
		metrics := engine.ComputeGroupedStats(context.Background(),
			testManifest(tripsFor("100", "Gamma Lines", 3)...), []string{"001"})

		assert.Zero(t, metrics.MedianRepresented)
		assert.Zero(t, metrics.MeanRepresented)
		assert.Zero(t, metrics.ParticipationPct)
		assert.InDelta(t, 3.0, metrics.MedianOther, 1e-9)
	})

	t.Run("empty manifest is not an error", func(t *testing.T) {
		metrics := engine.ComputeGroupedStats(context.Background(), testManifest(), []string{"001"})

		assert.Zero(t, metrics.MedianRepresented)
		assert.Zero(t, metrics.MedianOther)
		assert.Zero(t, metrics.ParticipationPct)
	})

	t.Run("participation bounded at 100", func(t *testing.T) {
		metrics := engine.ComputeGroupedStats(context.Background(),
			testManifest(tripsFor("001", "Alpha Freight", 4)...), []string{"001"})

		assert.InDelta(t, 100.0, metrics.ParticipationPct, 1e-9)
	})
}

func TestCarriersForPeriod(t *testing.T) {
	engine := NewAnalyticsEngine(nil)

	date := func(s string) *time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return &d
	}

	manifest := testManifest(
		domain.TripRecord{CarrierCode: "0-01", CarrierName: "zeta haul", TripDate: date("2025-06-02")},
		domain.TripRecord{CarrierCode: "001", CarrierName: "Zeta Haul SA", TripDate: date("2025-06-10")},
		domain.TripRecord{CarrierCode: "001", CarrierName: "Zeta Haul SA", TripDate: date("2025-06-11")},
		domain.TripRecord{CarrierCode: "002", CarrierName: "Alpha Freight", TripDate: date("2025-06-15")},
		domain.TripRecord{CarrierCode: "003", CarrierName: "Stale Carrier", TripDate: date("2025-05-01")},
		domain.TripRecord{CarrierCode: "004", CarrierName: "Undated", TripDate: nil},
		domain.TripRecord{CarrierCode: "900", CarrierName: "Not Represented", TripDate: date("2025-06-20")},
	)
	codes := []string{"001", "002", "003", "004"}

	entries := engine.CarriersForPeriod(context.Background(), manifest, codes, "2025-06")

	require.Len(t, entries, 2)

	// Sorted case-insensitively by name; modal name wins for code 001.
	assert.Equal(t, domain.CarrierEntry{Code: "002", Name: "Alpha Freight"}, entries[0])
	assert.Equal(t, domain.CarrierEntry{Code: "001", Name: "Zeta Haul SA"}, entries[1])
}

func TestCarriersForPeriodNameTieBreaksOnFirstSeen(t *testing.T) {
	engine := NewAnalyticsEngine(nil)
	d := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)

	manifest := testManifest(
		domain.TripRecord{CarrierCode: "007", CarrierName: "First Name", TripDate: &d},
		domain.TripRecord{CarrierCode: "007", CarrierName: "Second Name", TripDate: &d},
	)

	entries := engine.CarriersForPeriod(context.Background(), manifest, []string{"007"}, "2025-06")

	require.Len(t, entries, 1)
	assert.Equal(t, "First Name", entries[0].Name)
}
