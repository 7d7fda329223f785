package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"freightpulse/pkg/contracts/domain"
)

// AnalyticsEngine computes comparative cohort statistics for a manifest.
// The statistics answer "how many trips does a typical carrier in this
// cohort make": median and mean are taken over trips-per-carrier-name
// counts, not over raw trip rows.
type AnalyticsEngine struct {
	classifier *Classifier
	logger     *slog.Logger
}

// NewAnalyticsEngine creates an analytics engine.
func NewAnalyticsEngine(logger *slog.Logger) *AnalyticsEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsEngine{
		classifier: NewClassifier(logger),
		logger:     logger,
	}
}

// ComputeGroupedStats classifies the manifest and computes per-cohort
// median and mean trips-per-carrier plus the represented participation
// percentage. An empty manifest yields participation 0 and an empty cohort
// yields 0.0 for both median and mean; neither case is an error.
func (e *AnalyticsEngine) ComputeGroupedStats(ctx context.Context, manifest *domain.Manifest, representedCodes []string) domain.CohortMetrics {
	cohorts := e.classifier.Classify(ctx, manifest, representedCodes)

	countsRep := countTripsByCarrierName(cohorts.Represented)
	countsOther := countTripsByCarrierName(cohorts.Other)

	metrics := domain.CohortMetrics{
		MedianRepresented: medianOfCounts(countsRep),
		MedianOther:       medianOfCounts(countsOther),
		MeanRepresented:   meanOfCounts(countsRep),
		MeanOther:         meanOfCounts(countsOther),
		TripsRepresented:  len(cohorts.Represented),
		TripsOther:        len(cohorts.Other),
	}

	if total := manifest.Len(); total > 0 {
		metrics.ParticipationPct = 100 * float64(len(cohorts.Represented)) / float64(total)
	}

	e.logger.DebugContext(ctx, "computed grouped statistics",
		slog.Int("total_trips", manifest.Len()),
		slog.Int("represented_trips", metrics.TripsRepresented),
		slog.Float64("participation_pct", metrics.ParticipationPct))

	return metrics
}

// CarriersForPeriod returns the distinct represented carriers that had at
// least one trip in the given period, as (normalized code, name) pairs.
// When a code appears under several names the most frequent name wins,
// with first occurrence breaking ties. The result is sorted by name,
// case-insensitively.
func (e *AnalyticsEngine) CarriersForPeriod(ctx context.Context, manifest *domain.Manifest, representedCodes []string, period string) []domain.CarrierEntry {
	cohorts := e.classifier.Classify(ctx, manifest, representedCodes)

	type nameTally struct {
		counts map[string]int
		order  []string
	}
	byCode := make(map[string]*nameTally)
	var codeOrder []string

	for _, record := range cohorts.Represented {
		if record.TripDate == nil || record.TripDate.Format(periodLayout) != period {
			continue
		}
		code := NormalizeCode(record.CarrierCode)
		name := strings.TrimSpace(record.CarrierName)
		if name == "" {
			continue
		}
		tally, ok := byCode[code]
		if !ok {
			tally = &nameTally{counts: make(map[string]int)}
			byCode[code] = tally
			codeOrder = append(codeOrder, code)
		}
		if _, seen := tally.counts[name]; !seen {
			tally.order = append(tally.order, name)
		}
		tally.counts[name]++
	}

	entries := make([]domain.CarrierEntry, 0, len(byCode))
	for _, code := range codeOrder {
		tally := byCode[code]
		best := tally.order[0]
		for _, name := range tally.order {
			if tally.counts[name] > tally.counts[best] {
				best = name
			}
		}
		entries = append(entries, domain.CarrierEntry{Code: code, Name: best})
	}

	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	return entries
}

// countTripsByCarrierName groups trip records by carrier name and counts
// rows per group. Name, not code, is the grouping key: the same numeric
// code can front several display names and the distribution of interest is
// per displayed carrier.
func countTripsByCarrierName(records []domain.TripRecord) []int {
	byName := make(map[string]int)
	for _, record := range records {
		byName[record.CarrierName]++
	}
	counts := make([]int, 0, len(byName))
	for _, n := range byName {
		counts = append(counts, n)
	}
	return counts
}

// medianOfCounts returns the median of a count series, or 0.0 for an empty
// series. The empty fallback is deliberate: the natural median of an empty
// series is undefined and must never surface as NaN.
func medianOfCounts(counts []int) float64 {
	if len(counts) == 0 {
		return 0.0
	}
	sorted := make([]int, len(counts))
	copy(sorted, counts)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
}

// meanOfCounts returns the mean of a count series, or 0.0 for an empty one.
func meanOfCounts(counts []int) float64 {
	if len(counts) == 0 {
		return 0.0
	}
	sum := 0
	for _, n := range counts {
		sum += n
	}
	return float64(sum) / float64(len(counts))
}
