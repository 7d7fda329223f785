// Package dataprocessing provides the manifest side of the FreightPulse
// pipeline: loading trip manifests, partitioning them into represented and
// other cohorts, computing comparative statistics, and resolving the
// canonical calendar period of a batch.
//
// # Architecture
//
// The package is organized into four components:
//
//  1. Parser: reads xlsx/csv manifest files into canonical TripRecords
//  2. Classifier: partitions records by normalized carrier-code membership
//  3. AnalyticsEngine: per-cohort median/mean trip counts and participation
//  4. PeriodResolver: derives the YYYY-MM period token for a batch
//
// # Data Flow
//
//	Manifest file → Parser → TripRecords → Classifier → Cohorts → AnalyticsEngine → CohortMetrics
//	                                     → PeriodResolver → period token
//
// Classification and statistics never mutate the input manifest: every
// derived collection is a copy, so a caller's view of the source data
// survives any amount of downstream filtering.
//
// # Error Handling
//
// Legitimately empty inputs are not errors: an empty manifest yields zero
// participation and empty cohorts yield 0.0 medians and means. The two
// typed failures are ErrMissingColumns (the loader could not locate the
// required columns) and ErrNoValidDates (no period can be derived, which
// makes a freshness decision impossible).
package dataprocessing
