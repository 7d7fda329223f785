package domain

import (
	"time"
)

// TripRecord represents a single freight trip row from a carrier manifest.
// This is the primary data structure for manifest entries; records with a
// nil TripDate are kept for cohort statistics but excluded from period
// resolution.
type TripRecord struct {
	CarrierCode string     `json:"carrier_code" db:"carrier_code" validate:"required"`
	CarrierName string     `json:"carrier_name" db:"carrier_name" validate:"required"`
	TripDate    *time.Time `json:"trip_date,omitempty" db:"trip_date"`
	Price       float64    `json:"price" db:"price" validate:"min=0"`
}

// Manifest represents one loaded trip manifest file: an ordered collection
// of trip records plus source metadata. A Manifest has no identity beyond
// the processing run that loaded it.
type Manifest struct {
	Records    []TripRecord `json:"records" validate:"dive"`
	SourceFile string       `json:"source_file,omitempty"`
	LoadedAt   time.Time    `json:"loaded_at"`
}

// Len returns the number of trip records in the manifest.
func (m *Manifest) Len() int {
	return len(m.Records)
}

// CohortMetrics holds the comparative statistics computed for one manifest:
// the represented cohort versus the rest of the market. Median and mean are
// taken over trips-per-carrier-name counts, not raw trip rows. Immutable
// once computed; only selected fields flow into a HistoricalRecord.
type CohortMetrics struct {
	MedianRepresented float64 `json:"median_represented"`
	MedianOther       float64 `json:"median_other"`
	MeanRepresented   float64 `json:"mean_represented"`
	MeanOther         float64 `json:"mean_other"`
	ParticipationPct  float64 `json:"participation_pct" validate:"min=0,max=100"`
	TripsRepresented  int     `json:"trips_represented" validate:"min=0"`
	TripsOther        int     `json:"trips_other" validate:"min=0"`
}

// HistoricalRecord is one row of the period-keyed history: the statistics
// committed for a single calendar month. Period is the primary key, format
// YYYY-MM. Records are append-only; corrections happen out of band.
type HistoricalRecord struct {
	Period            string  `json:"period" db:"period" validate:"required,len=7"`
	MedianRepresented float64 `json:"median_represented" db:"median_represented"`
	MedianOther       float64 `json:"median_other" db:"median_other"`
	MeanRepresented   float64 `json:"mean_represented" db:"mean_represented"`
	MeanOther         float64 `json:"mean_other" db:"mean_other"`
	ParticipationPct  float64 `json:"participation_pct" db:"participation_pct"`
}

// CarrierEntry identifies one represented carrier active in a period,
// as a (normalized code, display name) pair.
type CarrierEntry struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Decision is the freshness gate's classification of a resolved period
// against the recorded history.
type Decision string

const (
	// DecisionCommit marks a batch whose period is strictly newer than
	// anything recorded: metrics are persisted and canonical artifacts
	// generated.
	DecisionCommit Decision = "commit"
	// DecisionDuplicate marks a batch whose exact period already exists in
	// the history: nothing is written.
	DecisionDuplicate Decision = "duplicate"
	// DecisionPreview marks a chronologically stale batch: its period was
	// never recorded but is not newer than the most recent one. Metrics are
	// computed for display only.
	DecisionPreview Decision = "preview"
)

// Persists reports whether the decision results in a ledger write.
func (d Decision) Persists() bool {
	return d == DecisionCommit
}

// ProcessOutcome is the full result of one manifest processing run,
// returned to callers so they can route artifacts by decision.
type ProcessOutcome struct {
	RunID             string        `json:"run_id"`
	SourceFile        string        `json:"source_file,omitempty"`
	Period            string        `json:"period"`
	Decision          Decision      `json:"decision"`
	Metrics           CohortMetrics `json:"metrics"`
	HistoricalUpdated bool          `json:"historical_updated"`
	ProcessedAt       time.Time     `json:"processed_at"`
}
