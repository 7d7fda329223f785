// Package services contains the orchestration layer between transport and
// the processing/storage packages. AnalyticsService owns the lifecycle of
// one manifest processing run: statistics are always computed, but only a
// batch that passes the freshness gate advances the historical ledger and
// produces canonical artifacts; duplicate and stale batches are routed to
// the transient preview area.
package services
