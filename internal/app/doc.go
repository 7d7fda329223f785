// Package app composes the application: configuration loading,
// logging and telemetry initialization, the history ledger, the
// analytics pipeline, and the HTTP server with graceful shutdown.
//
// The web entrypoint and the batch processor both build their pipeline
// through BuildAnalyticsService so a manifest produces the same
// outcome regardless of which surface submitted it.
package app
