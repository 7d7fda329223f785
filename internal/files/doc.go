// Package files handles manifest file discovery and archival for
// batch processing. Discovery returns files in filename order, which
// the batch processor relies on to commit periods chronologically when
// manifests are named by month.
package files
