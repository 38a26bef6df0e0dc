// Package types defines the shared Go types used by the core analysis
// packages, the server and the CLI. These are the canonical in-memory
// representations of a gas sensor log, separate from the CSV and JSON wire
// formats.
//
// A Dataset is built once by package ingest and is treated as read-only
// afterwards; every derived value (Classification, StatsSummary,
// FilteredView) is recomputed from it on demand.
package types
