// Package ingest turns an uploaded sensor log (CSV with a header row) into a
// normalized types.Dataset.
//
// Column rules:
//   - A column named "Time" is the time axis. Detection also accepts "time"
//     and "timestamp" in any letter case; an exact "Time" always wins.
//   - With a time axis, the first other column becomes the canonical "value"
//     column. Without one, the first column becomes "value".
//   - Every remaining column is ignored.
//
// Timestamps are parsed as ISO-8601 first (github.com/relvacode/iso8601) and
// then against a short list of common spreadsheet layouts. A single bad
// timestamp or value fails the whole table with a *types.ParseError; no
// partial dataset is ever returned.
//
// When a time axis exists the readings are sorted by time (stable, so rows
// with equal timestamps keep input order). A header with no data rows is a
// valid, empty Dataset; callers guard against types.ErrEmptyDataset.
package ingest
