// Package report serializes a types.Dataset (usually a filter.Above view)
// back to CSV for download.
//
// Column order is fixed: the time column first when the dataset has one
// (header "Time"), then "value". WithIndex prefixes the original 0-based row
// index as an "index" column. Times are written as RFC 3339 with nanosecond
// precision and values with the shortest representation that parses back
// to the same float64, so a report fed back into ingest.Parse reproduces the
// exported rows exactly.
package report
