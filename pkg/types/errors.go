package types

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset is returned by any computation that needs at least one reading.
var ErrEmptyDataset = errors.New("dataset has no readings")

// ErrNoVariation is returned by range filters when every reading has the
// same value, so a bound would keep either all rows or none.
var ErrNoVariation = errors.New("all readings have the same value")

// FormatHint is shown to users next to ingestion errors.
const FormatHint = "the CSV must have a header row, an optional Time column and a numeric gas level column"

// ParseError reports a malformed or unrecognizable input table.
// Row is the 1-based data row (0 when the error concerns the header).
type ParseError struct {
	Row    int
	Column string
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	var s string
	switch {
	case e.Row > 0 && e.Column != "":
		s = fmt.Sprintf("parse: row %d column %q: %s", e.Row, e.Column, e.Msg)
	case e.Row > 0:
		s = fmt.Sprintf("parse: row %d: %s", e.Row, e.Msg)
	default:
		s = "parse: " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
