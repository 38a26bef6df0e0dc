package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cazuela/gasmonitor/pkg/types"
)

// TimeColumn is the header the sensor export uses for its time axis.
const TimeColumn = "Time"

// IndexColumn is the row index header written by indexed reports. It is
// skipped when choosing the gas level column.
const IndexColumn = "index"

// timeAliases are accepted case-insensitively when no exact TimeColumn exists.
var timeAliases = []string{"time", "timestamp"}

// Parse reads a CSV table from r and normalizes it into a Dataset.
func Parse(r io.Reader) (types.Dataset, error) {
	reader := csv.NewReader(r)
	// Extra columns are ignored, so ragged rows are allowed here and only the
	// cells we actually consume are checked in Table.
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return types.Dataset{}, &types.ParseError{Msg: "no columns found"}
		}
		return types.Dataset{}, &types.ParseError{Msg: "read header", Err: err}
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.Dataset{}, &types.ParseError{Row: len(rows) + 1, Msg: "malformed record", Err: err}
		}
		rows = append(rows, record)
	}

	return Table(header, rows)
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) (types.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Dataset{}, fmt.Errorf("ingest: open %q: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Table normalizes an already split table. header holds the column names and
// rows the data records in input order.
func Table(header []string, rows [][]string) (types.Dataset, error) {
	if len(header) == 0 {
		return types.Dataset{}, &types.ParseError{Msg: "no columns found"}
	}
	header = cleanHeader(header)

	timeIdx := detectTimeColumn(header)
	valueIdx := detectValueColumn(header, timeIdx)
	if valueIdx < 0 {
		return types.Dataset{}, &types.ParseError{
			Msg: fmt.Sprintf("no gas level column next to %q", header[timeIdx]),
		}
	}

	ds := types.Dataset{
		HasTime:      timeIdx >= 0,
		SourceColumn: header[valueIdx],
		Readings:     make([]types.SensorReading, 0, len(rows)),
	}
	if ds.HasTime {
		ds.TimeColumn = header[timeIdx]
	}

	for i, record := range rows {
		row := i + 1
		if valueIdx >= len(record) {
			return types.Dataset{}, &types.ParseError{Row: row, Column: ds.SourceColumn, Msg: "missing cell"}
		}
		cell := strings.TrimSpace(record[valueIdx])
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return types.Dataset{}, &types.ParseError{
				Row:    row,
				Column: ds.SourceColumn,
				Msg:    fmt.Sprintf("%q is not a number", cell),
			}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return types.Dataset{}, &types.ParseError{
				Row:    row,
				Column: ds.SourceColumn,
				Msg:    fmt.Sprintf("%q is not a finite number", cell),
			}
		}

		reading := types.SensorReading{Index: i, Value: v}
		if ds.HasTime {
			if timeIdx >= len(record) {
				return types.Dataset{}, &types.ParseError{Row: row, Column: ds.TimeColumn, Msg: "missing cell"}
			}
			ts, err := parseTime(strings.TrimSpace(record[timeIdx]))
			if err != nil {
				return types.Dataset{}, &types.ParseError{Row: row, Column: ds.TimeColumn, Msg: "invalid timestamp", Err: err}
			}
			reading.Time = ts
			reading.HasTime = true
		}
		ds.Readings = append(ds.Readings, reading)
	}

	if ds.HasTime {
		sort.SliceStable(ds.Readings, func(a, b int) bool {
			return ds.Readings[a].Time.Before(ds.Readings[b].Time)
		})
	}
	return ds, nil
}

// detectValueColumn returns the first column that is neither the time axis
// nor a report index, falling back to the first non-time column. It returns
// -1 when the time axis is the only column.
func detectValueColumn(header []string, timeIdx int) int {
	fallback := -1
	for i, h := range header {
		if i == timeIdx {
			continue
		}
		if fallback < 0 {
			fallback = i
		}
		if h != IndexColumn {
			return i
		}
	}
	return fallback
}

// detectTimeColumn returns the index of the time axis, or -1.
func detectTimeColumn(header []string) int {
	for i, h := range header {
		if h == TimeColumn {
			return i
		}
	}
	for i, h := range header {
		for _, alias := range timeAliases {
			if strings.EqualFold(h, alias) {
				return i
			}
		}
	}
	return -1
}

// cleanHeader trims whitespace and a UTF-8 byte order mark left by spreadsheet
// exports. The input slice is not modified.
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}
