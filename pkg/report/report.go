package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cazuela/gasmonitor/pkg/types"
)

// Download metadata for the exported report.
const (
	FileName    = "reporte_gas_restaurante.csv"
	ContentType = "text/csv"
)

// IndexColumn is the header of the optional row index column.
const IndexColumn = "index"

// TimeColumn is the header written for the time axis.
const TimeColumn = "Time"

type options struct {
	index bool
}

// Option configures Write and Export.
type Option func(*options)

// WithIndex adds the original row index as the first column.
func WithIndex() Option {
	return func(o *options) { o.index = true }
}

// Header returns the column names Write emits for ds.
func Header(ds types.Dataset, opts ...Option) []string {
	o := apply(opts)
	var h []string
	if o.index {
		h = append(h, IndexColumn)
	}
	if ds.HasTime {
		h = append(h, TimeColumn)
	}
	return append(h, types.ValueColumn)
}

// Write encodes ds as CSV to w.
func Write(w io.Writer, ds types.Dataset, opts ...Option) error {
	o := apply(opts)
	cw := csv.NewWriter(w)

	if err := cw.Write(Header(ds, opts...)); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}

	record := make([]string, 0, 3)
	for _, r := range ds.Readings {
		record = record[:0]
		if o.index {
			record = append(record, strconv.Itoa(r.Index))
		}
		if ds.HasTime {
			record = append(record, r.Time.Format(time.RFC3339Nano))
		}
		record = append(record, strconv.FormatFloat(r.Value, 'f', -1, 64))
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("report: write row %d: %w", r.Index, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: flush: %w", err)
	}
	return nil
}

// Export returns ds encoded as UTF-8 CSV bytes.
func Export(ds types.Dataset, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, ds, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func apply(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
