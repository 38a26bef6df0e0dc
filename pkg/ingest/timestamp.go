package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/relvacode/iso8601"
)

// fallbackLayouts are tried in order after ISO-8601. Slash dates are read
// month first. Fractional seconds are accepted after any seconds field.
var fallbackLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

// parseTime converts a Time cell. Values without a zone, or with a zero
// offset, are returned in UTC.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if t, err := iso8601.ParseString(s); err == nil {
		if _, offset := t.Zone(); offset == 0 {
			t = t.UTC()
		}
		return t, nil
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
