package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cazuela/gasmonitor/pkg/filter"
	"github.com/cazuela/gasmonitor/pkg/ingest"
	"github.com/cazuela/gasmonitor/pkg/types"
)

const timedCSV = "Time,sensor_mq6,humidity\n" +
	"2024-03-01T10:00:00Z,50,40\n" +
	"2024-03-01T10:05:00Z,65,41\n" +
	"2024-03-01T10:10:00.25Z,85.125,39\n" +
	"2024-03-01T10:15:00Z,59.9,39\n"

func mustParse(t *testing.T, csv string) types.Dataset {
	t.Helper()
	ds, err := ingest.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	return ds
}

func TestExport_TimedLayout(t *testing.T) {
	out, err := Export(mustParse(t, timedCSV))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Time,value", lines[0])
	assert.Equal(t, "2024-03-01T10:00:00Z,50", lines[1])
	assert.Equal(t, "2024-03-01T10:10:00.25Z,85.125", lines[3])
}

func TestExport_UntimedWithIndex(t *testing.T) {
	ds := mustParse(t, "sensor1\n3\n1.5\n")
	out, err := Export(ds, WithIndex())
	require.NoError(t, err)
	assert.Equal(t, "index,value\n0,3\n1,1.5\n", string(out))

	plain, err := Export(ds)
	require.NoError(t, err)
	assert.Equal(t, "value\n3\n1.5\n", string(plain))
}

func TestExport_EmptyDatasetWritesHeader(t *testing.T) {
	out, err := Export(types.Dataset{HasTime: true})
	require.NoError(t, err)
	assert.Equal(t, "Time,value\n", string(out))
}

func TestExport_RoundTripAboveFilter(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"timed", timedCSV},
		{"untimed", "sensor1\n12\n70.5\n3\n99.25\n61\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ds := mustParse(t, tc.csv)
			for _, b := range []float64{0, 55, 60, 61, 90} {
				view, err := filter.Above(ds, b)
				require.NoError(t, err)

				out, err := Export(view.Dataset)
				require.NoError(t, err)
				back := mustParse(t, string(out))

				var want []types.SensorReading
				for _, r := range ds.Readings {
					if r.Value > b {
						want = append(want, r)
					}
				}
				require.Len(t, back.Readings, len(want), "b=%v", b)
				for i := range want {
					assert.Equal(t, want[i].Value, back.Readings[i].Value)
					assert.Equal(t, want[i].HasTime, back.Readings[i].HasTime)
					assert.True(t, want[i].Time.Equal(back.Readings[i].Time))
				}
			}
		})
	}
}

func TestExport_IndexedReportReadsBack(t *testing.T) {
	for _, csv := range []string{timedCSV, "sensor1\n12\n70.5\n3\n"} {
		ds := mustParse(t, csv)
		out, err := Export(ds, WithIndex())
		require.NoError(t, err)

		back := mustParse(t, string(out))
		assert.Equal(t, ds.Values(), back.Values())
		assert.Equal(t, ds.HasTime, back.HasTime)
	}
}

func TestExport_NonUTCTimesRoundTrip(t *testing.T) {
	loc := time.FixedZone("COT", -5*3600)
	ds := types.Dataset{HasTime: true, Readings: []types.SensorReading{
		{Index: 0, Time: time.Date(2024, 3, 1, 7, 0, 0, 0, loc), HasTime: true, Value: 70},
	}}
	out, err := Export(ds)
	require.NoError(t, err)
	assert.Contains(t, string(out), "2024-03-01T07:00:00-05:00,70")

	back := mustParse(t, string(out))
	assert.True(t, back.Readings[0].Time.Equal(ds.Readings[0].Time))
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_PropagatesWriterError(t *testing.T) {
	err := Write(failWriter{}, mustParse(t, timedCSV))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestHeader(t *testing.T) {
	assert.Equal(t, []string{"index", "Time", "value"}, Header(types.Dataset{HasTime: true}, WithIndex()))
	assert.Equal(t, []string{"value"}, Header(types.Dataset{}))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, types.Dataset{}))
	assert.Equal(t, "value\n", buf.String())
}
