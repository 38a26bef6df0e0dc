package api

import (
	"testing"

	"github.com/cazuela/gasmonitor/pkg/compute"
	"github.com/cazuela/gasmonitor/pkg/types"
	"github.com/cazuela/gasmonitor/server/internal/store"
)

func statusOf(t *testing.T, values ...float64) (store.Status, types.Dataset) {
	t.Helper()
	ds := types.Dataset{SourceColumn: "sensor1"}
	for i, v := range values {
		ds.Readings = append(ds.Readings, types.SensorReading{Index: i, Value: v})
	}
	th := types.DefaultThresholds()
	ov, err := compute.OverviewOf(ds, th)
	if err != nil {
		t.Fatalf("OverviewOf: %v", err)
	}
	stats, err := compute.Summarize(ds, th)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	return store.Status{Alert: th.Alert, Overview: ov, Stats: stats}, ds
}

func keys(hints []DiagnosticHint) []string {
	out := make([]string, len(hints))
	for i, h := range hints {
		out[i] = h.Key
	}
	return out
}

func hasKey(hints []DiagnosticHint, key string) bool {
	for _, h := range hints {
		if h.Key == key {
			return true
		}
	}
	return false
}

func TestDiagnostics_LatestLevel(t *testing.T) {
	cases := []struct {
		name    string
		current float64
		wantKey string
	}{
		{"critical", 85, "level_critical"},
		{"supervisor", 72, "level_supervisor"},
		{"warning", 65, "level_warning"},
		{"boundary 70 is warning", 70, "level_warning"},
		{"boundary 80 is supervisor", 80, "level_supervisor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, ds := statusOf(t, 10, tc.current)
			hints := computeDiagnostics(s, ds, types.DefaultThresholds())
			if hints[0].Key != tc.wantKey {
				t.Errorf("first hint: got %v, want %s", keys(hints), tc.wantKey)
			}
		})
	}
}

func TestDiagnostics_AllNormal(t *testing.T) {
	s, ds := statusOf(t, 10, 20, 30)
	hints := computeDiagnostics(s, ds, types.DefaultThresholds())
	if len(hints) != 1 || hints[0].Key != "ok" {
		t.Errorf("hints: %v", keys(hints))
	}
}

func TestDiagnostics_History(t *testing.T) {
	// The latest reading is safe but the log had critical and alert breaches.
	s, ds := statusOf(t, 90, 78, 20)
	hints := computeDiagnostics(s, ds, types.DefaultThresholds())
	if !hasKey(hints, "history_critical") || !hasKey(hints, "alert_readings") {
		t.Errorf("hints: %v", keys(hints))
	}
	if hasKey(hints, "ok") {
		t.Error("ok hint alongside breaches")
	}
}

func TestDiagnostics_SensorSanity(t *testing.T) {
	s, ds := statusOf(t, -5, 10)
	if hints := computeDiagnostics(s, ds, types.DefaultThresholds()); !hasKey(hints, "out_of_range") {
		t.Errorf("hints: %v", keys(hints))
	}

	s, ds = statusOf(t, 42, 42, 42)
	if hints := computeDiagnostics(s, ds, types.DefaultThresholds()); !hasKey(hints, "flat_signal") {
		t.Errorf("hints: %v", keys(hints))
	}

	// A single reading is not a flat signal.
	s, ds = statusOf(t, 42)
	if hints := computeDiagnostics(s, ds, types.DefaultThresholds()); hasKey(hints, "flat_signal") {
		t.Errorf("hints: %v", keys(hints))
	}
}
