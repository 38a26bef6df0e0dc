package api

import (
	"fmt"

	"github.com/cazuela/gasmonitor/pkg/filter"
	"github.com/cazuela/gasmonitor/pkg/types"
	"github.com/cazuela/gasmonitor/server/internal/store"
)

// supervisorLevel is the protocol step between the warning and critical
// thresholds at which the shift supervisor must be notified.
const supervisorLevel = 70.0

// DiagnosticHint is one human-readable insight about a session's gas levels.
// The UI displays these as chips next to the status; Detail is shown on click.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier (used for dedup/ordering).
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level string `json:"level"`
	// Title is a short label shown on the chip.
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Value is an optional numeric value associated with this hint.
	Value *float64 `json:"value,omitempty"`
}

// computeDiagnostics derives hints from a session status and its dataset.
// Hints are ordered: critical first, then warnings, then info.
func computeDiagnostics(s store.Status, ds types.Dataset, th types.Thresholds) []DiagnosticHint {
	var hints []DiagnosticHint
	cur := s.Overview.Current.Value

	// ── Latest reading against the emergency protocol ───────────────────────
	switch {
	case cur > th.Critical:
		hints = append(hints, DiagnosticHint{
			Key:   "level_critical",
			Level: "critical",
			Title: fmt.Sprintf("Gas at %.1f%%", cur),
			Detail: fmt.Sprintf(
				"The latest reading is above the critical threshold of %.0f%%. "+
					"Close the supply valves, ventilate the kitchen and keep ignition sources off "+
					"until the level drops.", th.Critical),
			Value: ptr(cur),
		})
	case cur > supervisorLevel && supervisorLevel < th.Critical:
		hints = append(hints, DiagnosticHint{
			Key:   "level_supervisor",
			Level: "warning",
			Title: fmt.Sprintf("Gas at %.1f%%", cur),
			Detail: fmt.Sprintf(
				"The latest reading is above %.0f%%. Notify the supervisor now and check "+
					"burners and connections for leaks.", supervisorLevel),
			Value: ptr(cur),
		})
	case cur > th.Warning:
		hints = append(hints, DiagnosticHint{
			Key:   "level_warning",
			Level: "warning",
			Title: fmt.Sprintf("Gas at %.1f%%", cur),
			Detail: fmt.Sprintf(
				"The latest reading is above the warning threshold of %.0f%%. "+
					"Run a manual check of the gas system.", th.Warning),
			Value: ptr(cur),
		})
	}

	// ── History ────────────────────────────────────────────────────────────
	if s.Stats.HighCount > 0 {
		hints = append(hints, DiagnosticHint{
			Key:   "history_critical",
			Level: "warning",
			Title: fmt.Sprintf("%.1f%% time critical", s.Stats.HighPercent),
			Detail: fmt.Sprintf(
				"%d of %d readings were above %.0f%%. Safe operation was %.1f%% of the log.",
				s.Stats.HighCount, s.Stats.Count, th.Critical, s.Stats.SafeOperationPercent),
			Value: ptr(s.Stats.HighPercent),
		})
	}
	if s.Stats.AlertCount > 0 {
		hints = append(hints, DiagnosticHint{
			Key:   "alert_readings",
			Level: "info",
			Title: fmt.Sprintf("%d above alert", s.Stats.AlertCount),
			Detail: fmt.Sprintf("%d readings exceeded the session alert threshold of %.1f%%.",
				s.Stats.AlertCount, s.Alert),
			Value: ptr(float64(s.Stats.AlertCount)),
		})
	}

	// ── Sensor sanity ──────────────────────────────────────────────────────
	if s.Stats.Min < types.ValueMin || s.Stats.Max > types.ValueMax {
		hints = append(hints, DiagnosticHint{
			Key:   "out_of_range",
			Level: "info",
			Title: "Readings out of range",
			Detail: fmt.Sprintf(
				"Some readings fall outside %.0f to %.0f%% (min %.2f, max %.2f). "+
					"The sensor may need calibration.", types.ValueMin, types.ValueMax, s.Stats.Min, s.Stats.Max),
		})
	}
	if ds.Len() > 1 && !filter.HasVariation(ds) {
		hints = append(hints, DiagnosticHint{
			Key:   "flat_signal",
			Level: "info",
			Title: "No variation",
			Detail: fmt.Sprintf(
				"Every reading is %.2f%%. A constant signal can mean the sensor is stuck; "+
					"range filters are disabled for this dataset.", s.Stats.Min),
		})
	}

	if len(hints) == 0 {
		hints = append(hints, DiagnosticHint{
			Key:    "ok",
			Level:  "ok",
			Title:  "Operation normal",
			Detail: "The latest reading and the log history are within safe limits.",
		})
	}
	return hints
}

func ptr(v float64) *float64 { return &v }
