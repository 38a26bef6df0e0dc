package metrics

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/cazuela/gasmonitor/pkg/types"
	"github.com/cazuela/gasmonitor/server/internal/alerts"
	"github.com/cazuela/gasmonitor/server/internal/store"
)

// Metric names.
const (
	namespace = "gasmonitor"

	metricSessions     = namespace + "_sessions"
	metricCurrentLevel = namespace + "_current_level_percent"
	metricMeanLevel    = namespace + "_mean_level_percent"
	metricMaxLevel     = namespace + "_max_level_percent"
	metricState        = namespace + "_session_state"
	metricHighPct      = namespace + "_high_readings_percent"
	metricSafePct      = namespace + "_safe_operation_percent"
	metricAlertCount   = namespace + "_alert_readings"
	metricAlertsFiring = namespace + "_alerts_firing"
	metricUploads      = namespace + "_uploads_total"
)

var states = []types.Classification{types.Normal, types.Warning, types.Critical}

// Counters tracks upload outcomes over the life of the process.
type Counters struct {
	accepted atomic.Int64
	rejected atomic.Int64
}

// Accepted records one stored upload.
func (c *Counters) Accepted() { c.accepted.Add(1) }

// Rejected records one upload that failed validation.
func (c *Counters) Rejected() { c.rejected.Add(1) }

// Snapshot is everything one scrape reports.
type Snapshot struct {
	Statuses []store.Status
	Alerts   []*alerts.Alert
	Accepted int64
	Rejected int64
}

// Families builds the metric families for snap, sorted by name.
func Families(snap Snapshot) []*dto.MetricFamily {
	current := family(metricCurrentLevel, "Most recent gas reading of the session.", dto.MetricType_GAUGE)
	mean := family(metricMeanLevel, "Mean gas level of the session.", dto.MetricType_GAUGE)
	peak := family(metricMaxLevel, "Maximum gas level of the session.", dto.MetricType_GAUGE)
	state := family(metricState, "Classification of the latest reading, 1 for the active state.", dto.MetricType_GAUGE)
	high := family(metricHighPct, "Percentage of readings above the critical threshold.", dto.MetricType_GAUGE)
	safe := family(metricSafePct, "Percentage of readings at or below the critical threshold.", dto.MetricType_GAUGE)
	alertCount := family(metricAlertCount, "Readings above the session alert threshold.", dto.MetricType_GAUGE)

	for _, s := range snap.Statuses {
		labels := []*dto.LabelPair{label("session", s.ID), label("name", s.Name)}
		current.Metric = append(current.Metric, gauge(s.Overview.Current.Value, labels...))
		mean.Metric = append(mean.Metric, gauge(s.Stats.Mean, labels...))
		peak.Metric = append(peak.Metric, gauge(s.Stats.Max, labels...))
		high.Metric = append(high.Metric, gauge(s.Stats.HighPercent, labels...))
		safe.Metric = append(safe.Metric, gauge(s.Stats.SafeOperationPercent, labels...))
		alertCount.Metric = append(alertCount.Metric, gauge(float64(s.Stats.AlertCount), labels...))
		for _, c := range states {
			var v float64
			if s.Overview.Classification == c {
				v = 1
			}
			stateLabels := append(append([]*dto.LabelPair{}, labels...), label("state", string(c)))
			state.Metric = append(state.Metric, gauge(v, stateLabels...))
		}
	}

	firing := make(map[string]int)
	for _, a := range snap.Alerts {
		if a.State == "firing" {
			firing[a.Severity]++
		}
	}
	firingFam := family(metricAlertsFiring, "Alerts currently firing, by severity.", dto.MetricType_GAUGE)
	for _, sev := range []string{"critical", "warning", "info"} {
		firingFam.Metric = append(firingFam.Metric, gauge(float64(firing[sev]), label("severity", sev)))
	}

	sessions := family(metricSessions, "Live dataset sessions.", dto.MetricType_GAUGE)
	sessions.Metric = append(sessions.Metric, gauge(float64(len(snap.Statuses))))

	uploads := family(metricUploads, "CSV uploads by result.", dto.MetricType_COUNTER)
	uploads.Metric = append(uploads.Metric,
		counter(float64(snap.Accepted), label("result", "accepted")),
		counter(float64(snap.Rejected), label("result", "rejected")),
	)

	out := []*dto.MetricFamily{sessions, uploads, firingFam}
	if len(snap.Statuses) > 0 {
		out = append(out, current, mean, peak, state, high, safe, alertCount)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// Write encodes the families for snap to w in the text exposition format.
func Write(w io.Writer, snap Snapshot) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range Families(snap) {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Handler serves /metrics from the live store and alert engine.
func Handler(st *store.Store, eng *alerts.Engine, counters *Counters, thresholds func() types.Thresholds) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := Snapshot{Statuses: st.Statuses(thresholds())}
		if eng != nil {
			snap.Alerts = eng.Active()
		}
		if counters != nil {
			snap.Accepted = counters.accepted.Load()
			snap.Rejected = counters.rejected.Load()
		}
		w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
		if err := Write(w, snap); err != nil {
			slog.Error("metrics: write failed", "err", err)
		}
	})
}

func family(name, help string, t dto.MetricType) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: t.Enum(),
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}

func gauge(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{Label: labels, Gauge: &dto.Gauge{Value: proto.Float64(v)}}
}

func counter(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{Label: labels, Counter: &dto.Counter{Value: proto.Float64(v)}}
}
