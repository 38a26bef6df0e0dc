package types

import "time"

// Operational thresholds, in percent of gas concentration.
const (
	DefaultWarning  = 60.0
	DefaultCritical = 80.0
	DefaultAlert    = 75.0
)

// Informational value domain of the MQ-6 sensor. Not enforced.
const (
	ValueMin = 0.0
	ValueMax = 100.0
)

// ValueColumn is the canonical name of the gas level column after ingestion.
const ValueColumn = "value"

// SensorReading is one gas concentration measurement.
type SensorReading struct {
	// Index is the 0-based position of the data row in the uploaded table.
	Index int `json:"index"`

	// Time is only meaningful when HasTime is true.
	Time    time.Time `json:"time,omitempty"`
	HasTime bool      `json:"-"`

	// Value is the concentration in percent. Out-of-range values are kept.
	Value float64 `json:"value"`
}

// Dataset is an ordered series of readings from a single sensor log.
// Readings are sorted by Time when HasTime is set, otherwise they keep the
// input order.
type Dataset struct {
	HasTime bool `json:"has_time"`

	// TimeColumn is the header of the detected time axis ("" without one).
	TimeColumn string `json:"time_column,omitempty"`

	// SourceColumn is the original header of the column renamed to "value".
	SourceColumn string `json:"source_column"`

	Readings []SensorReading `json:"readings"`
}

// Len returns the number of readings.
func (d Dataset) Len() int { return len(d.Readings) }

// Empty reports whether the dataset holds no readings.
func (d Dataset) Empty() bool { return len(d.Readings) == 0 }

// Values returns the reading values in dataset order.
func (d Dataset) Values() []float64 {
	out := make([]float64, len(d.Readings))
	for i, r := range d.Readings {
		out[i] = r.Value
	}
	return out
}

// Last returns the chronologically last reading.
func (d Dataset) Last() (SensorReading, bool) {
	if len(d.Readings) == 0 {
		return SensorReading{}, false
	}
	return d.Readings[len(d.Readings)-1], true
}

// Subset returns a Dataset sharing d's column metadata with the given readings.
func (d Dataset) Subset(readings []SensorReading) Dataset {
	return Dataset{
		HasTime:      d.HasTime,
		TimeColumn:   d.TimeColumn,
		SourceColumn: d.SourceColumn,
		Readings:     readings,
	}
}

// Thresholds holds the classification boundaries. Warning and Critical are
// operational constants; Alert is adjusted per session by the operator.
type Thresholds struct {
	Warning  float64 `json:"warning" yaml:"warning"`
	Critical float64 `json:"critical" yaml:"critical"`
	Alert    float64 `json:"alert" yaml:"alert"`
}

// DefaultThresholds returns 60 / 80 / 75.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Warning:  DefaultWarning,
		Critical: DefaultCritical,
		Alert:    DefaultAlert,
	}
}

// WithAlert returns a copy of t with the alert threshold replaced.
func (t Thresholds) WithAlert(alert float64) Thresholds {
	t.Alert = alert
	return t
}

// Classification is the safety state of a single reading.
type Classification string

const (
	Normal   Classification = "normal"
	Warning  Classification = "warning"
	Critical Classification = "critical"
)

// Label returns the operator-facing label used in reports and alerts.
func (c Classification) Label() string {
	switch c {
	case Critical:
		return "ALERTA"
	case Warning:
		return "ADVERTENCIA"
	default:
		return "NORMAL"
	}
}

// StatsSummary describes a Dataset. It is recomputed on every request.
type StatsSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`

	// HighCount counts readings above the critical threshold, WarnCount
	// above the warning threshold (so HighCount <= WarnCount), AlertCount
	// above the operator's alert threshold.
	HighCount  int `json:"high_count"`
	WarnCount  int `json:"warn_count"`
	AlertCount int `json:"alert_count"`

	HighPercent          float64 `json:"high_percent"`
	WarnPercent          float64 `json:"warn_percent"`
	AlertPercent         float64 `json:"alert_percent"`
	SafeOperationPercent float64 `json:"safe_operation_percent"`
}

// FilteredView is a subset of a Dataset plus the bounds that produced it.
// A nil bound was not applied.
type FilteredView struct {
	Dataset Dataset  `json:"dataset"`
	Lower   *float64 `json:"lower,omitempty"`
	Upper   *float64 `json:"upper,omitempty"`
}
