package api

import (
	"github.com/cazuela/gasmonitor/pkg/compute"
	"github.com/cazuela/gasmonitor/pkg/filter"
	"github.com/cazuela/gasmonitor/pkg/types"
	"github.com/cazuela/gasmonitor/server/internal/alerts"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// State is the worst classification across live sessions, or "unknown"
	// when there are none.
	State         string `json:"state"`
	SessionCount  int    `json:"session_count"`
	NormalCount   int    `json:"normal_count"`
	WarningCount  int    `json:"warning_count"`
	CriticalCount int    `json:"critical_count"`
	AlertCount    int    `json:"alert_count"` // firing alerts
}

// DatasetResponse is one session in GET /api/v1/datasets or
// GET /api/v1/datasets/{id}.
type DatasetResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Readings     int              `json:"readings"`
	HasTime      bool             `json:"has_time"`
	SourceColumn string           `json:"source_column"`
	Alert        float64          `json:"alert"`
	Overview     compute.Overview `json:"overview"`
	Label        string           `json:"label"` // operator-facing classification label
	Diagnostics  []DiagnosticHint `json:"diagnostics"`
	CreatedAt    string           `json:"created_at"` // RFC3339
	LastUsed     string           `json:"last_used"`  // RFC3339
}

// UploadResponse is the payload for POST /api/v1/datasets.
type UploadResponse struct {
	Dataset DatasetResponse `json:"dataset"`
	Fired   []*alerts.Alert `json:"fired"`
}

// ReadingResponse is one reading in GET /api/v1/datasets/{id}/readings.
type ReadingResponse struct {
	Index          int                  `json:"index"`
	Time           *string              `json:"time,omitempty"` // RFC3339Nano
	Value          float64              `json:"value"`
	Classification types.Classification `json:"classification"`
}

// ReadingsResponse is the payload for GET /api/v1/datasets/{id}/readings.
type ReadingsResponse struct {
	ID           string            `json:"id"`
	HasTime      bool              `json:"has_time"`
	TimeColumn   string            `json:"time_column,omitempty"`
	SourceColumn string            `json:"source_column"`
	Readings     []ReadingResponse `json:"readings"`
}

// StatsResponse is the payload for GET /api/v1/datasets/{id}/stats.
type StatsResponse struct {
	ID         string             `json:"id"`
	Thresholds types.Thresholds   `json:"thresholds"`
	Stats      types.StatsSummary `json:"stats"`
}

// FilterResponse is the payload for GET /api/v1/datasets/{id}/filter.
type FilterResponse struct {
	ID string `json:"id"`
	filter.Result

	// Between is set when both min and max were given and min <= max.
	Between *types.FilteredView `json:"between,omitempty"`
}

// alertRequest is the body of PUT /api/v1/datasets/{id}/alert.
type alertRequest struct {
	Alert *float64 `json:"alert"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}
