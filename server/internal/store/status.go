package store

import (
	"time"

	"github.com/cazuela/gasmonitor/pkg/compute"
	"github.com/cazuela/gasmonitor/pkg/types"
)

// Status is the computed view of a session: headline overview plus the
// statistics summary, evaluated with the session's alert threshold.
type Status struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Alert     float64            `json:"alert"`
	Overview  compute.Overview   `json:"overview"`
	Stats     types.StatsSummary `json:"stats"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Thresholds returns th with the session's alert threshold applied.
func (e *Entry) Thresholds(th types.Thresholds) types.Thresholds {
	return th.WithAlert(e.Alert)
}

// Status computes the session status under the operational thresholds th.
// Only th.Warning and th.Critical are used; the alert comes from the session.
func (e *Entry) Status(th types.Thresholds) (Status, error) {
	th = e.Thresholds(th)
	ov, err := compute.OverviewOf(e.Dataset, th)
	if err != nil {
		return Status{}, err
	}
	stats, err := compute.Summarize(e.Dataset, th)
	if err != nil {
		return Status{}, err
	}
	return Status{
		ID:        e.ID,
		Name:      e.Name,
		Alert:     e.Alert,
		Overview:  ov,
		Stats:     stats,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

// Statuses returns the status of every live session, oldest first.
// Sessions whose status cannot be computed are skipped.
func (s *Store) Statuses(th types.Thresholds) []Status {
	entries := s.List()
	out := make([]Status, 0, len(entries))
	for _, e := range entries {
		st, err := e.Status(th)
		if err != nil {
			continue
		}
		out = append(out, st)
	}
	return out
}
