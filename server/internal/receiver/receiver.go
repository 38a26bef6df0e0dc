package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cazuela/gasmonitor/pkg/ingest"
	"github.com/cazuela/gasmonitor/pkg/types"
	"github.com/cazuela/gasmonitor/server/internal/alerts"
	"github.com/cazuela/gasmonitor/server/internal/store"
)

// Receiver accepts uploaded sensor logs and records them as sessions.
type Receiver struct {
	store      *store.Store
	alerts     *alerts.Engine
	thresholds func() types.Thresholds
}

// Result is returned for an accepted upload.
type Result struct {
	Status store.Status    `json:"status"`
	Fired  []*alerts.Alert `json:"fired,omitempty"`
}

// New creates a Receiver. thresholds is called on every upload so that
// reloaded configuration applies to new sessions.
func New(st *store.Store, eng *alerts.Engine, thresholds func() types.Thresholds) *Receiver {
	return &Receiver{store: st, alerts: eng, thresholds: thresholds}
}

// Accept ingests the CSV read from r, stores it as a session named name and
// evaluates alert rules against it.
//
// Errors:
//   - a *types.ParseError (wrapped) when the table is malformed
//   - types.ErrEmptyDataset (wrapped) when it has a header but no readings
//   - ctx.Err() when the request was cancelled before the session was stored
func (r *Receiver) Accept(ctx context.Context, name string, body io.Reader) (*Result, error) {
	ds, err := ingest.Parse(body)
	if err != nil {
		slog.Info("receiver: upload rejected", "name", name, "err", err)
		return nil, fmt.Errorf("receiver: %w", err)
	}
	if ds.Empty() {
		slog.Info("receiver: upload has no readings", "name", name)
		return nil, fmt.Errorf("receiver: %q: %w", name, types.ErrEmptyDataset)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	th := r.thresholds()
	entry := r.store.Put(strings.TrimSpace(name), ds, th.Alert)
	status, err := entry.Status(th)
	if err != nil {
		// Unreachable for a non-empty dataset; keep the store consistent anyway.
		r.store.Delete(entry.ID)
		return nil, fmt.Errorf("receiver: status: %w", err)
	}

	var fired []*alerts.Alert
	if r.alerts != nil {
		fired = r.alerts.Evaluate(subject(status))
	}

	slog.Info("receiver: dataset stored",
		"session", status.ID,
		"name", status.Name,
		"readings", ds.Len(),
		"has_time", ds.HasTime,
		"source_column", ds.SourceColumn,
		"state", status.Overview.Classification,
		"current", status.Overview.Current.Value,
		"alerts_fired", len(fired),
	)

	return &Result{Status: status, Fired: fired}, nil
}

// Reevaluate runs the alert rules again over every live session using the
// current thresholds, so that a threshold reload fires or resolves alerts
// without waiting for the next upload. It returns the alerts that fired.
func (r *Receiver) Reevaluate() []*alerts.Alert {
	if r.alerts == nil {
		return nil
	}
	statuses := r.store.Statuses(r.thresholds())
	var fired []*alerts.Alert
	for _, st := range statuses {
		fired = append(fired, r.alerts.Evaluate(subject(st))...)
	}
	slog.Info("receiver: alerts re-evaluated", "sessions", len(statuses), "alerts_fired", len(fired))
	return fired
}

func subject(s store.Status) alerts.Subject {
	return alerts.Subject{
		SessionID: s.ID,
		Name:      s.Name,
		Overview:  s.Overview,
		Stats:     s.Stats,
	}
}

// Message converts an Accept error into the text shown to the uploader.
func Message(err error) string {
	var pe *types.ParseError
	switch {
	case errors.As(err, &pe):
		return fmt.Sprintf("could not read the file (%s); %s", pe.Error(), types.FormatHint)
	case errors.Is(err, types.ErrEmptyDataset):
		return "the file has no readings; " + types.FormatHint
	case err != nil:
		return err.Error()
	default:
		return ""
	}
}
