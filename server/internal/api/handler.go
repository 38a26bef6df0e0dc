package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cazuela/gasmonitor/pkg/compute"
	"github.com/cazuela/gasmonitor/pkg/filter"
	"github.com/cazuela/gasmonitor/pkg/report"
	"github.com/cazuela/gasmonitor/pkg/types"
	"github.com/cazuela/gasmonitor/server/internal/alerts"
	"github.com/cazuela/gasmonitor/server/internal/metrics"
	"github.com/cazuela/gasmonitor/server/internal/receiver"
	"github.com/cazuela/gasmonitor/server/internal/store"
)

// defaultUploadName is used when an upload carries no file or query name.
const defaultUploadName = "upload.csv"

// Deps are the collaborators the API reads from and writes to.
type Deps struct {
	Store    *store.Store
	Receiver *receiver.Receiver
	Alerts   *alerts.Engine

	// Thresholds returns the current operational thresholds.
	Thresholds func() types.Thresholds

	// Counters, if set, records upload outcomes for /metrics.
	Counters *metrics.Counters

	// MaxUploadBytes caps request bodies on upload. Zero means no limit.
	MaxUploadBytes int64

	// OnChange, if set, is called after a session is added, changed or removed.
	OnChange func()
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	Deps
	mux *http.ServeMux
}

// New creates a Handler wired to deps and registers all routes.
func New(deps Deps) http.Handler {
	if deps.Thresholds == nil {
		deps.Thresholds = types.DefaultThresholds
	}
	h := &Handler{Deps: deps, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /api/v1/health", h.health)
	h.mux.HandleFunc("POST /api/v1/datasets", h.upload)
	h.mux.HandleFunc("GET /api/v1/datasets", h.listDatasets)
	h.mux.HandleFunc("GET /api/v1/datasets/{id}", h.getDataset)
	h.mux.HandleFunc("DELETE /api/v1/datasets/{id}", h.deleteDataset)
	h.mux.HandleFunc("GET /api/v1/datasets/{id}/readings", h.readings)
	h.mux.HandleFunc("GET /api/v1/datasets/{id}/stats", h.stats)
	h.mux.HandleFunc("PUT /api/v1/datasets/{id}/alert", h.setAlert)
	h.mux.HandleFunc("GET /api/v1/datasets/{id}/filter", h.filter)
	h.mux.HandleFunc("GET /api/v1/datasets/{id}/report", h.report)
	h.mux.HandleFunc("GET /api/v1/alerts", h.alerts)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: session count and per-state counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	statuses := h.Store.Statuses(h.Thresholds())
	resp := HealthResponse{
		State:        "unknown",
		SessionCount: len(statuses),
	}
	for _, s := range statuses {
		switch s.Overview.Classification {
		case types.Critical:
			resp.CriticalCount++
		case types.Warning:
			resp.WarningCount++
		default:
			resp.NormalCount++
		}
	}
	switch {
	case resp.CriticalCount > 0:
		resp.State = string(types.Critical)
	case resp.WarningCount > 0:
		resp.State = string(types.Warning)
	case resp.NormalCount > 0:
		resp.State = string(types.Normal)
	}
	if h.Alerts != nil {
		for _, a := range h.Alerts.Active() {
			if a.State == "firing" {
				resp.AlertCount++
			}
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// upload handles POST /api/v1/datasets. The CSV is read from the multipart
// field "file" or, for any other content type, from the raw request body.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}

	body, name, err := uploadBody(r)
	if err != nil {
		h.rejected()
		uploadErr(w, err)
		return
	}
	defer body.Close()

	res, err := h.Receiver.Accept(r.Context(), name, body)
	if err != nil {
		h.rejected()
		uploadErr(w, err)
		return
	}
	if h.Counters != nil {
		h.Counters.Accepted()
	}
	h.changed()

	e, ok := h.Store.Get(res.Status.ID)
	if !ok {
		jsonErr(w, http.StatusInternalServerError, "session vanished after upload")
		return
	}
	fired := res.Fired
	if fired == nil {
		fired = []*alerts.Alert{}
	}
	w.Header().Set("Location", "/api/v1/datasets/"+res.Status.ID)
	jsonResp(w, http.StatusCreated, UploadResponse{
		Dataset: toDatasetResponse(e, res.Status, h.Thresholds()),
		Fired:   fired,
	})
}

// listDatasets returns GET /api/v1/datasets: all live sessions, oldest first.
func (h *Handler) listDatasets(w http.ResponseWriter, r *http.Request) {
	th := h.Thresholds()
	entries := h.Store.List()
	out := make([]DatasetResponse, 0, len(entries))
	for _, e := range entries {
		s, err := e.Status(th)
		if err != nil {
			continue
		}
		out = append(out, toDatasetResponse(e, s, th))
	}
	jsonResp(w, http.StatusOK, out)
}

// getDataset returns GET /api/v1/datasets/{id}: headline status and hints.
func (h *Handler) getDataset(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	th := h.Thresholds()
	s, err := e.Status(th)
	if err != nil {
		computeErr(w, err)
		return
	}
	jsonResp(w, http.StatusOK, toDatasetResponse(e, s, th))
}

// deleteDataset handles DELETE /api/v1/datasets/{id}.
func (h *Handler) deleteDataset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.Store.Delete(id) {
		jsonErr(w, http.StatusNotFound, "dataset not found")
		return
	}
	if h.Alerts != nil {
		h.Alerts.Forget(id)
	}
	h.changed()
	slog.Info("api: dataset deleted", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

// readings returns GET /api/v1/datasets/{id}/readings: the normalized series.
func (h *Handler) readings(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	th := e.Thresholds(h.Thresholds())
	ds := e.Dataset
	out := make([]ReadingResponse, 0, ds.Len())
	for _, rd := range ds.Readings {
		rr := ReadingResponse{
			Index:          rd.Index,
			Value:          rd.Value,
			Classification: compute.Classify(rd.Value, th),
		}
		if ds.HasTime {
			ts := rd.Time.Format(time.RFC3339Nano)
			rr.Time = &ts
		}
		out = append(out, rr)
	}
	jsonResp(w, http.StatusOK, ReadingsResponse{
		ID:           e.ID,
		HasTime:      ds.HasTime,
		TimeColumn:   ds.TimeColumn,
		SourceColumn: ds.SourceColumn,
		Readings:     out,
	})
}

// stats returns GET /api/v1/datasets/{id}/stats.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	th := e.Thresholds(h.Thresholds())
	summary, err := compute.Summarize(e.Dataset, th)
	if err != nil {
		computeErr(w, err)
		return
	}
	jsonResp(w, http.StatusOK, StatsResponse{ID: e.ID, Thresholds: th, Stats: summary})
}

// setAlert handles PUT /api/v1/datasets/{id}/alert with body {"alert": 72}.
// Alert rules are re-evaluated because alert_count depends on the threshold.
func (h *Handler) setAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Alert == nil {
		jsonErr(w, http.StatusBadRequest, `"alert" is required`)
		return
	}
	if err := checkLevel("alert", *req.Alert); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	e, ok := h.Store.SetAlert(r.PathValue("id"), *req.Alert)
	if !ok {
		jsonErr(w, http.StatusNotFound, "dataset not found")
		return
	}
	th := h.Thresholds()
	s, err := e.Status(th)
	if err != nil {
		computeErr(w, err)
		return
	}
	if h.Alerts != nil {
		h.Alerts.Evaluate(alerts.Subject{SessionID: s.ID, Name: s.Name, Overview: s.Overview, Stats: s.Stats})
	}
	h.changed()
	slog.Info("api: alert threshold changed", "session", e.ID, "alert", e.Alert)
	jsonResp(w, http.StatusOK, toDatasetResponse(e, s, th))
}

// filter returns GET /api/v1/datasets/{id}/filter?min=&max=&alert=.
// alert overrides the session threshold for this request only.
func (h *Handler) filter(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	lower, err := optionalLevel(q, "min")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	upper, err := optionalLevel(q, "max")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	alertOverride, err := optionalLevel(q, "alert")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	th := e.Thresholds(h.Thresholds())
	if alertOverride != nil {
		th = th.WithAlert(*alertOverride)
	}
	res, err := filter.Apply(e.Dataset, th, filter.Request{Lower: lower, Upper: upper})
	if err != nil {
		computeErr(w, err)
		return
	}

	resp := FilterResponse{ID: e.ID, Result: res}
	if lower != nil && upper != nil && *lower <= *upper && !res.NoVariation {
		between, err := filter.Between(e.Dataset, *lower, *upper)
		if err == nil {
			resp.Between = &between
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// report returns GET /api/v1/datasets/{id}/report?min=&index=: the readings
// strictly above min as a CSV attachment. min defaults to the suggested
// bound. A dataset without variation is exported whole, with the reason in
// the X-Report-Notice header.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	lower, err := optionalLevel(q, "min")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	var opts []report.Option
	if v := q.Get("index"); v != "" {
		withIndex, err := strconv.ParseBool(v)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, fmt.Sprintf("index: %q is not a boolean", v))
			return
		}
		if withIndex {
			opts = append(opts, report.WithIndex())
		}
	}

	ds := e.Dataset
	if lower == nil {
		bounds, err := filter.Suggest(ds)
		if err != nil {
			computeErr(w, err)
			return
		}
		lower = &bounds.Default
	}
	out := ds
	view, err := filter.Above(ds, *lower)
	switch {
	case errors.Is(err, types.ErrNoVariation):
		w.Header().Set("X-Report-Notice", "no variation in the data; full dataset exported")
	case err != nil:
		computeErr(w, err)
		return
	default:
		out = view.Dataset
	}

	data, err := report.Export(out, opts...)
	if err != nil {
		slog.Error("api: report export failed", "session", e.ID, "err", err)
		jsonErr(w, http.StatusInternalServerError, "could not generate the report")
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": report.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// alerts returns GET /api/v1/alerts: firing and recently resolved alerts.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	out := []*alerts.Alert{}
	if h.Alerts != nil {
		out = h.Alerts.Active()
	}
	jsonResp(w, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

// session looks up {id}, writing a 404 when it is unknown or stale.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*store.Entry, bool) {
	e, ok := h.Store.Get(r.PathValue("id"))
	if !ok {
		jsonErr(w, http.StatusNotFound, "dataset not found")
		return nil, false
	}
	return e, true
}

func (h *Handler) changed() {
	if h.OnChange != nil {
		h.OnChange()
	}
}

func (h *Handler) rejected() {
	if h.Counters != nil {
		h.Counters.Rejected()
	}
}

// uploadBody returns the CSV reader and the session name for an upload.
func uploadBody(r *http.Request) (io.ReadCloser, string, error) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if name == "" {
			name = defaultUploadName
		}
		return r.Body, name, nil
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return nil, "", fmt.Errorf("api: multipart form: %w", err)
	}
	f, fh, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("api: multipart field %q: %w", "file", err)
	}
	if v := strings.TrimSpace(r.FormValue("name")); v != "" {
		name = v
	}
	if name == "" {
		name = fh.Filename
	}
	if name == "" {
		name = defaultUploadName
	}
	return f, name, nil
}

// uploadErr maps upload failures to status codes and user-facing messages.
func uploadErr(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		jsonResp(w, http.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit),
		})
	case types.IsParseError(err):
		jsonResp(w, http.StatusBadRequest, errorResponse{Error: receiver.Message(err), Hint: types.FormatHint})
	case errors.Is(err, types.ErrEmptyDataset):
		jsonResp(w, http.StatusUnprocessableEntity, errorResponse{Error: receiver.Message(err), Hint: types.FormatHint})
	case errors.Is(err, http.ErrMissingFile), strings.HasPrefix(err.Error(), "api: multipart"):
		jsonResp(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Hint: types.FormatHint})
	default:
		slog.Error("api: upload failed", "err", err)
		jsonErr(w, http.StatusInternalServerError, "could not store the upload")
	}
}

// computeErr maps core pipeline errors on an existing session.
func computeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, types.ErrEmptyDataset) {
		jsonResp(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Hint: types.FormatHint})
		return
	}
	slog.Error("api: computation failed", "err", err)
	jsonErr(w, http.StatusInternalServerError, err.Error())
}

// optionalLevel parses a finite float query parameter; absent means nil.
func optionalLevel(q map[string][]string, key string) (*float64, error) {
	vals := q[key]
	if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a number", key, vals[0])
	}
	if err := checkLevel(key, v); err != nil {
		return nil, err
	}
	return &v, nil
}

func checkLevel(key string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s: must be a finite number", key)
	}
	return nil
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// toDatasetResponse maps a session and its status to its JSON representation.
func toDatasetResponse(e *store.Entry, s store.Status, th types.Thresholds) DatasetResponse {
	return DatasetResponse{
		ID:           e.ID,
		Name:         e.Name,
		Readings:     e.Dataset.Len(),
		HasTime:      e.Dataset.HasTime,
		SourceColumn: e.Dataset.SourceColumn,
		Alert:        e.Alert,
		Overview:     s.Overview,
		Label:        s.Overview.Classification.Label(),
		Diagnostics:  computeDiagnostics(s, e.Dataset, e.Thresholds(th)),
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
		LastUsed:     e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
