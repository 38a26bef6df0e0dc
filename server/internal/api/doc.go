// Package api implements the HTTP REST API for the gasmonitor server.
//
// New(deps) returns an http.Handler that serves:
//
//	GET    /api/v1/health                  overall state, per-state session counts
//	POST   /api/v1/datasets                upload a CSV (multipart "file" or raw body)
//	GET    /api/v1/datasets                all live sessions ([]DatasetResponse)
//	GET    /api/v1/datasets/{id}           one session; 404 if unknown or stale
//	DELETE /api/v1/datasets/{id}           drop a session
//	GET    /api/v1/datasets/{id}/readings  normalized readings with classification
//	GET    /api/v1/datasets/{id}/stats     descriptive statistics and breach counts
//	PUT    /api/v1/datasets/{id}/alert     set the session alert threshold
//	GET    /api/v1/datasets/{id}/filter    range filters (?min=&max=&alert=)
//	GET    /api/v1/datasets/{id}/report    CSV report of readings above ?min=
//	GET    /api/v1/alerts                  firing and recently resolved alerts
//
// JSON endpoints respond with Content-Type: application/json and an
// {"error": ..., "hint": ...} body on failure. Malformed uploads answer 400,
// uploads without readings 422. A dataset without variation is not an
// error: the filter response sets no_variation and carries the full dataset.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
