// Package metrics exposes live gas session state in the Prometheus text
// exposition format.
//
// Metric families are built directly as client_model protobufs and encoded
// with expfmt, so the server does not run a global registry. Every scrape
// reflects the sessions and alerts present at that moment.
package metrics
