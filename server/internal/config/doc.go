// Package config loads the server configuration from the `server:` section
// of config.yaml and watches the file for changes.
//
// Config fields:
//   - HTTPPort                 — REST API, /metrics and /ws/stream (default 8080)
//   - Auth.Mode                — "apikey" or "none"
//   - Auth.KeyEnv              — environment variable holding the expected API key
//   - Auth.Header              — HTTP header name (default "X-API-Key")
//   - Session.TTL              — how long an uploaded dataset stays live (default 30m)
//   - Session.MaxUploadBytes   — upload size cap (default 10 MiB)
//   - Thresholds               — warning / critical / default alert (60 / 80 / 75)
//   - Stream.Interval          — WebSocket broadcast period (default 5s)
//   - Alerts.Rules, Webhooks   — alert conditions and delivery targets
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) reloads on write using fsnotify; the server uses
// it to hot-swap thresholds without a restart.
package config
