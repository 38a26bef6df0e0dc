// Package ws implements the WebSocket hub for the gasmonitor server.
//
// Hub manages a set of connected clients and broadcasts the status of every
// live dataset session to all of them on a configurable interval (default 5s).
//
// New(store, interval, thresholds) creates a Hub.
// Hub.Run(ctx) starts the broadcast ticker; it blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends the current
// statuses immediately on connect, then streams updates on each tick.
// Hub.Broadcast pushes an update outside the ticker, e.g. right after an upload.
//
// Message format sent to clients:
//
//	{
//	  "event": "status",
//	  "data":  [ /* one entry per session, same schema as GET /api/v1/datasets */ ]
//	}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The endpoint is mounted at /ws/stream by the server.
package ws
