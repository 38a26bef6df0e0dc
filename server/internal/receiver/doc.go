// Package receiver is the upload boundary of the gasmonitor server.
//
// Receiver.Accept parses an uploaded CSV into a Dataset, rejects tables with
// no readings, stores the dataset as a new session, and evaluates the alert
// rules against the new session's status. Authentication and request size
// limits are enforced upstream by the HTTP layer (see packages auth and api),
// so the receiver only validates the table itself.
//
// New(st, eng, thresholds) wires the receiver to the session store, the
// alert engine, and the source of the current operational thresholds.
package receiver
