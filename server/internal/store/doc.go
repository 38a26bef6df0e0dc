// Package store keeps uploaded gas datasets in memory, one session per
// upload, keyed by a random UUID. It provides a thread-safe store with TTL
// eviction; nothing is persisted to disk.
package store
