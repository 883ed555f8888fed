// Package store provides durable storage for rewrite traces: one row
// per conversion run and one row per pattern application within it.
// Backed by SQLite with WAL mode for concurrent read access.
package store
