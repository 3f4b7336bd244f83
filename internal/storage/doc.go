// Package storage persists the set of Reddit posts that have already been
// cross-posted.
//
// Two drivers are available:
//   - "file": a single pretty-printed JSON array (the default)
//   - "sqlite": a SQLite database file
//
// Both preserve discovery order and never prune entries.
package storage
