// Package sqlite persists index snapshots with modernc.org/sqlite, a pure Go
// SQLite implementation that needs no CGO.
//
// # Schema
//
// The schema is managed through versioned migrations in migrations/. Each
// snapshot is one row in builds plus its documents, blocks, postings and
// cross_references. Saving a snapshot replaces the previous one in a single
// transaction, so a failed save leaves the last good snapshot in place.
//
// # Data Location
//
// By default, the database is stored at ~/.mdindex/data/index.db
package sqlite
