// Package storage provides the SQLite preference backend.
//
// The backend stores opaque preference blobs keyed by profile in a single
// table, using the pure-Go modernc.org/sqlite driver in WAL mode. Schema
// changes are applied as versioned migrations recorded in
// schema_migrations.
//
// Example Usage:
//
//	store, err := storage.Open("/tmp/nexus-os/preferences.db")
//	defer store.Close()
//	mgr := prefs.NewManager(store, themes, logger)
package storage
