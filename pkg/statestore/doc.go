// Package statestore owns the single cached session state record and the
// file that backs it.
//
// Invariants:
// - The record is loaded from disk at most once per Store (until Invalidate).
// - Load, Save and Update are serialized by one mutex covering both the
//   cache and the file I/O.
// - Reads never create files or directories.
// - A save always writes the whole record and replaces the file by rename,
//   so readers never observe a torn file.
// - No operation returns an error. Missing or corrupt state loads as
//   statefile.Default(); failed writes are logged and counted, and the
//   cache still reflects the attempted update.
//
// Usage:
//
//	store := statestore.New(statestore.StaticDir("/path/to/project"))
//	rec := store.Load()
//	rec.SessionID = "sess-42"
//	store.Save(rec)
package statestore
