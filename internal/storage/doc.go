// Package storage provides JSON-based persistence for crawl snapshots.
//
// After each run the collected records are written to snapshot.json in the
// data directory, so the next run can report which records are new. The
// default storage location is ~/.local/share/ikoma-events/.
package storage
