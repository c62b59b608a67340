// Package sqlite backs the driven storage ports with a single SQLite database.
//
// The driver is modernc.org/sqlite, a pure Go port, so the binary
// cross-compiles without CGO. One *sql.DB connection pool serves every
// store view:
//
//   - SourceStore: source configuration
//   - DocumentStore: documents and their chunks
//   - ManifestStore: ingestion fingerprints
//   - ExclusionStore: documents pruned from sync
//   - SchedulerStore: sync task state and run history
//   - VectorIndex: chunk embeddings and similarity queries
//
// The schema lives in migrations/ as numbered .up.sql files and is applied
// on open. The database file defaults to ~/.recall/data/metadata.db.
//
// Concurrent use is safe: WAL mode lets readers proceed alongside a writer,
// and the busy timeout absorbs short write contention.
package sqlite
