// Package sqlite provides the SQLite implementation of driven.DocumentStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Two tables hold the data: documents, and chunks keyed by id with an index on
// document_id. Chunk embeddings are little-endian float32 BLOBs.
//
// # Data Location
//
// By default, the database is stored at ~/.kbase/data/kbase.db
//
// # Thread Safety
//
// All operations are thread-safe. Every write runs in one immediate
// transaction, so a reader in WAL mode sees a document either entirely
// before or entirely after a replace or delete.
package sqlite
