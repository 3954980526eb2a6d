// Package store provides persistent storage for drama-engine using SQLite.
//
// # Data Models
//
//   - PromptRecord: append-only audit entry for every dispatch attempt
//   - ChatRecord/HistoryRecord: persisted chat transcripts
//   - KeyValueRecord: world state, including per-companion counters
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Use NewSQLiteStore(":memory:") for integration tests with real SQLite,
// or NewMockStore() for unit tests without a database.
//
// # Error Handling
//
// ErrNotFound is returned when a requested entity does not exist. All
// methods accept context.Context for cancellation support.
package store
