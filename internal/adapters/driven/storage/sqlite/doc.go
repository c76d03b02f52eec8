// Package sqlite persists records and scheduler state in a single SQLite file.
//
// It uses modernc.org/sqlite, a pure Go driver, so the binary builds without CGO.
// One *Store hands out two port implementations over the same connection:
//
//   - RecordStore: documents and images, with metadata stored as JSON
//   - SchedulerStore: scheduled task state and run history
//
// # Schema
//
// Migrations live in migrations/ as numbered .up.sql/.down.sql pairs and are
// applied in order on open. Applied versions are tracked in schema_migrations.
//
// # Data Location
//
// By default the database is ~/.homenet/data/homenet.db.
//
// File path is indexed but not unique. Deduplication is the ledger's job.
package sqlite
