// Package store provides SQLite-backed durable storage for judge score records.
//
// The store holds three tables:
//   - judges: canonical judge identities with activity timestamps
//   - score_records: one row per (judge, entry) with comment and timestamps
//   - criterion_scores: one row per (judge, entry, criterion) rating
//
// # Write Semantics
//
// Upsert is a single transaction: the judge row, the record row and the full
// set of criterion rows are written together or not at all. Each save replaces
// the previous ratings and comment entirely; callers merge in memory first.
//
// Input is validated against the catalog before the database is touched.
// Validation failures carry ir validation codes; database failures carry
// ir.ErrCodeStorageIO so callers can tell "fix input" from "retry".
//
// # Deterministic Query Results
//
// Multi-row reads order by judge identity (COLLATE BINARY), then entry id,
// then criterion id. ExportAll reads inside one transaction and so observes
// a single point in time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=FULL: every committed save is durable
//   - busy_timeout=5000: Wait for locks up to 5 seconds, then fail
//   - foreign_keys=ON: Enforce referential integrity
package store
