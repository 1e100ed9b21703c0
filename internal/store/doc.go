// Package store persists entity graphs in SQLite and runs compiled filter
// queries against them.
//
// Tables are derived from the model: one table per entity with a column
// per stored property, foreign-key columns for owning to-one
// relationships, and one junction table per owning many-has-many
// relationship. Timestamps are stored as Unix seconds.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Query results are ordered deterministically: the requested order first,
// then the base table's primary key ascending.
package store
