// Package storage is the SQLite persistence layer for the board relay.
//
// It holds:
//   - Users, boards, board selections and per-board memberships
//   - Posts (at most one non-archived post per user/board pair,
//     enforced by a partial unique index)
//   - Admin role grants and the append-only audit log
//
// All reads and writes go through Queries, which works over either the
// shared connection pool or a single transaction (see Store.WithTx).
package storage
