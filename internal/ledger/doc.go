// Package ledger exposes the sanctioned mutation entry points for the
// account economy.
//
// Every mutating call runs its whole read-modify-write under one
// process-wide lock, so cross-account operations (transfer) are atomic and
// no caller ever observes a half-applied mutation. Persistence is
// write-through: each successful mutation snapshots the store under the
// lock and pushes the snapshot through the persistence chain afterwards.
// Persistence failures are warnings, never operation failures.
package ledger
