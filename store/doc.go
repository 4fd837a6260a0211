// Package store persists the client's token pair and rehydration snapshot
// across process restarts.
//
// # Design
//
// Records are encoded with a versioned binary codec (single version byte,
// length-prefixed string fields) so the on-disk format can evolve without
// breaking returning sessions. The store is a single mutable cell: logout
// and a successful OTP verification (or refresh) are the only writers, and
// writes are last-write-wins.
//
// # What this package must NOT do
//
//   - Track token expiry. Callers act on 401-class failures.
//   - Persist challenge or reset-token state; that state is transient by
//     contract and must not survive a reload.
package store
