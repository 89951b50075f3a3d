// Package store provides SQLite-backed durable storage for the runtime.
//
// The store keeps two things:
//   - Trace: an append-only journal of cycles, dispatched effects and
//     subscription starts and stops, written by the engine's Tracer hook
//   - Storage areas: key/value tables that back the localStorage and
//     sessionStorage host capabilities across runs
//
// # Ordering
//
// All queries order by seq (the engine's logical clock), never by wall
// time, so two runs of the same scenario read back identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Details are stored as canonical JSON (internal/ir/canonical.go).
package store
