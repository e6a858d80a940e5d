// Package restate implements the per-resource state tracker: it records
// each resource's current usage state and emits a transition only when the
// requested state actually differs from the current one, returning the old
// state so callers can implement scoped acquire/restore patterns.
package restate
