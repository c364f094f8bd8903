// Package roles maps user ids to role sets.
//
// The resolver guarantees every authenticated user at least the baseline
// role, even when the backing store has no role rows for them. Elevated roles
// are never synthesized; they come strictly from the store.
package roles
