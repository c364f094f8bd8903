// Package session provides server-side session storage keyed by opaque
// session ids, with attribute key/value semantics.
//
// Two implementations are provided: a Redis-backed store for production and a
// bounded in-memory store for development and tests. Both treat session
// mutation as last-writer-wins; the only mutations the authentication core
// performs (clearing a stale attribute, invalidating a session) are
// idempotent, so no locking is required around concurrent use of one session.
package session
