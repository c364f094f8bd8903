// Package middleware provides the per-request session resolution filter.
//
// SessionAuth runs before any business logic, resolves the request's session
// to a principal and installs the authentication context. It is a
// context-attachment step, not an access-control gate: the request is always
// forwarded, and protected operations enforce authorization themselves.
package middleware
