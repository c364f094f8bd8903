// Package api exposes the HTTP surface: authentication endpoints (login,
// logout, identity introspection), user management, and the middleware chain
// that resolves sessions before any handler runs.
//
// Handlers never enforce authorization themselves; they pass the request's
// authentication context to the user service, which runs its policy checks
// and returns kinded errors the handlers map to HTTP statuses.
package api
