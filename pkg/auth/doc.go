// Package auth defines the core authentication types: the resolved Principal,
// role sets, and the per-request authentication context.
//
// A Context is built once per request by the session middleware and threaded
// through the call chain explicitly. It is never shared between requests and
// never cached.
package auth
