// Package storage opens the backing stores: the user database (postgres in
// production, sqlite for local development) and the redis client backing
// the session store. Configuration validation lives here so main fails fast
// on a misconfigured deployment.
package storage
