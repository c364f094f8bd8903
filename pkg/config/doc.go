// Package config loads the service configuration from GATEHOUSE_* environment
// variables with sensible local-development defaults: sqlite for the user
// database, the in-memory session store, info-level logging.
//
// LoadConfig validates the assembled configuration and fails fast, so a
// misconfigured deployment never starts serving.
package config
