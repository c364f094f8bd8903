// Package httputil provides request/response helpers shared by the API
// handlers: JSON encoding, error mapping from the apierr taxonomy to HTTP
// statuses, path and query parameter parsing, and small middlewares.
package httputil
