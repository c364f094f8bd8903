// Package audit records security-relevant events: logins, logouts, failed
// authentication attempts, password changes and authorization denials.
//
// Events flow through the Logger interface. FileLogger appends JSON lines
// via logrus, DBLogger persists rows for querying, and MultiLogger fans out
// to both. Handlers obtain the logger from the request context; when none
// was installed a no-op logger is returned so call sites never nil-check.
package audit
