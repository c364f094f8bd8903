package audit

import (
	"context"

	"github.com/platinummonkey/gatehouse/pkg/contextkeys"
)

// Logger records audit events. Implementations must be safe for concurrent
// use; recording failures are the implementation's problem to surface, call
// sites treat auditing as best effort.
type Logger interface {
	Log(ctx context.Context, event *Event) error
	Close() error
}

type loggerKey struct{}

// WithLogger installs the audit logger in the context
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the context's audit logger, or a no-op logger when
// none was installed
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey{}).(Logger); ok && logger != nil {
		return logger
	}
	return NopLogger{}
}

// NopLogger discards all events
type NopLogger struct{}

func (NopLogger) Log(ctx context.Context, event *Event) error { return nil }
func (NopLogger) Close() error                                { return nil }

// enrich copies request-scoped identifiers from the context onto the event
func enrich(ctx context.Context, event *Event) *Event {
	if event.RequestID == "" {
		event.RequestID = contextkeys.GetRequestID(ctx)
	}
	if event.SessionID == "" {
		event.SessionID = contextkeys.GetSessionID(ctx)
	}
	return event
}

// Record enriches the event from the context and hands it to the context's
// logger
func Record(ctx context.Context, event *Event) error {
	return FromContext(ctx).Log(ctx, enrich(ctx, event))
}
