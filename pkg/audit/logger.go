package audit

import (
	"context"
	"errors"

	"github.com/platinummonkey/launchpad/pkg/contextkeys"
	"github.com/platinummonkey/launchpad/pkg/observability"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log records an audit event
	Log(ctx context.Context, event *AuditEvent) error

	// Close closes the logger and flushes any buffered logs
	Close() error
}

// NoOp returns a logger that discards every event
func NoOp() Logger {
	return noOpLogger{}
}

type noOpLogger struct{}

func (noOpLogger) Log(ctx context.Context, event *AuditEvent) error { return nil }
func (noOpLogger) Close() error                                      { return nil }

// StructuredLogger writes audit events as structured log lines. It is used when no audit
// database is configured and alongside DBLogger for log shipping.
type StructuredLogger struct {
	logger *observability.Logger
}

// NewStructuredLogger creates an audit logger backed by logger
func NewStructuredLogger(logger *observability.Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger.WithField("component", "audit")}
}

// Log writes the event at info level, or warn for failures
func (l *StructuredLogger) Log(ctx context.Context, event *AuditEvent) error {
	fields := map[string]interface{}{
		"event_type": string(event.EventType),
		"status":     string(event.Status),
		"user_id":    event.UserID,
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	if event.ResourceType != "" {
		fields["resource_type"] = string(event.ResourceType)
		fields["resource_id"] = event.ResourceID
	}
	for k, v := range event.Metadata {
		fields["meta_"+k] = v
	}

	entry := l.logger.WithFields(fields)
	if event.Status == EventStatusFailure {
		entry.WithField("error", event.ErrorMessage).Warn(event.Message)
		return nil
	}
	entry.Info(event.Message)
	return nil
}

// Close is a no-op
func (l *StructuredLogger) Close() error { return nil }

// MultiLogger fans an event out to several loggers. Every logger is attempted; errors are joined.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a new multi-logger that writes to multiple destinations
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log logs an audit event to all configured loggers
func (m *MultiLogger) Log(ctx context.Context, event *AuditEvent) error {
	var errs []error
	for _, logger := range m.loggers {
		if err := logger.Log(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all loggers
func (m *MultiLogger) Close() error {
	var errs []error
	for _, logger := range m.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewEvent builds a success event for userID, stamped with the request ID from ctx.
// Callers set Timestamp from their own clock.
func NewEvent(ctx context.Context, eventType EventType, userID int64, resourceType ResourceType, resourceID string) *AuditEvent {
	return &AuditEvent{
		EventType:    eventType,
		Status:       EventStatusSuccess,
		UserID:       userID,
		RequestID:    contextkeys.GetRequestID(ctx),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     make(map[string]interface{}),
	}
}
