package audit

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/launchpad/pkg/contextkeys"
	"github.com/platinummonkey/launchpad/pkg/observability"
)

type recordingLogger struct {
	events []*AuditEvent
	err    error
	closed bool
}

func (r *recordingLogger) Log(ctx context.Context, event *AuditEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingLogger) Close() error {
	r.closed = true
	return r.err
}

func TestNewEvent(t *testing.T) {
	ctx := contextkeys.WithRequestID(context.Background(), "req-9")
	event := NewEvent(ctx, EventTypeProjectCreate, 3, ResourceTypeProject, "11")

	assert.Equal(t, EventStatusSuccess, event.Status)
	assert.Equal(t, int64(3), event.UserID)
	assert.Equal(t, "req-9", event.RequestID)
	assert.Equal(t, "11", event.ResourceID)
	assert.NotNil(t, event.Metadata)
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(observability.NewLogger(observability.InfoLevel, &buf))

	event := NewEvent(context.Background(), EventTypeCreditPurchase, 5, ResourceTypeBilling, "")
	event.Message = "credits purchased"
	event.Metadata["pool"] = "image"

	require.NoError(t, logger.Log(context.Background(), event))
	out := buf.String()
	assert.Contains(t, out, `"event_type":"billing.credit_purchase"`)
	assert.Contains(t, out, `"meta_pool":"image"`)
	assert.Contains(t, out, `"component":"audit"`)
	assert.NoError(t, logger.Close())
}

func TestMultiLogger(t *testing.T) {
	ok := &recordingLogger{}
	failing := &recordingLogger{err: errors.New("db down")}
	multi := NewMultiLogger(failing, ok)

	event := NewEvent(context.Background(), EventTypeCancel, 1, ResourceTypeBilling, "")
	err := multi.Log(context.Background(), event)

	assert.ErrorContains(t, err, "db down")
	assert.Len(t, ok.events, 1, "later loggers still receive the event")

	assert.Error(t, multi.Close())
	assert.True(t, ok.closed)
}

func TestNoOp(t *testing.T) {
	logger := NoOp()
	assert.NoError(t, logger.Log(context.Background(), &AuditEvent{}))
	assert.NoError(t, logger.Close())
}
