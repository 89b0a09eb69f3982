package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Schema is the DDL for the audit_events table
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id BIGSERIAL PRIMARY KEY,
	timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
	event_type VARCHAR(64) NOT NULL,
	status VARCHAR(16) NOT NULL,
	user_id BIGINT NOT NULL,
	request_id VARCHAR(64),
	resource_type VARCHAR(32),
	resource_id VARCHAR(64),
	message TEXT,
	error_message TEXT,
	metadata JSONB,
	changes JSONB
);
CREATE INDEX IF NOT EXISTS idx_audit_events_user ON audit_events(user_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_audit_events_type ON audit_events(event_type);
`

// DBLogger implements audit logging to PostgreSQL
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger, creating its table if needed
func NewDBLogger(ctx context.Context, db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, fmt.Errorf("failed to ensure audit_events table: %w", err)
	}

	return &DBLogger{db: db}, nil
}

// Log inserts the event and sets event.ID
func (l *DBLogger) Log(ctx context.Context, event *AuditEvent) error {
	var metadataJSON, changesJSON []byte
	var err error

	if len(event.Metadata) > 0 {
		if metadataJSON, err = json.Marshal(event.Metadata); err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}
	if event.Changes != nil {
		if changesJSON, err = json.Marshal(event.Changes); err != nil {
			return fmt.Errorf("failed to marshal changes: %w", err)
		}
	}

	const query = `
		INSERT INTO audit_events (
			timestamp, event_type, status, user_id, request_id,
			resource_type, resource_id, message, error_message, metadata, changes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err = l.db.QueryRowContext(ctx, query,
		event.Timestamp, event.EventType, event.Status, event.UserID, nullString(event.RequestID),
		nullString(string(event.ResourceType)), nullString(event.ResourceID),
		event.Message, nullString(event.ErrorMessage), metadataJSON, changesJSON,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// Close does not close the shared database handle
func (l *DBLogger) Close() error {
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
