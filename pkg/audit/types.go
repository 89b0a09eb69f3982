package audit

import (
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Billing events
	EventTypeOnboarding     EventType = "billing.onboarding"
	EventTypePlanChange     EventType = "billing.plan_change"
	EventTypeCancel         EventType = "billing.cancel"
	EventTypeAddOnPurchase  EventType = "billing.addon_purchase"
	EventTypeCreditPurchase EventType = "billing.credit_purchase"

	// Account events
	EventTypeAccountDelete EventType = "account.delete"

	// Project events
	EventTypeProjectCreate EventType = "project.create"
	EventTypeProjectUpdate EventType = "project.update"
	EventTypeProjectDelete EventType = "project.delete"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
)

// ResourceType represents the type of resource being changed
type ResourceType string

const (
	ResourceTypeBilling ResourceType = "billing"
	ResourceTypeUser    ResourceType = "user"
	ResourceTypeProject ResourceType = "project"
)

// AuditEvent represents a single audit log entry
type AuditEvent struct {
	ID        int64       `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	UserID    int64  `json:"user_id"`
	RequestID string `json:"request_id,omitempty"`

	ResourceType ResourceType `json:"resource_type,omitempty"`
	ResourceID   string       `json:"resource_id,omitempty"`

	Message      string                 `json:"message,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`

	// Changes tracking (before/after for updates)
	Changes *ChangeDetails `json:"changes,omitempty"`
}

// ChangeDetails tracks before/after values for updates
type ChangeDetails struct {
	Before map[string]interface{} `json:"before,omitempty"`
	After  map[string]interface{} `json:"after,omitempty"`
}
