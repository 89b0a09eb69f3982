// Package audit records billing, account and project changes for support and compliance.
//
// # Overview
//
// Every successful state change made through the billing manager or the projects service emits
// one AuditEvent. Events carry the acting user, the request ID, the affected resource and a
// metadata map (plan, cycle, add-on, pool, quantity...). Events are written in the background so
// an audit outage never fails a purchase.
//
// # Event Types
//
// Billing: billing.onboarding, billing.plan_change, billing.cancel, billing.addon_purchase,
// billing.credit_purchase
// Account: account.delete
// Projects: project.create, project.update, project.delete
//
// # Loggers
//
//   - DBLogger inserts into the audit_events table
//   - StructuredLogger writes JSON log lines through observability.Logger
//   - MultiLogger fans out to several loggers
//   - NoOp discards everything
//
// # Usage Example
//
//	event := audit.NewEvent(ctx, audit.EventTypeCancel, userID, audit.ResourceTypeBilling, "")
//	event.Timestamp = now
//	event.Metadata["from_plan"] = "builder"
//	_ = logger.Log(ctx, event)
//
// # Related Packages
//
//   - pkg/async: Background execution of audit writes
//   - pkg/billing: Billing event producer
//   - pkg/projects: Project event producer
package audit
