// Package ports defines the collaborators of the PIN allocation service.
// Every adapter under internal/pin/store implements Store.
package ports

import (
	"context"
	"log/slog"

	"pinpool/internal/pin/models"
	audit "pinpool/pkg/platform/audit"
	"pinpool/pkg/requestcontext"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Store,AuditPublisher

// Store is the allocation state store. Implementations must make
// SelectRandomUnallocated an atomic select-and-mark so concurrent sessions
// never receive the same code.
type Store interface {
	// SelectAll returns every record and the total count.
	SelectAll(ctx context.Context) ([]*models.PIN, int, error)

	// BulkInsert creates new records, assigning IDs, and returns them.
	BulkInsert(ctx context.Context, pins []*models.PIN) ([]*models.PIN, error)

	// BulkUpsert writes the state of existing codes and returns the stored records.
	BulkUpsert(ctx context.Context, pins []*models.PIN) ([]*models.PIN, error)

	// SelectRandomUnallocated returns up to quantity random Unallocated records,
	// already transitioned to Allocated.
	SelectRandomUnallocated(ctx context.Context, quantity int) ([]*models.PIN, error)

	// ResetAllocation flips every Allocated record back to Unallocated.
	ResetAllocation(ctx context.Context) error
}

// AuditPublisher emits audit events for allocation and pool maintenance.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit logs an audit line with the structured logger and forwards the
// event to the publisher when one is configured.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.Event, attrs ...any) {
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Category == "" {
		event.Category = audit.CategoryFor(audit.AuditEvent(event.Action))
	}
	if event.RequestID != "" {
		attrs = append(attrs, "request_id", event.RequestID)
	}
	args := append(attrs, "event", event.Action, "log_type", "audit")

	if logger != nil {
		logger.InfoContext(ctx, event.Action, args...)
	}

	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}
