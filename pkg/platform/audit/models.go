package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention and routing.
type EventCategory string

const (
	// CategoryAllocation covers PINs handed out to requesters.
	CategoryAllocation EventCategory = "allocation"

	// CategoryOperations covers pool maintenance: bootstrap, classification,
	// rollover resets.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	RequestID string        `json:"request_id,omitempty"`
	// Requested is the quantity asked for; Served is how many codes came back.
	Requested int    `json:"requested,omitempty"`
	Served    int    `json:"served,omitempty"`
	Rollovers int    `json:"rollovers,omitempty"`
	Count     int    `json:"count,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type AuditEvent string

const (
	EventPoolBootstrapped    AuditEvent = "pin_pool_bootstrapped"
	EventPoolClassified      AuditEvent = "pin_pool_classified"
	EventPINsAllocated       AuditEvent = "pins_allocated"
	EventAllocationRollover  AuditEvent = "pin_allocation_rolled_over"
	EventCapacityExceeded    AuditEvent = "pin_capacity_exceeded"
	EventManualRollover      AuditEvent = "pin_allocation_reset_requested"
	EventClassificationGuard AuditEvent = "pin_classification_skipped"
)

// CategoryFor returns the default category of an event name.
func CategoryFor(event AuditEvent) EventCategory {
	if event == EventPINsAllocated {
		return CategoryAllocation
	}
	return CategoryOperations
}

// Store is an append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
