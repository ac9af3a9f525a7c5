package scheduling

import (
	"context"

	"github.com/google/uuid"
)

const (
	EventAppointmentScheduled   = "APPOINTMENT_SCHEDULED"
	EventAppointmentConfirmed   = "APPOINTMENT_CONFIRMED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentNoShow      = "APPOINTMENT_NO_SHOW"
)

// EventPublisher hands a domain event to the external bus. Consumption is
// out of scope; publication failure must never abort the transition that
// triggered it.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, tenantID string, entityID uuid.UUID, payload map[string]any) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, eventType, tenantID string, entityID uuid.UUID, payload map[string]any) error {
	return nil
}
