package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound covers both a missing entity and a tenant mismatch.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition means the appointment exists but is in a state
	// that does not allow the requested operation.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrValidation means the input itself is malformed.
	ErrValidation = errors.New("validation failed")
	// ErrConflict means a concurrent writer won the status compare-and-swap;
	// the operation may be retried after reloading.
	ErrConflict = errors.New("concurrent update conflict")
)

// Repository contains all DB interactions needed by the service. Writes to
// an appointment go through UpdateAppointment's compare-and-swap on status,
// which is the lost-update guard for concurrent transitions.
type Repository interface {
	GetProcedureByID(ctx context.Context, tenantID string, id uuid.UUID) (*Procedure, error)

	CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, tenantID string, id uuid.UUID) (*Appointment, error)
	// UpdateAppointment persists appt iff its stored status still equals
	// expected; otherwise it returns ErrConflict (or ErrNotFound).
	UpdateAppointment(ctx context.Context, appt *Appointment, expected AppointmentStatus) (*Appointment, error)

	// FindByResourceAndWindow returns appointments for the resource whose
	// scheduled date falls in [from, to), hydrated with the procedure's
	// default duration. Used by availability reads over a snapshot.
	FindByResourceAndWindow(ctx context.Context, tenantID string, filter ResourceFilter, from, to time.Time) ([]Appointment, error)

	ListByDay(ctx context.Context, tenantID string, day time.Time) ([]Appointment, error)

	// CompleteAppointment persists the completed appointment and its
	// generated returns in one transaction, CAS-guarded on expected.
	CompleteAppointment(ctx context.Context, appt *Appointment, expected AppointmentStatus, returns []AppointmentReturn) (*Appointment, error)
	// CancelAppointment persists the cancelled appointment and cascades to
	// its non-completed returns in one transaction. It reports how many
	// returns were cancelled.
	CancelAppointment(ctx context.Context, appt *Appointment, expected AppointmentStatus) (*Appointment, int64, error)

	ListReturnsByAppointment(ctx context.Context, tenantID string, appointmentID uuid.UUID) ([]AppointmentReturn, error)

	InsertNotification(ctx context.Context, n *NotificationRequest) error
	ListNotificationsByAppointment(ctx context.Context, tenantID string, appointmentID uuid.UUID) ([]NotificationRequest, error)

	// FindNeedingReminders returns appointments inside the 24h or 5h
	// pre-visit window whose corresponding reminder flag is still unset.
	FindNeedingReminders(ctx context.Context, now time.Time) ([]Appointment, error)
	// MarkReminderSent flips one reminder flag, guarded so the flag fires at
	// most once; it reports whether this call actually set it.
	MarkReminderSent(ctx context.Context, tenantID string, id uuid.UUID, kind ReminderKind) (bool, error)
}

type ReminderKind string

const (
	Reminder1Day   ReminderKind = "1day"
	Reminder5Hours ReminderKind = "5hours"
)
