package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusAwaitingPayment      AppointmentStatus = "awaiting_payment"
	StatusPaymentConfirmed     AppointmentStatus = "payment_confirmed"
	StatusAwaitingConfirmation AppointmentStatus = "awaiting_confirmation"
	StatusConfirmed            AppointmentStatus = "confirmed"
	StatusRescheduled          AppointmentStatus = "rescheduled"
	StatusInProgress           AppointmentStatus = "in_progress"
	StatusCompleted            AppointmentStatus = "completed"
	StatusCancelled            AppointmentStatus = "cancelled"
	StatusNoShow               AppointmentStatus = "no_show"
)

// IsTerminal reports whether no further status mutation is permitted.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// OccupyingStatuses are the statuses that hold a place on the calendar and
// therefore participate in conflict detection and slot occupancy.
var OccupyingStatuses = []AppointmentStatus{
	StatusAwaitingPayment,
	StatusPaymentConfirmed,
	StatusAwaitingConfirmation,
	StatusConfirmed,
	StatusInProgress,
}

func occupiesCalendar(s AppointmentStatus) bool {
	for _, o := range OccupyingStatuses {
		if s == o {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

type AnamnesisStatus string

const (
	AnamnesisPending AnamnesisStatus = "pending"
	AnamnesisSent    AnamnesisStatus = "sent"
	AnamnesisFilled  AnamnesisStatus = "filled"
	AnamnesisSigned  AnamnesisStatus = "signed"
)

type Location string

const (
	LocationMoema      Location = "moema"
	LocationAvPaulista Location = "av_paulista"
	LocationPerdizes   Location = "perdizes"
	LocationOnline     Location = "online"
	LocationHomeVisit  Location = "home_visit"
)

func ValidLocation(l Location) bool {
	switch l {
	case LocationMoema, LocationAvPaulista, LocationPerdizes, LocationOnline, LocationHomeVisit:
		return true
	}
	return false
}

// DefaultDurationMinutes is the last tier of the duration fallback chain:
// explicit duration, then the procedure's default, then this.
const DefaultDurationMinutes = 60

type Procedure struct {
	ID              uuid.UUID
	TenantID        string
	Name            string
	DefaultDuration *int // minutes
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Appointment is the central aggregate. It exclusively owns its Returns and
// NotificationRequests; cancelling it cascades to both.
type Appointment struct {
	ID             uuid.UUID
	TenantID       string
	PatientID      uuid.UUID
	ProcedureID    uuid.UUID
	ProfessionalID *uuid.UUID
	CreatedByID    *uuid.UUID

	ScheduledDate     time.Time
	EstimatedDuration *int // minutes, nil means fall back to procedure default
	Location          Location

	Status          AppointmentStatus
	PaymentStatus   PaymentStatus
	PaymentProof    *string
	PaymentAmount   *float64
	PaymentMethod   *string
	AnamnesisStatus AnamnesisStatus

	AnamnesisSentAt      *time.Time
	AnamnesisCompletedAt *time.Time
	AnamnesisSignedAt    *time.Time

	ConfirmedByPatient bool
	ConfirmedAt        *time.Time

	Reminder1DaySent   bool
	Reminder5HoursSent bool

	CheckedIn   bool
	CheckedInAt *time.Time
	CheckedInBy *uuid.UUID

	AttendanceStartedAt *time.Time
	AttendanceEndedAt   *time.Time

	HasReturn       bool
	ReturnCount     *int
	ReturnFrequency *int // days between returns

	Notes *string

	CancelledAt  *time.Time
	CancelledBy  *uuid.UUID
	CancelReason *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// ProcedureDuration is the procedure's default duration, hydrated by the
	// repository so DurationMinutes can resolve without another lookup.
	ProcedureDuration *int
}

// DurationMinutes resolves the appointment's effective duration: explicit
// value first, then the procedure default, then 60 minutes.
func (a *Appointment) DurationMinutes() int {
	if a.EstimatedDuration != nil && *a.EstimatedDuration > 0 {
		return *a.EstimatedDuration
	}
	if a.ProcedureDuration != nil && *a.ProcedureDuration > 0 {
		return *a.ProcedureDuration
	}
	return DefaultDurationMinutes
}

// Interval returns the half-open [start, end) interval the appointment
// occupies on the calendar.
func (a *Appointment) Interval() (time.Time, time.Time) {
	start := a.ScheduledDate
	return start, start.Add(time.Duration(a.DurationMinutes()) * time.Minute)
}

type ReturnStatus string

const (
	ReturnScheduled   ReturnStatus = "scheduled"
	ReturnConfirmed   ReturnStatus = "confirmed"
	ReturnRescheduled ReturnStatus = "rescheduled"
	ReturnInProgress  ReturnStatus = "in_progress"
	ReturnCompleted   ReturnStatus = "completed"
	ReturnCancelled   ReturnStatus = "cancelled"
	ReturnNoShow      ReturnStatus = "no_show"
)

// AppointmentReturn is one automatically scheduled follow-up visit. It never
// outlives cancellation of its parent appointment.
type AppointmentReturn struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	TenantID      string
	ReturnNumber  int

	ScheduledDate         time.Time
	OriginalScheduledDate time.Time

	Status         ReturnStatus
	ProfessionalID *uuid.UUID
	Location       Location

	ConfirmedByPatient bool
	ConfirmedAt        *time.Time
	CheckedIn          bool
	CheckedInAt        *time.Time

	CancelledAt  *time.Time
	CancelledBy  *uuid.UUID
	CancelReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type NotificationType string

const (
	NotifyCreated               NotificationType = "appointment_created"
	NotifyPaymentLink           NotificationType = "payment_link"
	NotifyPaymentConfirmed      NotificationType = "payment_confirmed"
	NotifyAnamnesisSent         NotificationType = "anamnesis_sent"
	NotifyReminder1Day          NotificationType = "reminder_1_day"
	NotifyReminder5Hours        NotificationType = "reminder_5_hours"
	NotifyConfirmationRequested NotificationType = "confirmation_requested"
	NotifyConfirmationReceived  NotificationType = "confirmation_received"
	NotifyRescheduleConfirmed   NotificationType = "reschedule_confirmed"
	NotifyCancelled             NotificationType = "cancelled"
	NotifyReturnReminder        NotificationType = "return_reminder"
	NotifyReturnConfirmed       NotificationType = "return_confirmed"
	NotifyAttendanceCompleted   NotificationType = "attendance_completed"
)

type NotificationChannel string

const (
	ChannelWhatsApp NotificationChannel = "whatsapp"
	ChannelSMS      NotificationChannel = "sms"
	ChannelEmail    NotificationChannel = "email"
)

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSent      NotificationStatus = "sent"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationRead      NotificationStatus = "read"
	NotificationFailed    NotificationStatus = "failed"
	NotificationError     NotificationStatus = "error"
)

// NotificationRequest is an append-only record asking the delivery
// collaborator to send something. The engine never blocks on delivery;
// Status is updated later from the outside.
type NotificationRequest struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	ReturnID      *uuid.UUID
	TenantID      string
	Type          NotificationType
	Channel       NotificationChannel
	Status        NotificationStatus
	Recipient     string
	Message       string
	RetryCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ResourceFilter narrows availability queries to the contended scheduling
// dimension: a location, optionally a specific professional.
type ResourceFilter struct {
	Location       Location
	ProfessionalID *uuid.UUID
}
