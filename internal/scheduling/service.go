package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/nexusclinic/clinic-scheduling/internal/redis"
)

// Service owns the appointment state machine. It loads the aggregate,
// validates the transition, persists it, then fires notification and
// domain-event side effects. Collaborators are injected at construction.
type Service struct {
	repo     Repository
	locker   redisclient.Locker
	notifier Notifier
	events   EventPublisher
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, notifier Notifier, events EventPublisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

type CreateParams struct {
	TenantID          string
	PatientID         uuid.UUID
	ProcedureID       uuid.UUID
	ProfessionalID    *uuid.UUID
	CreatedByID       *uuid.UUID
	ScheduledDate     time.Time
	EstimatedDuration *int
	Location          Location
	PaymentAmount     *float64
	PaymentMethod     *string
	HasReturn         bool
	ReturnCount       *int
	ReturnFrequency   *int
	Notes             *string
}

func (p CreateParams) validate() error {
	if p.TenantID == "" {
		return fmt.Errorf("%w: tenant_id is required", ErrValidation)
	}
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("%w: patient_id is required", ErrValidation)
	}
	if p.ProcedureID == uuid.Nil {
		return fmt.Errorf("%w: procedure_id is required", ErrValidation)
	}
	if p.ScheduledDate.IsZero() {
		return fmt.Errorf("%w: scheduled_date is required", ErrValidation)
	}
	if !ValidLocation(p.Location) {
		return fmt.Errorf("%w: unknown location %q", ErrValidation, p.Location)
	}
	if p.EstimatedDuration != nil && *p.EstimatedDuration <= 0 {
		return fmt.Errorf("%w: estimated_duration must be positive", ErrValidation)
	}
	if p.ReturnCount != nil && *p.ReturnCount < 0 {
		return fmt.Errorf("%w: return_count must not be negative", ErrValidation)
	}
	if p.ReturnFrequency != nil && *p.ReturnFrequency <= 0 {
		return fmt.Errorf("%w: return_frequency must be positive", ErrValidation)
	}
	return nil
}

// Create reserves a time slot and opens the appointment in awaiting_payment.
// The conflict check and the insert run inside a per-resource advisory lock
// so two concurrent creates for the same resource cannot both pass the
// check. If the lock cannot be acquired the caller gets a retryable
// conflict. Should the lock backend itself be down, the check still runs,
// best effort, and the race window is the persistence layer's to close.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Appointment, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	proc, err := s.repo.GetProcedureByID(ctx, p.TenantID, p.ProcedureID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: procedure %s", ErrNotFound, p.ProcedureID)
		}
		return nil, fmt.Errorf("load procedure: %w", err)
	}

	now := s.now()
	appt := &Appointment{
		ID:                uuid.New(),
		TenantID:          p.TenantID,
		PatientID:         p.PatientID,
		ProcedureID:       p.ProcedureID,
		ProfessionalID:    p.ProfessionalID,
		CreatedByID:       p.CreatedByID,
		ScheduledDate:     p.ScheduledDate,
		EstimatedDuration: p.EstimatedDuration,
		Location:          p.Location,
		Status:            StatusAwaitingPayment,
		PaymentStatus:     PaymentPending,
		PaymentAmount:     p.PaymentAmount,
		PaymentMethod:     p.PaymentMethod,
		AnamnesisStatus:   AnamnesisPending,
		HasReturn:         p.HasReturn,
		ReturnCount:       p.ReturnCount,
		ReturnFrequency:   p.ReturnFrequency,
		Notes:             p.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
		ProcedureDuration: proc.DefaultDuration,
	}

	filter := ResourceFilter{Location: p.Location, ProfessionalID: p.ProfessionalID}
	lockKey := resourceLockKey(p.TenantID, filter, p.ScheduledDate)

	var created *Appointment
	err = s.locker.WithLock(ctx, lockKey, func(lockCtx context.Context) error {
		from, to := dayWindow(p.ScheduledDate)
		existing, err := s.repo.FindByResourceAndWindow(lockCtx, p.TenantID, filter, from, to)
		if err != nil {
			return fmt.Errorf("load existing appointments: %w", err)
		}

		if conflicts := DetectConflicts(p.ScheduledDate, appt.DurationMinutes(), existing, uuid.Nil); len(conflicts) > 0 {
			return fmt.Errorf("%w: time slot overlaps %d appointment(s)", ErrConflict, len(conflicts))
		}

		created, err = s.repo.CreateAppointment(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, fmt.Errorf("%w: resource is being booked, retry shortly", ErrConflict)
		}
		return nil, err
	}

	s.runPostCommit(ctx, created,
		s.notificationHook(created, NotifyCreated),
		s.notificationHook(created, NotifyPaymentLink),
		s.eventHook(created, EventAppointmentScheduled, map[string]any{
			"scheduled_date": created.ScheduledDate,
			"location":       string(created.Location),
		}),
	)
	return created, nil
}

// ConfirmPayment marks the appointment paid and moves it to
// awaiting_confirmation. The intake form is sent automatically afterwards;
// its failure does not undo the payment.
func (s *Service) ConfirmPayment(ctx context.Context, tenantID string, id uuid.UUID, paymentProof, paymentMethod string) (*Appointment, error) {
	appt, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusAwaitingPayment {
		return nil, transitionError("confirm_payment", appt.Status)
	}

	prev := appt.Status
	now := s.now()
	appt.Status = StatusAwaitingConfirmation
	appt.PaymentStatus = PaymentPaid
	appt.PaymentProof = &paymentProof
	appt.PaymentMethod = &paymentMethod
	appt.UpdatedAt = now

	saved, err := s.repo.UpdateAppointment(ctx, appt, prev)
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	s.runPostCommit(ctx, saved,
		s.notificationHook(saved, NotifyPaymentConfirmed),
		s.notificationHook(saved, NotifyConfirmationRequested),
		hook{"send_anamnesis_form", func(hctx context.Context) error {
			return s.SendAnamnesisForm(hctx, tenantID, id)
		}},
	)
	return saved, nil
}

// SendAnamnesisForm marks the intake form as sent and asks for its delivery.
func (s *Service) SendAnamnesisForm(ctx context.Context, tenantID string, id uuid.UUID) error {
	appt, err := s.load(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if appt.Status.IsTerminal() {
		return transitionError("send_anamnesis_form", appt.Status)
	}

	now := s.now()
	appt.AnamnesisStatus = AnamnesisSent
	appt.AnamnesisSentAt = &now
	appt.UpdatedAt = now

	saved, err := s.repo.UpdateAppointment(ctx, appt, appt.Status)
	if err != nil {
		return fmt.Errorf("send anamnesis form: %w", err)
	}

	s.runPostCommit(ctx, saved, s.notificationHook(saved, NotifyAnamnesisSent))
	return nil
}

type ConfirmDecision struct {
	Confirmed  bool
	Reschedule *RescheduleRequest
}

type RescheduleRequest struct {
	NewDate time.Time
	Reason  string
}

// ConfirmByPatient records the patient's answer to the confirmation request:
// either a confirmation or a reschedule to a new date. A rescheduled
// appointment loops back here: confirming it returns it to confirmed and it
// occupies its new slot again.
func (s *Service) ConfirmByPatient(ctx context.Context, tenantID string, id uuid.UUID, decision ConfirmDecision) (*Appointment, error) {
	appt, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	switch appt.Status {
	case StatusAwaitingConfirmation, StatusConfirmed, StatusRescheduled:
	default:
		return nil, transitionError("confirm_by_patient", appt.Status)
	}

	prev := appt.Status
	now := s.now()

	switch {
	case decision.Confirmed:
		appt.Status = StatusConfirmed
		appt.ConfirmedByPatient = true
		appt.ConfirmedAt = &now
		appt.UpdatedAt = now

		saved, err := s.repo.UpdateAppointment(ctx, appt, prev)
		if err != nil {
			return nil, fmt.Errorf("confirm by patient: %w", err)
		}

		s.runPostCommit(ctx, saved,
			s.notificationHook(saved, NotifyConfirmationReceived),
			s.eventHook(saved, EventAppointmentConfirmed, nil),
		)
		return saved, nil

	case decision.Reschedule != nil:
		if decision.Reschedule.NewDate.IsZero() {
			return nil, fmt.Errorf("%w: reschedule date is required", ErrValidation)
		}
		appt.Status = StatusRescheduled
		appt.ScheduledDate = decision.Reschedule.NewDate
		appt.UpdatedAt = now

		saved, err := s.repo.UpdateAppointment(ctx, appt, prev)
		if err != nil {
			return nil, fmt.Errorf("reschedule: %w", err)
		}

		s.runPostCommit(ctx, saved,
			s.notificationHook(saved, NotifyRescheduleConfirmed),
			s.eventHook(saved, EventAppointmentRescheduled, map[string]any{
				"new_date": saved.ScheduledDate,
			}),
		)
		return saved, nil

	default:
		return nil, fmt.Errorf("%w: either confirmed or reschedule must be set", ErrValidation)
	}
}

// CheckIn records the patient's arrival. The primary status is unchanged.
func (s *Service) CheckIn(ctx context.Context, tenantID string, id, operatorID uuid.UUID) (*Appointment, error) {
	appt, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.IsTerminal() {
		return nil, transitionError("check_in", appt.Status)
	}

	now := s.now()
	appt.CheckedIn = true
	appt.CheckedInAt = &now
	appt.CheckedInBy = &operatorID
	appt.UpdatedAt = now

	saved, err := s.repo.UpdateAppointment(ctx, appt, appt.Status)
	if err != nil {
		return nil, fmt.Errorf("check in: %w", err)
	}
	return saved, nil
}

// StartAttendance moves a confirmed or rescheduled appointment into
// in_progress.
func (s *Service) StartAttendance(ctx context.Context, tenantID string, id uuid.UUID) (*Appointment, error) {
	appt, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusConfirmed && appt.Status != StatusRescheduled {
		return nil, transitionError("start_attendance", appt.Status)
	}

	prev := appt.Status
	now := s.now()
	appt.Status = StatusInProgress
	appt.AttendanceStartedAt = &now
	appt.UpdatedAt = now

	saved, err := s.repo.UpdateAppointment(ctx, appt, prev)
	if err != nil {
		return nil, fmt.Errorf("start attendance: %w", err)
	}
	return saved, nil
}

type FinalizeParams struct {
	HasReturn       *bool
	ReturnCount     *int
	ReturnFrequency *int
	Notes           *string
}

// FinalizeAttendance completes an in-progress appointment. When the return
// policy asks for follow-ups they are generated and persisted in the same
// transaction as the status write, so a failure leaves nothing partially
// applied.
func (s *Service) FinalizeAttendance(ctx context.Context, tenantID string, id uuid.UUID, p FinalizeParams) (*Appointment, error) {
	if p.ReturnCount != nil && *p.ReturnCount < 0 {
		return nil, fmt.Errorf("%w: return_count must not be negative", ErrValidation)
	}
	if p.ReturnFrequency != nil && *p.ReturnFrequency <= 0 {
		return nil, fmt.Errorf("%w: return_frequency must be positive", ErrValidation)
	}

	appt, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusInProgress {
		return nil, transitionError("finalize_attendance", appt.Status)
	}

	prev := appt.Status
	now := s.now()
	appt.Status = StatusCompleted
	appt.AttendanceEndedAt = &now
	if p.HasReturn != nil {
		appt.HasReturn = *p.HasReturn
	}
	if p.ReturnCount != nil {
		appt.ReturnCount = p.ReturnCount
	}
	if p.ReturnFrequency != nil {
		appt.ReturnFrequency = p.ReturnFrequency
	}
	if p.Notes != nil {
		appt.Notes = p.Notes
	}
	appt.UpdatedAt = now

	var returns []AppointmentReturn
	if appt.HasReturn && appt.ReturnCount != nil && appt.ReturnFrequency != nil {
		returns = BuildReturns(appt, *appt.ReturnCount, *appt.ReturnFrequency, now)
	}

	saved, err := s.repo.CompleteAppointment(ctx, appt, prev, returns)
	if err != nil {
		return nil, fmt.Errorf("finalize attendance: %w", err)
	}

	s.runPostCommit(ctx, saved,
		s.notificationHook(saved, NotifyAttendanceCompleted),
		s.eventHook(saved, EventAppointmentCompleted, map[string]any{
			"returns_created": len(returns),
		}),
	)
	return saved, nil
}

// Cancel is available on any non-terminal appointment regardless of its
// payment, anamnesis or confirmation sub-state. Non-completed returns are
// cancelled in the same transaction.
func (s *Service) Cancel(ctx context.Context, tenantID string, id, actorID uuid.UUID, reason string) (*Appointment, error) {
	appt, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.IsTerminal() {
		return nil, transitionError("cancel", appt.Status)
	}

	prev := appt.Status
	now := s.now()
	appt.Status = StatusCancelled
	appt.CancelledAt = &now
	appt.CancelledBy = &actorID
	appt.CancelReason = &reason
	appt.UpdatedAt = now

	saved, cancelled, err := s.repo.CancelAppointment(ctx, appt, prev)
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	if cancelled > 0 {
		s.logger.Info().
			Str("appointment_id", id.String()).
			Int64("returns_cancelled", cancelled).
			Msg("cascade-cancelled returns")
	}

	s.runPostCommit(ctx, saved,
		s.notificationHook(saved, NotifyCancelled),
		s.eventHook(saved, EventAppointmentCancelled, map[string]any{
			"reason":            reason,
			"returns_cancelled": cancelled,
		}),
	)
	return saved, nil
}

// MarkNoShow closes an appointment whose patient never arrived.
func (s *Service) MarkNoShow(ctx context.Context, tenantID string, id uuid.UUID) (*Appointment, error) {
	appt, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	switch appt.Status {
	case StatusAwaitingConfirmation, StatusConfirmed, StatusRescheduled:
	default:
		return nil, transitionError("mark_no_show", appt.Status)
	}

	prev := appt.Status
	now := s.now()
	appt.Status = StatusNoShow
	appt.UpdatedAt = now

	saved, err := s.repo.UpdateAppointment(ctx, appt, prev)
	if err != nil {
		return nil, fmt.Errorf("mark no-show: %w", err)
	}

	s.runPostCommit(ctx, saved, s.eventHook(saved, EventAppointmentNoShow, nil))
	return saved, nil
}

// AppointmentDetail is an appointment hydrated with its owned records.
type AppointmentDetail struct {
	Appointment
	Returns       []AppointmentReturn
	Notifications []NotificationRequest
}

func (s *Service) GetAppointment(ctx context.Context, tenantID string, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	returns, err := s.repo.ListReturnsByAppointment(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	notifications, err := s.repo.ListNotificationsByAppointment(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return &AppointmentDetail{
		Appointment:   *appt,
		Returns:       returns,
		Notifications: notifications,
	}, nil
}

func (s *Service) ListByDay(ctx context.Context, tenantID string, day time.Time) ([]Appointment, error) {
	appts, err := s.repo.ListByDay(ctx, tenantID, day)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

func (s *Service) load(ctx context.Context, tenantID string, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return appt, nil
}

func transitionError(op string, from AppointmentStatus) error {
	return fmt.Errorf("%w: %s not allowed from status %s", ErrInvalidTransition, op, from)
}

// dayWindow returns the [00:00, 24:00) window of the mark's calendar day, in
// the mark's own location.
func dayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func resourceLockKey(tenantID string, filter ResourceFilter, date time.Time) string {
	prof := "any"
	if filter.ProfessionalID != nil {
		prof = filter.ProfessionalID.String()
	}
	return fmt.Sprintf("lock:agenda:%s:%s:%s:%s", tenantID, filter.Location, prof, date.Format("2006-01-02"))
}

// -- post-commit side effects --

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

// runPostCommit executes side-effect hooks after the transactional write has
// returned. Each failure is caught and logged individually so one failing
// hook cannot suppress another, and none can fail the committed transition.
func (s *Service) runPostCommit(ctx context.Context, appt *Appointment, hooks ...hook) {
	for _, h := range hooks {
		if err := h.fn(ctx); err != nil {
			s.logger.Error().
				Err(err).
				Str("hook", h.name).
				Str("appointment_id", appt.ID.String()).
				Str("tenant_id", appt.TenantID).
				Msg("post-commit hook failed")
		}
	}
}

func (s *Service) notificationHook(appt *Appointment, t NotificationType) hook {
	return hook{string(t), func(ctx context.Context) error {
		n := buildNotification(appt, t, s.now())
		if err := s.repo.InsertNotification(ctx, &n); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		if err := s.notifier.Enqueue(ctx, n); err != nil {
			return fmt.Errorf("enqueue notification: %w", err)
		}
		return nil
	}}
}

func (s *Service) eventHook(appt *Appointment, eventType string, payload map[string]any) hook {
	return hook{eventType, func(ctx context.Context) error {
		if payload == nil {
			payload = map[string]any{}
		}
		payload["status"] = string(appt.Status)
		return s.events.Publish(ctx, eventType, appt.TenantID, appt.ID, payload)
	}}
}
