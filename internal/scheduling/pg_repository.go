package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. Satisfied by
// *pgxpool.Pool and by pgxmock in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

const appointmentColumns = `
	a.id, a.tenant_id, a.patient_id, a.procedure_id, a.professional_id, a.created_by_id,
	a.scheduled_date, a.estimated_duration, a.location,
	a.status, a.payment_status, a.payment_proof, a.payment_amount, a.payment_method,
	a.anamnesis_status, a.anamnesis_sent_at, a.anamnesis_completed_at, a.anamnesis_signed_at,
	a.confirmed_by_patient, a.confirmed_at,
	a.reminder_1day_sent, a.reminder_5h_sent,
	a.checked_in, a.checked_in_at, a.checked_in_by,
	a.attendance_started_at, a.attendance_ended_at,
	a.has_return, a.return_count, a.return_frequency,
	a.notes, a.cancelled_at, a.cancelled_by, a.cancel_reason,
	a.created_at, a.updated_at,
	p.default_duration`

const appointmentFrom = `
	FROM appointments a
	JOIN procedures p ON p.id = a.procedure_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID, &a.TenantID, &a.PatientID, &a.ProcedureID, &a.ProfessionalID, &a.CreatedByID,
		&a.ScheduledDate, &a.EstimatedDuration, &a.Location,
		&a.Status, &a.PaymentStatus, &a.PaymentProof, &a.PaymentAmount, &a.PaymentMethod,
		&a.AnamnesisStatus, &a.AnamnesisSentAt, &a.AnamnesisCompletedAt, &a.AnamnesisSignedAt,
		&a.ConfirmedByPatient, &a.ConfirmedAt,
		&a.Reminder1DaySent, &a.Reminder5HoursSent,
		&a.CheckedIn, &a.CheckedInAt, &a.CheckedInBy,
		&a.AttendanceStartedAt, &a.AttendanceEndedAt,
		&a.HasReturn, &a.ReturnCount, &a.ReturnFrequency,
		&a.Notes, &a.CancelledAt, &a.CancelledBy, &a.CancelReason,
		&a.CreatedAt, &a.UpdatedAt,
		&a.ProcedureDuration,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *appt)
	}
	return appts, rows.Err()
}

func scanReturn(row pgx.Row) (*AppointmentReturn, error) {
	var r AppointmentReturn

	err := row.Scan(
		&r.ID, &r.AppointmentID, &r.TenantID, &r.ReturnNumber,
		&r.ScheduledDate, &r.OriginalScheduledDate,
		&r.Status, &r.ProfessionalID, &r.Location,
		&r.ConfirmedByPatient, &r.ConfirmedAt,
		&r.CheckedIn, &r.CheckedInAt,
		&r.CancelledAt, &r.CancelledBy, &r.CancelReason,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (r *PgRepository) GetProcedureByID(ctx context.Context, tenantID string, id uuid.UUID) (*Procedure, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, default_duration, created_at, updated_at
		FROM procedures
		WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)

	var p Procedure
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.DefaultDuration, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO appointments (
			id, tenant_id, patient_id, procedure_id, professional_id, created_by_id,
			scheduled_date, estimated_duration, location,
			status, payment_status, payment_amount, payment_method,
			anamnesis_status, has_return, return_count, return_frequency, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		appt.ID, appt.TenantID, appt.PatientID, appt.ProcedureID, appt.ProfessionalID, appt.CreatedByID,
		appt.ScheduledDate, appt.EstimatedDuration, appt.Location,
		appt.Status, appt.PaymentStatus, appt.PaymentAmount, appt.PaymentMethod,
		appt.AnamnesisStatus, appt.HasReturn, appt.ReturnCount, appt.ReturnFrequency, appt.Notes,
		appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return appt, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, tenantID string, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT`+appointmentColumns+appointmentFrom+`
		WHERE a.id = $1 AND a.tenant_id = $2`,
		id, tenantID,
	)
	return scanAppointment(row)
}

const updateAppointmentSQL = `
	UPDATE appointments SET
		scheduled_date = $4, estimated_duration = $5, location = $6,
		status = $7, payment_status = $8, payment_proof = $9, payment_amount = $10, payment_method = $11,
		anamnesis_status = $12, anamnesis_sent_at = $13, anamnesis_completed_at = $14, anamnesis_signed_at = $15,
		confirmed_by_patient = $16, confirmed_at = $17,
		checked_in = $18, checked_in_at = $19, checked_in_by = $20,
		attendance_started_at = $21, attendance_ended_at = $22,
		has_return = $23, return_count = $24, return_frequency = $25,
		notes = $26, cancelled_at = $27, cancelled_by = $28, cancel_reason = $29,
		updated_at = $30
	WHERE id = $1 AND tenant_id = $2 AND status = $3`

func updateArgs(appt *Appointment, expected AppointmentStatus) []any {
	return []any{
		appt.ID, appt.TenantID, expected,
		appt.ScheduledDate, appt.EstimatedDuration, appt.Location,
		appt.Status, appt.PaymentStatus, appt.PaymentProof, appt.PaymentAmount, appt.PaymentMethod,
		appt.AnamnesisStatus, appt.AnamnesisSentAt, appt.AnamnesisCompletedAt, appt.AnamnesisSignedAt,
		appt.ConfirmedByPatient, appt.ConfirmedAt,
		appt.CheckedIn, appt.CheckedInAt, appt.CheckedInBy,
		appt.AttendanceStartedAt, appt.AttendanceEndedAt,
		appt.HasReturn, appt.ReturnCount, appt.ReturnFrequency,
		appt.Notes, appt.CancelledAt, appt.CancelledBy, appt.CancelReason,
		appt.UpdatedAt,
	}
}

// UpdateAppointment is the lost-update guard: the write only lands if the
// stored status still equals expected. A zero-row update on an existing
// appointment means a concurrent transition won.
func (r *PgRepository) UpdateAppointment(ctx context.Context, appt *Appointment, expected AppointmentStatus) (*Appointment, error) {
	tag, err := r.db.Exec(ctx, updateAppointmentSQL, updateArgs(appt, expected)...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, r.casFailure(ctx, appt.TenantID, appt.ID)
	}
	return appt, nil
}

func (r *PgRepository) casFailure(ctx context.Context, tenantID string, id uuid.UUID) error {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1 AND tenant_id = $2)`,
		id, tenantID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return fmt.Errorf("%w: appointment %s changed concurrently", ErrConflict, id)
}

func (r *PgRepository) FindByResourceAndWindow(ctx context.Context, tenantID string, filter ResourceFilter, from, to time.Time) ([]Appointment, error) {
	var profID *uuid.UUID
	if filter.ProfessionalID != nil {
		profID = filter.ProfessionalID
	}

	rows, err := r.db.Query(ctx,
		`SELECT`+appointmentColumns+appointmentFrom+`
		WHERE a.tenant_id = $1
		  AND a.location = $2
		  AND ($3::uuid IS NULL OR a.professional_id = $3)
		  AND a.scheduled_date >= $4 AND a.scheduled_date < $5
		  AND a.status = ANY($6)
		ORDER BY a.scheduled_date ASC`,
		tenantID, filter.Location, profID, from, to, OccupyingStatuses,
	)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) ListByDay(ctx context.Context, tenantID string, day time.Time) ([]Appointment, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	rows, err := r.db.Query(ctx,
		`SELECT`+appointmentColumns+appointmentFrom+`
		WHERE a.tenant_id = $1
		  AND a.scheduled_date >= $2 AND a.scheduled_date < $3
		ORDER BY a.scheduled_date ASC`,
		tenantID, from, to,
	)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) CompleteAppointment(ctx context.Context, appt *Appointment, expected AppointmentStatus, returns []AppointmentReturn) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, updateAppointmentSQL, updateArgs(appt, expected)...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, r.casFailure(ctx, appt.TenantID, appt.ID)
	}

	for i := range returns {
		ret := &returns[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO appointment_returns (
				id, appointment_id, tenant_id, return_number,
				scheduled_date, original_scheduled_date,
				status, professional_id, location,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			ret.ID, ret.AppointmentID, ret.TenantID, ret.ReturnNumber,
			ret.ScheduledDate, ret.OriginalScheduledDate,
			ret.Status, ret.ProfessionalID, ret.Location,
			ret.CreatedAt, ret.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert return %d: %w", ret.ReturnNumber, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return appt, nil
}

func (r *PgRepository) CancelAppointment(ctx context.Context, appt *Appointment, expected AppointmentStatus) (*Appointment, int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, updateAppointmentSQL, updateArgs(appt, expected)...)
	if err != nil {
		return nil, 0, err
	}
	if tag.RowsAffected() == 0 {
		return nil, 0, r.casFailure(ctx, appt.TenantID, appt.ID)
	}

	// Completed returns stay untouched; everything else cascades.
	retTag, err := tx.Exec(ctx, `
		UPDATE appointment_returns SET
			status = $2, cancelled_at = $3, cancelled_by = $4, cancel_reason = $5, updated_at = $3
		WHERE appointment_id = $1
		  AND status NOT IN ($6, $7)`,
		appt.ID, ReturnCancelled, appt.CancelledAt, appt.CancelledBy,
		"parent appointment cancelled", ReturnCompleted, ReturnCancelled,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("cascade-cancel returns: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return appt, retTag.RowsAffected(), nil
}

func (r *PgRepository) ListReturnsByAppointment(ctx context.Context, tenantID string, appointmentID uuid.UUID) ([]AppointmentReturn, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, appointment_id, tenant_id, return_number,
		       scheduled_date, original_scheduled_date,
		       status, professional_id, location,
		       confirmed_by_patient, confirmed_at,
		       checked_in, checked_in_at,
		       cancelled_at, cancelled_by, cancel_reason,
		       created_at, updated_at
		FROM appointment_returns
		WHERE appointment_id = $1 AND tenant_id = $2
		ORDER BY return_number ASC`,
		appointmentID, tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var returns []AppointmentReturn
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		returns = append(returns, *ret)
	}
	return returns, rows.Err()
}

func (r *PgRepository) InsertNotification(ctx context.Context, n *NotificationRequest) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO appointment_notifications (
			id, appointment_id, return_id, tenant_id,
			type, channel, status, recipient, message, retry_count,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		n.ID, n.AppointmentID, n.ReturnID, n.TenantID,
		n.Type, n.Channel, n.Status, n.Recipient, n.Message, n.RetryCount,
		n.CreatedAt, n.UpdatedAt,
	)
	return err
}

func (r *PgRepository) ListNotificationsByAppointment(ctx context.Context, tenantID string, appointmentID uuid.UUID) ([]NotificationRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, appointment_id, return_id, tenant_id,
		       type, channel, status, recipient, message, retry_count,
		       created_at, updated_at
		FROM appointment_notifications
		WHERE appointment_id = $1 AND tenant_id = $2
		ORDER BY created_at ASC`,
		appointmentID, tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []NotificationRequest
	for rows.Next() {
		var n NotificationRequest
		err := rows.Scan(
			&n.ID, &n.AppointmentID, &n.ReturnID, &n.TenantID,
			&n.Type, &n.Channel, &n.Status, &n.Recipient, &n.Message, &n.RetryCount,
			&n.CreatedAt, &n.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *PgRepository) FindNeedingReminders(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT`+appointmentColumns+appointmentFrom+`
		WHERE a.status = ANY($1)
		  AND a.scheduled_date >= $2
		  AND a.scheduled_date <= $3
		  AND (a.reminder_1day_sent = FALSE
		       OR (a.reminder_5h_sent = FALSE AND a.scheduled_date <= $4))
		ORDER BY a.scheduled_date ASC`,
		[]AppointmentStatus{StatusAwaitingConfirmation, StatusConfirmed},
		now, now.Add(24*time.Hour), now.Add(5*time.Hour),
	)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) MarkReminderSent(ctx context.Context, tenantID string, id uuid.UUID, kind ReminderKind) (bool, error) {
	column := "reminder_1day_sent"
	if kind == Reminder5Hours {
		column = "reminder_5h_sent"
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE appointments SET `+column+` = TRUE, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND `+column+` = FALSE`,
		id, tenantID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
