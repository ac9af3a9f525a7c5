package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexusclinic/clinic-scheduling/internal/scheduling"
)

type CreateAppointmentRequest struct {
	PatientID         string   `json:"patient_id"`
	ProcedureID       string   `json:"procedure_id"`
	ProfessionalID    *string  `json:"professional_id,omitempty"`
	CreatedByID       *string  `json:"created_by_id,omitempty"`
	ScheduledDate     string   `json:"scheduled_date"` // RFC 3339
	EstimatedDuration *int     `json:"estimated_duration,omitempty"`
	Location          string   `json:"location"`
	PaymentAmount     *float64 `json:"payment_amount,omitempty"`
	PaymentMethod     *string  `json:"payment_method,omitempty"`
	HasReturn         bool     `json:"has_return"`
	ReturnCount       *int     `json:"return_count,omitempty"`
	ReturnFrequency   *int     `json:"return_frequency,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
}

type ConfirmPaymentRequest struct {
	PaymentProof  string `json:"payment_proof"`
	PaymentMethod string `json:"payment_method"`
}

type ConfirmRequest struct {
	Confirmed  bool               `json:"confirmed"`
	Reschedule *RescheduleRequest `json:"reschedule,omitempty"`
}

type RescheduleRequest struct {
	NewDate string `json:"new_date"` // RFC 3339
	Reason  string `json:"reason,omitempty"`
}

type CheckInRequest struct {
	OperatorID string `json:"operator_id"`
}

type FinalizeRequest struct {
	HasReturn       *bool   `json:"has_return,omitempty"`
	ReturnCount     *int    `json:"return_count,omitempty"`
	ReturnFrequency *int    `json:"return_frequency,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

type CancelRequest struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason"`
}

type AppointmentResponse struct {
	ID                 uuid.UUID  `json:"id"`
	TenantID           string     `json:"tenant_id"`
	PatientID          uuid.UUID  `json:"patient_id"`
	ProcedureID        uuid.UUID  `json:"procedure_id"`
	ProfessionalID     *uuid.UUID `json:"professional_id,omitempty"`
	ScheduledDate      time.Time  `json:"scheduled_date"`
	EstimatedDuration  *int       `json:"estimated_duration,omitempty"`
	EffectiveDuration  int        `json:"effective_duration"`
	Location           string     `json:"location"`
	Status             string     `json:"status"`
	PaymentStatus      string     `json:"payment_status"`
	AnamnesisStatus    string     `json:"anamnesis_status"`
	ConfirmedByPatient bool       `json:"confirmed_by_patient"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CheckedIn          bool       `json:"checked_in"`
	CheckedInAt        *time.Time `json:"checked_in_at,omitempty"`
	HasReturn          bool       `json:"has_return"`
	ReturnCount        *int       `json:"return_count,omitempty"`
	ReturnFrequency    *int       `json:"return_frequency,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelReason       *string    `json:"cancel_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                 a.ID,
		TenantID:           a.TenantID,
		PatientID:          a.PatientID,
		ProcedureID:        a.ProcedureID,
		ProfessionalID:     a.ProfessionalID,
		ScheduledDate:      a.ScheduledDate,
		EstimatedDuration:  a.EstimatedDuration,
		EffectiveDuration:  a.DurationMinutes(),
		Location:           string(a.Location),
		Status:             string(a.Status),
		PaymentStatus:      string(a.PaymentStatus),
		AnamnesisStatus:    string(a.AnamnesisStatus),
		ConfirmedByPatient: a.ConfirmedByPatient,
		ConfirmedAt:        a.ConfirmedAt,
		CheckedIn:          a.CheckedIn,
		CheckedInAt:        a.CheckedInAt,
		HasReturn:          a.HasReturn,
		ReturnCount:        a.ReturnCount,
		ReturnFrequency:    a.ReturnFrequency,
		Notes:              a.Notes,
		CancelledAt:        a.CancelledAt,
		CancelReason:       a.CancelReason,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

type ReturnResponse struct {
	ID            uuid.UUID  `json:"id"`
	ReturnNumber  int        `json:"return_number"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	Status        string     `json:"status"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	Returns       []ReturnResponse       `json:"returns"`
	Notifications []NotificationResponse `json:"notifications"`
}

type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func toDetailResponse(d *scheduling.AppointmentDetail) AppointmentDetailResponse {
	resp := AppointmentDetailResponse{
		AppointmentResponse: toAppointmentResponse(&d.Appointment),
		Returns:             make([]ReturnResponse, 0, len(d.Returns)),
		Notifications:       make([]NotificationResponse, 0, len(d.Notifications)),
	}
	for _, r := range d.Returns {
		resp.Returns = append(resp.Returns, ReturnResponse{
			ID:            r.ID,
			ReturnNumber:  r.ReturnNumber,
			ScheduledDate: r.ScheduledDate,
			Status:        string(r.Status),
			CancelledAt:   r.CancelledAt,
		})
	}
	for _, n := range d.Notifications {
		resp.Notifications = append(resp.Notifications, NotificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			Channel:   string(n.Channel),
			Status:    string(n.Status),
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
		})
	}
	return resp
}

type AvailabilityResponse struct {
	Available bool                  `json:"available"`
	Conflicts []AppointmentResponse `json:"conflicts"`
}

type OccupiedSlotsResponse struct {
	Date     string   `json:"date"`
	Location string   `json:"location"`
	Interval int      `json:"interval"`
	Slots    []string `json:"slots"`
}

type AvailableSlotsResponse struct {
	Date     string                        `json:"date"`
	Location string                        `json:"location"`
	Interval int                           `json:"interval"`
	Slots    []scheduling.SlotAvailability `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
