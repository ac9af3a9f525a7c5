package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nexusclinic/clinic-scheduling/internal/scheduling"
)

func createAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		procedureID, err := uuid.Parse(req.ProcedureID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_procedure_id", "procedure_id must be a valid UUID")
			return
		}

		professionalID, ok := parseOptionalUUID(w, req.ProfessionalID, "professional_id")
		if !ok {
			return
		}
		createdByID, ok := parseOptionalUUID(w, req.CreatedByID, "created_by_id")
		if !ok {
			return
		}

		scheduledDate, err := time.Parse(time.RFC3339, req.ScheduledDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_date", "scheduled_date must be RFC 3339")
			return
		}

		appt, err := svc.Create(r.Context(), scheduling.CreateParams{
			TenantID:          TenantID(r.Context()),
			PatientID:         patientID,
			ProcedureID:       procedureID,
			ProfessionalID:    professionalID,
			CreatedByID:       createdByID,
			ScheduledDate:     scheduledDate,
			EstimatedDuration: req.EstimatedDuration,
			Location:          scheduling.Location(req.Location),
			PaymentAmount:     req.PaymentAmount,
			PaymentMethod:     req.PaymentMethod,
			HasReturn:         req.HasReturn,
			ReturnCount:       req.ReturnCount,
			ReturnFrequency:   req.ReturnFrequency,
			Notes:             req.Notes,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		detail, err := svc.GetAppointment(r.Context(), TenantID(r.Context()), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDetailResponse(detail))
	}
}

func listAppointmentsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := queryDate(w, r, "date")
		if !ok {
			return
		}

		appts, err := svc.ListByDay(r.Context(), TenantID(r.Context()), day)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func confirmPaymentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req ConfirmPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.ConfirmPayment(r.Context(), TenantID(r.Context()), id, req.PaymentProof, req.PaymentMethod)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func sendAnamnesisHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := svc.SendAnamnesisForm(r.Context(), TenantID(r.Context()), id); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func confirmByPatientHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req ConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		decision := scheduling.ConfirmDecision{Confirmed: req.Confirmed}
		if req.Reschedule != nil {
			newDate, err := time.Parse(time.RFC3339, req.Reschedule.NewDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_new_date", "reschedule.new_date must be RFC 3339")
				return
			}
			decision.Reschedule = &scheduling.RescheduleRequest{
				NewDate: newDate,
				Reason:  req.Reschedule.Reason,
			}
		}

		appt, err := svc.ConfirmByPatient(r.Context(), TenantID(r.Context()), id, decision)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func checkInHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req CheckInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		operatorID, err := uuid.Parse(req.OperatorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_operator_id", "operator_id must be a valid UUID")
			return
		}

		appt, err := svc.CheckIn(r.Context(), TenantID(r.Context()), id, operatorID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func startAttendanceHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		appt, err := svc.StartAttendance(r.Context(), TenantID(r.Context()), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func finalizeAttendanceHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req FinalizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.FinalizeAttendance(r.Context(), TenantID(r.Context()), id, scheduling.FinalizeParams{
			HasReturn:       req.HasReturn,
			ReturnCount:     req.ReturnCount,
			ReturnFrequency: req.ReturnFrequency,
			Notes:           req.Notes,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req CancelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		actorID, err := uuid.Parse(req.ActorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_actor_id", "actor_id must be a valid UUID")
			return
		}

		appt, err := svc.Cancel(r.Context(), TenantID(r.Context()), id, actorID, req.Reason)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func markNoShowHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		appt, err := svc.MarkNoShow(r.Context(), TenantID(r.Context()), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func checkAvailabilityHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		scheduledDate, err := time.Parse(time.RFC3339, q.Get("scheduled_date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_date", "scheduled_date must be RFC 3339")
			return
		}

		duration := 60
		if v := q.Get("duration"); v != "" {
			duration, err = strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_duration", "duration must be an integer")
				return
			}
		}

		filter, ok := queryFilter(w, q.Get("location"), q.Get("professional_id"))
		if !ok {
			return
		}

		excludeID := uuid.Nil
		if v := q.Get("exclude_id"); v != "" {
			excludeID, err = uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_exclude_id", "exclude_id must be a valid UUID")
				return
			}
		}

		result, err := svc.CheckSlot(r.Context(), TenantID(r.Context()), scheduledDate, duration, filter, excludeID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := AvailabilityResponse{
			Available: result.Available,
			Conflicts: make([]AppointmentResponse, 0, len(result.Conflicts)),
		}
		for i := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, toAppointmentResponse(&result.Conflicts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func occupiedSlotsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		day, ok := queryDate(w, r, "date")
		if !ok {
			return
		}
		filter, ok := queryFilter(w, q.Get("location"), q.Get("professional_id"))
		if !ok {
			return
		}
		interval, ok := queryInt(w, q.Get("interval"), scheduling.DefaultSlotInterval)
		if !ok {
			return
		}

		slots, err := svc.GetOccupiedSlots(r.Context(), TenantID(r.Context()), day, filter, interval)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, OccupiedSlotsResponse{
			Date:     day.Format("2006-01-02"),
			Location: string(filter.Location),
			Interval: interval,
			Slots:    slots,
		})
	}
}

func availableSlotsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		day, ok := queryDate(w, r, "date")
		if !ok {
			return
		}
		filter, ok := queryFilter(w, q.Get("location"), q.Get("professional_id"))
		if !ok {
			return
		}
		interval, ok := queryInt(w, q.Get("interval"), scheduling.DefaultSlotInterval)
		if !ok {
			return
		}
		startHour, ok := queryInt(w, q.Get("start_hour"), scheduling.DefaultStartHour)
		if !ok {
			return
		}
		endHour, ok := queryInt(w, q.Get("end_hour"), scheduling.DefaultEndHour)
		if !ok {
			return
		}

		slots, err := svc.GetAvailableSlots(r.Context(), TenantID(r.Context()), day, filter, startHour, endHour, interval)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailableSlotsResponse{
			Date:     day.Format("2006-01-02"),
			Location: string(filter.Location),
			Interval: interval,
			Slots:    slots,
		})
	}
}

// -- parsing helpers --

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalUUID(w http.ResponseWriter, s *string, field string) (*uuid.UUID, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+field, field+" must be a valid UUID")
		return nil, false
	}
	return &id, true
}

func queryDate(w http.ResponseWriter, r *http.Request, param string) (time.Time, bool) {
	day, err := time.Parse("2006-01-02", r.URL.Query().Get(param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+param, param+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

func queryInt(w http.ResponseWriter, raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query_param", "expected an integer, got "+raw)
		return 0, false
	}
	return n, true
}

func queryFilter(w http.ResponseWriter, location, professionalID string) (scheduling.ResourceFilter, bool) {
	filter := scheduling.ResourceFilter{Location: scheduling.Location(location)}
	if professionalID != "" {
		id, err := uuid.Parse(professionalID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", "professional_id must be a valid UUID")
			return filter, false
		}
		filter.ProfessionalID = &id
	}
	return filter, true
}
