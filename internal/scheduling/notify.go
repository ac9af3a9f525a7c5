package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notifier hands a notification request to the delivery collaborator.
// Delivery itself and its retry policy live outside the engine.
type Notifier interface {
	Enqueue(ctx context.Context, n NotificationRequest) error
}

// NopNotifier drops every request. Useful in workers and tests that do not
// care about delivery.
type NopNotifier struct{}

func (NopNotifier) Enqueue(ctx context.Context, n NotificationRequest) error { return nil }

func notificationMessage(t NotificationType, appt *Appointment) string {
	when := appt.ScheduledDate.Format("02/01/2006 15:04")
	switch t {
	case NotifyCreated:
		return fmt.Sprintf("Appointment scheduled for %s at %s", when, appt.Location)
	case NotifyPaymentLink:
		return fmt.Sprintf("Complete your booking: payment pending for your appointment on %s", when)
	case NotifyPaymentConfirmed:
		return "Payment confirmed, your appointment is reserved"
	case NotifyConfirmationRequested:
		return fmt.Sprintf("Please confirm your appointment on %s", when)
	case NotifyAnamnesisSent:
		return "Your intake form is ready, please fill it before your visit"
	case NotifyConfirmationReceived:
		return "Patient confirmed the appointment"
	case NotifyRescheduleConfirmed:
		return fmt.Sprintf("Appointment rescheduled to %s", when)
	case NotifyReminder1Day:
		return fmt.Sprintf("Reminder: your appointment is tomorrow at %s", appt.ScheduledDate.Format("15:04"))
	case NotifyReminder5Hours:
		return fmt.Sprintf("Reminder: your appointment is today at %s", appt.ScheduledDate.Format("15:04"))
	case NotifyAttendanceCompleted:
		return "Thank you for your visit"
	case NotifyCancelled:
		reason := ""
		if appt.CancelReason != nil {
			reason = ": " + *appt.CancelReason
		}
		return "Appointment cancelled" + reason
	default:
		return string(t)
	}
}

func buildNotification(appt *Appointment, t NotificationType, now time.Time) NotificationRequest {
	return NotificationRequest{
		ID:            uuid.New(),
		AppointmentID: appt.ID,
		TenantID:      appt.TenantID,
		Type:          t,
		Channel:       ChannelWhatsApp,
		Status:        NotificationPending,
		Recipient:     appt.PatientID.String(),
		Message:       notificationMessage(t, appt),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
