package scheduling

import (
	"context"
	"fmt"
	"time"
)

// DispatchReminders scans for appointments entering the 24-hour and 5-hour
// pre-visit windows and emits each reminder at most once. The reminder flag
// is flipped with a guarded update before the notification goes out, so a
// concurrent worker run cannot double-send. Intended to be called
// periodically by the reminder worker.
func (s *Service) DispatchReminders(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.repo.FindNeedingReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find appointments needing reminders: %w", err)
	}

	sent := 0
	for i := range candidates {
		appt := &candidates[i]
		until := appt.ScheduledDate.Sub(now)
		if until < 0 {
			continue
		}

		if !appt.Reminder1DaySent && until <= 24*time.Hour {
			if s.sendReminder(ctx, appt, Reminder1Day, NotifyReminder1Day) {
				sent++
			}
		}
		if !appt.Reminder5HoursSent && until <= 5*time.Hour {
			if s.sendReminder(ctx, appt, Reminder5Hours, NotifyReminder5Hours) {
				sent++
			}
		}
	}
	return sent, nil
}

func (s *Service) sendReminder(ctx context.Context, appt *Appointment, kind ReminderKind, t NotificationType) bool {
	marked, err := s.repo.MarkReminderSent(ctx, appt.TenantID, appt.ID, kind)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("appointment_id", appt.ID.String()).
			Str("kind", string(kind)).
			Msg("mark reminder sent failed")
		return false
	}
	if !marked {
		// Another worker run got there first.
		return false
	}

	s.runPostCommit(ctx, appt, s.notificationHook(appt, t))
	return true
}
