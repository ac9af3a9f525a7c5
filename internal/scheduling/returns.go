package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// BuildReturns deterministically builds the follow-up visits for a completed
// appointment: count returns spaced frequencyDays apart, starting one period
// after the parent's scheduled date. Sequence numbers run 1..count. Returns
// inherit professional, location and tenant from the parent.
//
// The state machine invokes this at most once per finalize transition; the
// transition validity check is the idempotency guard.
func BuildReturns(parent *Appointment, count, frequencyDays int, now time.Time) []AppointmentReturn {
	if count <= 0 || frequencyDays <= 0 {
		return nil
	}

	returns := make([]AppointmentReturn, 0, count)
	for i := 1; i <= count; i++ {
		date := parent.ScheduledDate.AddDate(0, 0, frequencyDays*i)
		returns = append(returns, AppointmentReturn{
			ID:                    uuid.New(),
			AppointmentID:         parent.ID,
			TenantID:              parent.TenantID,
			ReturnNumber:          i,
			ScheduledDate:         date,
			OriginalScheduledDate: date,
			Status:                ReturnScheduled,
			ProfessionalID:        parent.ProfessionalID,
			Location:              parent.Location,
			CreatedAt:             now,
			UpdatedAt:             now,
		})
	}
	return returns
}
