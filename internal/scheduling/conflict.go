package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityResult is the outcome of a conflict check. Conflicts carries
// the overlapping appointments for diagnostic display.
type AvailabilityResult struct {
	Available bool
	Conflicts []Appointment
}

// DetectConflicts decides whether the candidate interval
// [start, start+duration) overlaps any existing appointment. Intervals are
// half-open, so back-to-back appointments (candidate start == existing end)
// do not conflict. excludeID skips one appointment, for edit-in-place checks.
//
// Only appointments in an occupying status count; everything else has
// released its place on the calendar.
func DetectConflicts(start time.Time, durationMin int, existing []Appointment, excludeID uuid.UUID) []Appointment {
	end := start.Add(time.Duration(durationMin) * time.Minute)

	var conflicts []Appointment
	for _, appt := range existing {
		if appt.ID == excludeID {
			continue
		}
		if !occupiesCalendar(appt.Status) {
			continue
		}

		existingStart, existingEnd := appt.Interval()

		startsInside := !start.Before(existingStart) && start.Before(existingEnd)
		endsInside := end.After(existingStart) && !end.After(existingEnd)
		contains := !start.After(existingStart) && !end.Before(existingEnd)

		if startsInside || endsInside || contains {
			conflicts = append(conflicts, appt)
		}
	}
	return conflicts
}

// CheckAvailability wraps DetectConflicts into the caller-facing result.
func CheckAvailability(start time.Time, durationMin int, existing []Appointment, excludeID uuid.UUID) AvailabilityResult {
	conflicts := DetectConflicts(start, durationMin, existing, excludeID)
	return AvailabilityResult{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}
}
