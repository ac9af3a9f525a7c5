package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkAppt(start time.Time, durationMin int, status AppointmentStatus) Appointment {
	d := durationMin
	return Appointment{
		ID:                uuid.New(),
		TenantID:          "t1",
		ScheduledDate:     start,
		EstimatedDuration: &d,
		Location:          LocationMoema,
		Status:            status,
	}
}

func at(hour, min int) time.Time {
	return time.Date(2024, 1, 10, hour, min, 0, 0, time.UTC)
}

func TestDetectConflictsDisjoint(t *testing.T) {
	existing := []Appointment{mkAppt(at(10, 0), 60, StatusConfirmed)}

	assert.Empty(t, DetectConflicts(at(8, 0), 60, existing, uuid.Nil))
	assert.Empty(t, DetectConflicts(at(12, 0), 60, existing, uuid.Nil))
}

func TestDetectConflictsTouchingEndpointsAllowed(t *testing.T) {
	existing := []Appointment{mkAppt(at(10, 0), 60, StatusConfirmed)}

	// Back-to-back, zero gap: candidate ends exactly at existing start, or
	// starts exactly at existing end.
	assert.Empty(t, DetectConflicts(at(9, 0), 60, existing, uuid.Nil))
	assert.Empty(t, DetectConflicts(at(11, 0), 30, existing, uuid.Nil))
}

func TestDetectConflictsOverlaps(t *testing.T) {
	existing := []Appointment{mkAppt(at(10, 0), 60, StatusConfirmed)}

	cases := []struct {
		name     string
		start    time.Time
		duration int
	}{
		{"overlap left", at(9, 30), 60},
		{"overlap right", at(10, 30), 60},
		{"candidate inside existing", at(10, 15), 30},
		{"existing inside candidate", at(9, 0), 180},
		{"identical interval", at(10, 0), 60},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conflicts := DetectConflicts(tc.start, tc.duration, existing, uuid.Nil)
			require.Len(t, conflicts, 1)
			assert.Equal(t, existing[0].ID, conflicts[0].ID)
		})
	}
}

func TestDetectConflictsSymmetric(t *testing.T) {
	a := mkAppt(at(10, 0), 60, StatusConfirmed)
	b := mkAppt(at(10, 30), 60, StatusConfirmed)

	assert.Len(t, DetectConflicts(a.ScheduledDate, 60, []Appointment{b}, uuid.Nil), 1)
	assert.Len(t, DetectConflicts(b.ScheduledDate, 60, []Appointment{a}, uuid.Nil), 1)
}

func TestDetectConflictsExcludeID(t *testing.T) {
	appt := mkAppt(at(10, 0), 60, StatusConfirmed)

	// Edit-in-place must not conflict with itself.
	assert.Empty(t, DetectConflicts(at(10, 0), 60, []Appointment{appt}, appt.ID))
}

func TestDetectConflictsIgnoresNonOccupyingStatuses(t *testing.T) {
	existing := []Appointment{
		mkAppt(at(10, 0), 60, StatusCancelled),
		mkAppt(at(10, 0), 60, StatusCompleted),
		mkAppt(at(10, 0), 60, StatusNoShow),
		mkAppt(at(10, 0), 60, StatusRescheduled),
	}

	assert.Empty(t, DetectConflicts(at(10, 0), 60, existing, uuid.Nil))
}

func TestDetectConflictsDurationFallback(t *testing.T) {
	procDuration := 90

	explicit := mkAppt(at(8, 0), 30, StatusConfirmed)

	viaProcedure := mkAppt(at(12, 0), 0, StatusConfirmed)
	viaProcedure.EstimatedDuration = nil
	viaProcedure.ProcedureDuration = &procDuration

	fallback := mkAppt(at(16, 0), 0, StatusConfirmed)
	fallback.EstimatedDuration = nil

	existing := []Appointment{explicit, viaProcedure, fallback}

	// Explicit 30min: 8:30 onwards is free.
	assert.Empty(t, DetectConflicts(at(8, 30), 30, existing, uuid.Nil))
	// Procedure default 90min: 13:29 still conflicts, 13:30 does not.
	assert.Len(t, DetectConflicts(at(13, 29), 10, existing, uuid.Nil), 1)
	assert.Empty(t, DetectConflicts(at(13, 30), 10, existing, uuid.Nil))
	// 60min fallback: 16:59 conflicts, 17:00 does not.
	assert.Len(t, DetectConflicts(at(16, 59), 10, existing, uuid.Nil), 1)
	assert.Empty(t, DetectConflicts(at(17, 0), 10, existing, uuid.Nil))
}

func TestCheckAvailabilityScenario(t *testing.T) {
	// One appointment at 10:00 for 60 minutes at moema.
	existing := []Appointment{mkAppt(at(10, 0), 60, StatusAwaitingPayment)}

	busy := CheckAvailability(at(10, 30), 30, existing, uuid.Nil)
	assert.False(t, busy.Available)
	require.Len(t, busy.Conflicts, 1)

	free := CheckAvailability(at(11, 0), 30, existing, uuid.Nil)
	assert.True(t, free.Available)
	assert.Empty(t, free.Conflicts)
}
