package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupiedSlotsScenario(t *testing.T) {
	// 10:00 for 60 minutes, 15-minute marks.
	appts := []Appointment{mkAppt(at(10, 0), 60, StatusConfirmed)}

	slots := OccupiedSlots(appts, 15)
	assert.Equal(t, []string{"10:00", "10:15", "10:30", "10:45"}, slots)
}

func TestOccupiedSlotsCeilPartialSlot(t *testing.T) {
	// 50 minutes at 15-minute marks covers ceil(50/15)=4 marks.
	appts := []Appointment{mkAppt(at(9, 0), 50, StatusConfirmed)}

	slots := OccupiedSlots(appts, 15)
	assert.Equal(t, []string{"09:00", "09:15", "09:30", "09:45"}, slots)
}

func TestOccupiedSlotsDeduplicatesAndSorts(t *testing.T) {
	appts := []Appointment{
		mkAppt(at(11, 0), 30, StatusConfirmed),
		mkAppt(at(11, 15), 30, StatusConfirmed),
		mkAppt(at(9, 0), 15, StatusConfirmed),
	}

	slots := OccupiedSlots(appts, 15)
	assert.Equal(t, []string{"09:00", "11:00", "11:15", "11:30"}, slots)
}

func TestOccupiedSlotsSkipsNonOccupying(t *testing.T) {
	appts := []Appointment{
		mkAppt(at(10, 0), 60, StatusCancelled),
		mkAppt(at(14, 0), 60, StatusCompleted),
	}

	assert.Empty(t, OccupiedSlots(appts, 15))
}

func TestAvailableSlotsHourlyScenario(t *testing.T) {
	// Window 7-20 at 60-minute marks, one appointment 10:00-11:00.
	occupied := OccupiedSlots([]Appointment{mkAppt(at(10, 0), 60, StatusConfirmed)}, 60)

	slots := AvailableSlots(occupied, 7, 20, 60)
	require.Len(t, slots, 14) // 07:00 through 20:00 inclusive

	for _, s := range slots {
		if s.Time == "10:00" {
			assert.False(t, s.Available, "10:00 should be taken")
		} else {
			assert.True(t, s.Available, "%s should be free", s.Time)
		}
	}
	assert.Equal(t, "07:00", slots[0].Time)
	assert.Equal(t, "20:00", slots[len(slots)-1].Time)
}

func TestAvailableSlotsBoundaryMarkIncluded(t *testing.T) {
	slots := AvailableSlots(nil, 7, 20, 5)

	assert.Equal(t, "20:00", slots[len(slots)-1].Time)
	assert.Len(t, slots, 13*12+1)
}

func TestSlotPartitionProperty(t *testing.T) {
	appts := []Appointment{
		mkAppt(at(8, 0), 45, StatusConfirmed),
		mkAppt(at(13, 30), 90, StatusInProgress),
	}

	occupied := OccupiedSlots(appts, 15)
	occupiedSet := make(map[string]bool, len(occupied))
	for _, mark := range occupied {
		occupiedSet[mark] = true
	}

	slots := AvailableSlots(occupied, 7, 20, 15)
	for _, s := range slots {
		assert.NotEqual(t, occupiedSet[s.Time], s.Available,
			"mark %s must be either occupied or available, never both", s.Time)
	}
}

func TestSlotCalculationsIdempotent(t *testing.T) {
	appts := []Appointment{mkAppt(at(10, 0), 60, StatusConfirmed)}

	first := OccupiedSlots(appts, 5)
	second := OccupiedSlots(appts, 5)
	assert.Equal(t, first, second)

	availFirst := AvailableSlots(first, 7, 20, 5)
	availSecond := AvailableSlots(second, 7, 20, 5)
	assert.Equal(t, availFirst, availSecond)
}
