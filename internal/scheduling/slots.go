package scheduling

import (
	"fmt"
	"sort"
	"time"
)

const (
	DefaultSlotInterval = 5 // minutes
	DefaultStartHour    = 7
	DefaultEndHour      = 20
)

// SlotAvailability is one HH:MM mark of the working-hours window.
type SlotAvailability struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// OccupiedSlots derives the occupied HH:MM marks for a set of appointments.
// Each appointment covers ceil(duration/interval) marks starting at its
// scheduled time, advancing by interval minutes. Marks are deduplicated and
// sorted ascending.
func OccupiedSlots(appts []Appointment, interval int) []string {
	if interval <= 0 {
		interval = DefaultSlotInterval
	}

	seen := make(map[string]struct{})
	for _, appt := range appts {
		if !occupiesCalendar(appt.Status) {
			continue
		}
		duration := appt.DurationMinutes()
		marks := (duration + interval - 1) / interval
		for i := 0; i < marks; i++ {
			t := appt.ScheduledDate.Add(time.Duration(i*interval) * time.Minute)
			seen[t.Format("15:04")] = struct{}{}
		}
	}

	slots := make([]string, 0, len(seen))
	for mark := range seen {
		slots = append(slots, mark)
	}
	sort.Strings(slots)
	return slots
}

// AvailableSlots enumerates every HH:MM mark from startHour:00 to endHour:00
// inclusive at interval steps. A mark is available iff it is not occupied.
// The boundary mark at exactly endHour:00 is part of the enumeration.
func AvailableSlots(occupied []string, startHour, endHour, interval int) []SlotAvailability {
	if interval <= 0 {
		interval = DefaultSlotInterval
	}

	occupiedSet := make(map[string]struct{}, len(occupied))
	for _, mark := range occupied {
		occupiedSet[mark] = struct{}{}
	}

	totalMinutes := (endHour - startHour) * 60
	var slots []SlotAvailability
	for offset := 0; offset <= totalMinutes; offset += interval {
		minutes := startHour*60 + offset
		mark := fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
		_, taken := occupiedSet[mark]
		slots = append(slots, SlotAvailability{Time: mark, Available: !taken})
	}
	return slots
}
