package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Availability reads bypass the state machine and run over a read snapshot.
// They never take the per-resource lock, so a concurrent create may land
// between the read and the caller acting on the answer; the create path
// re-checks inside its critical section.

// CheckSlot reports whether [scheduledDate, scheduledDate+duration) is free
// for the resource, with the conflicting appointments for display.
// excludeID skips one appointment so an edit-in-place does not conflict with
// itself; pass uuid.Nil otherwise.
func (s *Service) CheckSlot(ctx context.Context, tenantID string, scheduledDate time.Time, durationMin int, filter ResourceFilter, excludeID uuid.UUID) (AvailabilityResult, error) {
	if durationMin <= 0 {
		return AvailabilityResult{}, fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	if !ValidLocation(filter.Location) {
		return AvailabilityResult{}, fmt.Errorf("%w: unknown location %q", ErrValidation, filter.Location)
	}

	from, to := dayWindow(scheduledDate)
	existing, err := s.repo.FindByResourceAndWindow(ctx, tenantID, filter, from, to)
	if err != nil {
		return AvailabilityResult{}, fmt.Errorf("load existing appointments: %w", err)
	}
	return CheckAvailability(scheduledDate, durationMin, existing, excludeID), nil
}

// GetOccupiedSlots lists the occupied HH:MM marks of one calendar day for
// the resource.
func (s *Service) GetOccupiedSlots(ctx context.Context, tenantID string, day time.Time, filter ResourceFilter, interval int) ([]string, error) {
	if !ValidLocation(filter.Location) {
		return nil, fmt.Errorf("%w: unknown location %q", ErrValidation, filter.Location)
	}

	from, to := dayWindow(day)
	existing, err := s.repo.FindByResourceAndWindow(ctx, tenantID, filter, from, to)
	if err != nil {
		return nil, fmt.Errorf("load existing appointments: %w", err)
	}
	return OccupiedSlots(existing, interval), nil
}

// GetAvailableSlots enumerates the working-hours window of one calendar day
// and marks each slot free or taken.
func (s *Service) GetAvailableSlots(ctx context.Context, tenantID string, day time.Time, filter ResourceFilter, startHour, endHour, interval int) ([]SlotAvailability, error) {
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, fmt.Errorf("%w: invalid working-hours window %d-%d", ErrValidation, startHour, endHour)
	}

	occupied, err := s.GetOccupiedSlots(ctx, tenantID, day, filter, interval)
	if err != nil {
		return nil, err
	}
	return AvailableSlots(occupied, startHour, endHour, interval), nil
}
