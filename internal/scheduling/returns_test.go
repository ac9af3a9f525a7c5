package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReturnsSpacing(t *testing.T) {
	prof := uuid.New()
	base := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	parent := &Appointment{
		ID:             uuid.New(),
		TenantID:       "t1",
		ScheduledDate:  base,
		ProfessionalID: &prof,
		Location:       LocationPerdizes,
	}

	now := time.Now()
	returns := BuildReturns(parent, 3, 30, now)
	require.Len(t, returns, 3)

	for i, ret := range returns {
		assert.Equal(t, i+1, ret.ReturnNumber)
		assert.Equal(t, base.AddDate(0, 0, 30*(i+1)), ret.ScheduledDate)
		assert.Equal(t, ret.ScheduledDate, ret.OriginalScheduledDate)
		assert.Equal(t, ReturnScheduled, ret.Status)
		assert.Equal(t, parent.ID, ret.AppointmentID)
		assert.Equal(t, parent.TenantID, ret.TenantID)
		assert.Equal(t, parent.ProfessionalID, ret.ProfessionalID)
		assert.Equal(t, parent.Location, ret.Location)
	}
}

func TestBuildReturnsDeterministicDates(t *testing.T) {
	parent := &Appointment{
		ID:            uuid.New(),
		TenantID:      "t1",
		ScheduledDate: time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC),
		Location:      LocationMoema,
	}

	returns := BuildReturns(parent, 3, 30, time.Now())
	require.Len(t, returns, 3)
	assert.Equal(t, time.Date(2024, 2, 9, 10, 0, 0, 0, time.UTC), returns[0].ScheduledDate)
	assert.Equal(t, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC), returns[1].ScheduledDate)
	assert.Equal(t, time.Date(2024, 4, 9, 10, 0, 0, 0, time.UTC), returns[2].ScheduledDate)
}

func TestBuildReturnsRejectsNonPositiveInputs(t *testing.T) {
	parent := &Appointment{ID: uuid.New(), ScheduledDate: time.Now()}

	assert.Nil(t, BuildReturns(parent, 0, 30, time.Now()))
	assert.Nil(t, BuildReturns(parent, 3, 0, time.Now()))
	assert.Nil(t, BuildReturns(parent, -1, 30, time.Now()))
}
