package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type mockApprovedVenues struct {
	venueIDs []string
}

func (m *mockApprovedVenues) ApprovedVenueIDs(ctx context.Context, volunteerID string) ([]string, error) {
	return m.venueIDs, nil
}

type mockOpenSlotLister struct {
	slots []models.TimeSlotDetail
}

func (m *mockOpenSlotLister) ListOpenByVenues(ctx context.Context, venueIDs []string) ([]models.TimeSlotDetail, error) {
	return m.slots, nil
}

type mockUpcomingShifts struct {
	shifts []models.VolunteerShift
}

func (m *mockUpcomingShifts) ListUpcomingByVolunteer(ctx context.Context, volunteerID string, after time.Time) ([]models.VolunteerShift, error) {
	return m.shifts, nil
}

type mockSlotSubjects struct {
	rows []models.TimeSlotSubjectName
}

func (m *mockSlotSubjects) ListNamesByTimeSlots(ctx context.Context, timeSlotIDs []string) ([]models.TimeSlotSubjectName, error) {
	return m.rows, nil
}

func availabilitySlot(id, day, start string) models.TimeSlotDetail {
	return models.TimeSlotDetail{
		TimeSlot: models.TimeSlot{
			ID:        id,
			VenueID:   "venue-1",
			DayOfWeek: day,
			StartTime: start,
			EndTime:   "20:00",
			Recurring: true,
			Status:    models.TimeSlotStatusOpen,
		},
		VenueName: "Library",
	}
}

// 2026-03-02 is a Monday.
var availabilityTestNow = time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC)

func TestAvailabilityListsAndSorts(t *testing.T) {
	slots := []models.TimeSlotDetail{
		availabilitySlot("slot-wed", "WEDNESDAY", "17:00"),
		availabilitySlot("slot-mon-late", "MONDAY", "19:00"),
		availabilitySlot("slot-mon-early", "MONDAY", "09:00"),
	}
	svc := NewAvailabilityService(
		&mockApprovedVenues{venueIDs: []string{"venue-1"}},
		&mockOpenSlotLister{slots: slots},
		&mockUpcomingShifts{},
		&mockSlotSubjects{rows: []models.TimeSlotSubjectName{
			{TimeSlotID: "slot-wed", Name: "Maths"},
			{TimeSlotID: "slot-wed", Name: "Physics"},
		}},
		zap.NewNop(), AvailabilityServiceConfig{}, func() time.Time { return availabilityTestNow },
	)

	out, err := svc.ListForVolunteer(context.Background(), models.Actor{UserID: "vol-1", Role: models.RoleVolunteer})
	require.NoError(t, err)
	require.Len(t, out, 3)

	// Monday slots land on today's date regardless of the wall clock, sorted
	// by start time, then Wednesday.
	assert.Equal(t, "slot-mon-early", out[0].TimeSlotID)
	assert.Equal(t, "2026-03-02", out[0].Date)
	assert.Equal(t, "slot-mon-late", out[1].TimeSlotID)
	assert.Equal(t, "slot-wed", out[2].TimeSlotID)
	assert.Equal(t, "2026-03-04", out[2].Date)
	assert.Equal(t, []string{"Maths", "Physics"}, out[2].Subjects)
	assert.Equal(t, "WEDNESDAY", out[2].DayOfWeek)
}

func TestAvailabilityExcludesHeldSlots(t *testing.T) {
	svc := NewAvailabilityService(
		&mockApprovedVenues{venueIDs: []string{"venue-1"}},
		&mockOpenSlotLister{slots: []models.TimeSlotDetail{
			availabilitySlot("slot-held", "MONDAY", "09:00"),
			availabilitySlot("slot-free", "TUESDAY", "09:00"),
		}},
		&mockUpcomingShifts{shifts: []models.VolunteerShift{{TimeSlotID: "slot-held", Status: models.ShiftStatusConfirmed}}},
		&mockSlotSubjects{},
		zap.NewNop(), AvailabilityServiceConfig{}, func() time.Time { return availabilityTestNow },
	)

	out, err := svc.ListForVolunteer(context.Background(), models.Actor{UserID: "vol-1", Role: models.RoleVolunteer})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "slot-free", out[0].TimeSlotID)
}

func TestAvailabilityHorizon(t *testing.T) {
	specific := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC) // beyond 28 days
	oneOff := availabilitySlot("slot-far", "WEDNESDAY", "09:00")
	oneOff.Recurring = false
	oneOff.SpecificDate = &specific

	past := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	pastSlot := availabilitySlot("slot-past", "SUNDAY", "09:00")
	pastSlot.Recurring = false
	pastSlot.SpecificDate = &past

	svc := NewAvailabilityService(
		&mockApprovedVenues{venueIDs: []string{"venue-1"}},
		&mockOpenSlotLister{slots: []models.TimeSlotDetail{oneOff, pastSlot}},
		&mockUpcomingShifts{},
		&mockSlotSubjects{},
		zap.NewNop(), AvailabilityServiceConfig{LookaheadDays: 28}, func() time.Time { return availabilityTestNow },
	)

	out, err := svc.ListForVolunteer(context.Background(), models.Actor{UserID: "vol-1", Role: models.RoleVolunteer})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAvailabilityNoApprovedVenues(t *testing.T) {
	svc := NewAvailabilityService(
		&mockApprovedVenues{},
		&mockOpenSlotLister{slots: []models.TimeSlotDetail{availabilitySlot("slot-1", "MONDAY", "09:00")}},
		&mockUpcomingShifts{},
		&mockSlotSubjects{},
		zap.NewNop(), AvailabilityServiceConfig{}, func() time.Time { return availabilityTestNow },
	)

	out, err := svc.ListForVolunteer(context.Background(), models.Actor{UserID: "vol-1", Role: models.RoleVolunteer})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAvailabilityVolunteerOnly(t *testing.T) {
	svc := NewAvailabilityService(
		&mockApprovedVenues{}, &mockOpenSlotLister{}, &mockUpcomingShifts{}, &mockSlotSubjects{},
		zap.NewNop(), AvailabilityServiceConfig{}, func() time.Time { return availabilityTestNow },
	)

	_, err := svc.ListForVolunteer(context.Background(), models.Actor{UserID: "s1", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
