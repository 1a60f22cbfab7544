package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

type mockDashVenues struct {
	venue *models.Venue
}

func (m *mockDashVenues) FindByCoordinator(ctx context.Context, coordinatorID string) (*models.Venue, error) {
	if m.venue == nil {
		return nil, sql.ErrNoRows
	}
	return m.venue, nil
}

type mockDashBookings struct {
	fn func(from, to time.Time) []models.Booking
}

func (m *mockDashBookings) ListForVenueBetween(ctx context.Context, venueID string, from, to time.Time) ([]models.Booking, error) {
	if m.fn == nil {
		return nil, nil
	}
	return m.fn(from, to), nil
}

type mockDashShifts struct {
	fn func(from, to time.Time) []models.ShiftDetail
}

func (m *mockDashShifts) ListForVenueBetween(ctx context.Context, venueID string, from, to time.Time) ([]models.ShiftDetail, error) {
	if m.fn == nil {
		return nil, nil
	}
	return m.fn(from, to), nil
}

type mockDashApps struct {
	approved int
	subjects []models.VolunteerSubjectRow
}

func (m *mockDashApps) CountApprovedForVenue(ctx context.Context, venueID string) (int, error) {
	return m.approved, nil
}

func (m *mockDashApps) ListApprovedVolunteerSubjects(ctx context.Context, venueID string) ([]models.VolunteerSubjectRow, error) {
	return m.subjects, nil
}

type mockDashSlots struct {
	slots []models.TimeSlot
}

func (m *mockDashSlots) ListByVenue(ctx context.Context, venueID string) ([]models.TimeSlot, error) {
	return m.slots, nil
}

func TestWeekStart(t *testing.T) {
	// Wednesday anchors back to Monday.
	assert.Equal(t,
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		weekStart(time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC)))
	// Monday is its own week start.
	assert.Equal(t,
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		weekStart(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
	// Sunday belongs to the week opened the previous Monday.
	assert.Equal(t,
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		weekStart(time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)))
}

func TestDashboardZeroWithoutVenue(t *testing.T) {
	svc := NewDashboardService(&mockDashVenues{}, &mockDashBookings{}, &mockDashShifts{},
		&mockDashApps{}, &mockDashSlots{}, &mockSlotSubjects{}, nil, zap.NewNop(),
		DashboardServiceConfig{}, nil)

	summary, err := svc.ForCoordinator(context.Background(), models.Actor{UserID: "coord-1", Role: models.RoleCoordinator})
	require.NoError(t, err)
	assert.Empty(t, summary.VenueID)
	assert.Zero(t, summary.BookingsThisWeek)
	assert.Empty(t, summary.UpcomingOccurrences)
}

func TestDashboardAggregation(t *testing.T) {
	// Wednesday 2026-03-04; the week runs Mon 03-02 through Mon 03-09.
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	wkStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	thursday := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	occStart := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	occEnd := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	bookings := &mockDashBookings{fn: func(from, to time.Time) []models.Booking {
		if from.Equal(wkStart) {
			return []models.Booking{
				{Status: models.BookingStatusConfirmed},
				{Status: models.BookingStatusAttended},
				{Status: models.BookingStatusCancelled},
			}
		}
		return []models.Booking{
			{TimeSlotID: "slot-1", OccurrenceDate: thursday, Status: models.BookingStatusConfirmed},
			{TimeSlotID: "slot-1", OccurrenceDate: thursday, Status: models.BookingStatusConfirmed},
			{TimeSlotID: "slot-1", OccurrenceDate: thursday, Status: models.BookingStatusCancelled},
		}
	}}

	shifts := &mockDashShifts{fn: func(from, to time.Time) []models.ShiftDetail {
		if from.Equal(wkStart) {
			return []models.ShiftDetail{
				{VolunteerShift: models.VolunteerShift{VolunteerID: "vol-1", StartsAt: occStart, EndsAt: occEnd}, VolunteerName: "Alice"},
				{VolunteerShift: models.VolunteerShift{VolunteerID: "vol-1", StartsAt: occStart.AddDate(0, 0, 1), EndsAt: occStart.AddDate(0, 0, 1).Add(90 * time.Minute)}, VolunteerName: "Alice"},
				{VolunteerShift: models.VolunteerShift{VolunteerID: "vol-2", StartsAt: occStart, EndsAt: occEnd}, VolunteerName: "Bob"},
			}
		}
		return []models.ShiftDetail{
			{VolunteerShift: models.VolunteerShift{TimeSlotID: "slot-1", StartsAt: occStart, EndsAt: occEnd}, VolunteerName: "Alice"},
			{VolunteerShift: models.VolunteerShift{TimeSlotID: "slot-1", StartsAt: occStart, EndsAt: occEnd}, VolunteerName: "Bob"},
		}
	}}

	apps := &mockDashApps{
		approved: 4,
		subjects: []models.VolunteerSubjectRow{
			{VolunteerID: "vol-1", SubjectName: "Maths"},
			{VolunteerID: "vol-2", SubjectName: "Maths"},
			{VolunteerID: "vol-1", SubjectName: "Physics"},
		},
	}

	slots := &mockDashSlots{slots: []models.TimeSlot{
		{ID: "slot-1", Status: models.TimeSlotStatusOpen},
		{ID: "slot-2", Status: models.TimeSlotStatusOpen},
		{ID: "slot-3", Status: models.TimeSlotStatusFull},
	}}

	subjects := &mockSlotSubjects{rows: []models.TimeSlotSubjectName{{TimeSlotID: "slot-1", Name: "Maths"}}}

	svc := NewDashboardService(
		&mockDashVenues{venue: &models.Venue{ID: "venue-1", Name: "Library", CoordinatorID: "coord-1", Active: true}},
		bookings, shifts, apps, slots, subjects, nil, zap.NewNop(),
		DashboardServiceConfig{}, func() time.Time { return now })

	summary, err := svc.ForCoordinator(context.Background(), models.Actor{UserID: "coord-1", Role: models.RoleCoordinator})
	require.NoError(t, err)

	assert.Equal(t, "venue-1", summary.VenueID)
	assert.Equal(t, 2, summary.BookingsThisWeek)
	assert.Equal(t, 4, summary.ApprovedVolunteers)

	// The two Thursday shifts fold into one occurrence with two volunteers,
	// two confirmed bookings, and the slot's subjects attached.
	require.Len(t, summary.UpcomingOccurrences, 1)
	occ := summary.UpcomingOccurrences[0]
	assert.Equal(t, "slot-1", occ.TimeSlotID)
	assert.Equal(t, 2, occ.VolunteerCount)
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, occ.VolunteerNames)
	assert.Equal(t, 2, occ.BookingCount)
	assert.Equal(t, []string{"Maths"}, occ.Subjects)

	// slot-2 is open with no upcoming shift; slot-3 is not Open.
	assert.Equal(t, 1, summary.UnfilledTimeSlots)

	require.Len(t, summary.SubjectCoverage, 2)
	assert.Equal(t, "Maths", summary.SubjectCoverage[0].Subject)
	assert.Equal(t, 2, summary.SubjectCoverage[0].Volunteers)
	assert.Equal(t, "Physics", summary.SubjectCoverage[1].Subject)
	assert.Equal(t, 1, summary.SubjectCoverage[1].Volunteers)

	require.Len(t, summary.VolunteerHours, 2)
	assert.Equal(t, "vol-1", summary.VolunteerHours[0].VolunteerID)
	assert.InDelta(t, 3.5, summary.VolunteerHours[0].Hours, 0.001)
	assert.Equal(t, "vol-2", summary.VolunteerHours[1].VolunteerID)
	assert.InDelta(t, 2.0, summary.VolunteerHours[1].Hours, 0.001)
}
