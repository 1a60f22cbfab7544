package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type mockBookingRepo struct {
	bookings   map[string]models.Booking
	confirmed  map[string]int
	duplicates map[string]bool
	created    *models.Booking
	status     map[string]models.BookingStatus
	cancelled  map[string]*time.Time
}

func bookingKey(slotID string, date time.Time) string {
	return slotID + "|" + date.Format("2006-01-02")
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		return &b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) CountConfirmed(ctx context.Context, slotID string, date time.Time) (int, error) {
	return m.confirmed[bookingKey(slotID, date)], nil
}

func (m *mockBookingRepo) HasConfirmedForSubject(ctx context.Context, slotID string, date time.Time, studentID, childID string) (bool, error) {
	subject := studentID
	if subject == "" {
		subject = childID
	}
	return m.duplicates[bookingKey(slotID, date)+"|"+subject], nil
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = "new-booking"
	}
	if m.bookings == nil {
		m.bookings = make(map[string]models.Booking)
	}
	m.bookings[booking.ID] = *booking
	m.created = booking
	return nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, cancelledAt *time.Time) error {
	if m.status == nil {
		m.status = make(map[string]models.BookingStatus)
	}
	if m.cancelled == nil {
		m.cancelled = make(map[string]*time.Time)
	}
	m.status[id] = status
	m.cancelled[id] = cancelledAt
	return nil
}

func (m *mockBookingRepo) ListByBooker(ctx context.Context, userID string) ([]models.BookingDetail, error) {
	return nil, nil
}

type mockSlotReader struct {
	slots map[string]models.TimeSlotDetail
}

func (m *mockSlotReader) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	if s, ok := m.slots[id]; ok {
		slot := s.TimeSlot
		return &slot, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSlotReader) FindDetailByID(ctx context.Context, id string) (*models.TimeSlotDetail, error) {
	if s, ok := m.slots[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockChildReader struct {
	children map[string]models.Child
}

func (m *mockChildReader) FindByID(ctx context.Context, id string) (*models.Child, error) {
	if c, ok := m.children[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockUserReader struct {
	users map[string]models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

// 2026-03-02 is a Monday.
var bookingTestNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func openMondaySlot(id string) models.TimeSlotDetail {
	return models.TimeSlotDetail{
		TimeSlot: models.TimeSlot{
			ID:          id,
			VenueID:     "venue-1",
			DayOfWeek:   "MONDAY",
			StartTime:   "10:00",
			EndTime:     "12:00",
			MaxCapacity: 2,
			Recurring:   true,
			Status:      models.TimeSlotStatusOpen,
		},
		VenueName: "Library",
	}
}

func newBookingService(repo *mockBookingRepo, slots *mockSlotReader, children *mockChildReader, now time.Time) *BookingService {
	return NewBookingService(repo, slots, children, &mockUserReader{}, nil, nil, nil,
		validator.New(), zap.NewNop(), BookingServiceConfig{}, func() time.Time { return now })
}

func TestBookingCreateParent(t *testing.T) {
	repo := &mockBookingRepo{}
	slots := &mockSlotReader{slots: map[string]models.TimeSlotDetail{"slot-1": openMondaySlot("slot-1")}}
	children := &mockChildReader{children: map[string]models.Child{"child-1": {ID: "child-1", ParentID: "parent-1"}}}
	svc := newBookingService(repo, slots, children, bookingTestNow)

	booking, err := svc.Create(context.Background(), models.Actor{UserID: "parent-1", Role: models.RoleParent},
		models.CreateBookingRequest{TimeSlotID: "slot-1", OccurrenceDate: "2026-03-02", ChildID: "child-1"})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	require.NotNil(t, booking.ChildID)
	assert.Equal(t, "child-1", *booking.ChildID)
	assert.Nil(t, booking.StudentID)
}

func TestBookingCreateParentRequiresOwnChild(t *testing.T) {
	repo := &mockBookingRepo{}
	slots := &mockSlotReader{slots: map[string]models.TimeSlotDetail{"slot-1": openMondaySlot("slot-1")}}
	children := &mockChildReader{children: map[string]models.Child{"child-1": {ID: "child-1", ParentID: "other-parent"}}}
	svc := newBookingService(repo, slots, children, bookingTestNow)

	_, err := svc.Create(context.Background(), models.Actor{UserID: "parent-1", Role: models.RoleParent},
		models.CreateBookingRequest{TimeSlotID: "slot-1", OccurrenceDate: "2026-03-02", ChildID: "child-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), models.Actor{UserID: "parent-1", Role: models.RoleParent},
		models.CreateBookingRequest{TimeSlotID: "slot-1", OccurrenceDate: "2026-03-02"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingCreateStudent(t *testing.T) {
	repo := &mockBookingRepo{}
	slots := &mockSlotReader{slots: map[string]models.TimeSlotDetail{"slot-1": openMondaySlot("slot-1")}}
	svc := newBookingService(repo, slots, &mockChildReader{}, bookingTestNow)

	booking, err := svc.Create(context.Background(), models.Actor{UserID: "student-1", Role: models.RoleStudent},
		models.CreateBookingRequest{TimeSlotID: "slot-1", OccurrenceDate: "2026-03-02"})
	require.NoError(t, err)
	require.NotNil(t, booking.StudentID)
	assert.Equal(t, "student-1", *booking.StudentID)
	assert.Nil(t, booking.ChildID)
}

func TestBookingCreateRejectsOtherRoles(t *testing.T) {
	slots := &mockSlotReader{slots: map[string]models.TimeSlotDetail{"slot-1": openMondaySlot("slot-1")}}
	svc := newBookingService(&mockBookingRepo{}, slots, &mockChildReader{}, bookingTestNow)

	_, err := svc.Create(context.Background(), models.Actor{UserID: "coord-1", Role: models.RoleCoordinator},
		models.CreateBookingRequest{TimeSlotID: "slot-1", OccurrenceDate: "2026-03-02"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBookingCreateCapacity(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	slot := openMondaySlot("slot-1")
	slot.MaxCapacity = 1
	repo := &mockBookingRepo{confirmed: map[string]int{bookingKey("slot-1", date): 1}}
	slots := &mockSlotReader{slots: map[string]models.TimeSlotDetail{"slot-1": slot}}
	svc := newBookingService(repo, slots, &mockChildReader{}, bookingTestNow)

	_, err := svc.Create(context.Background(), models.Actor{UserID: "student-1", Role: models.RoleStudent},
		models.CreateBookingRequest{TimeSlotID: "slot-1", OccurrenceDate: "2026-03-02"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestBookingCreateDuplicate(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	repo := &mockBookingRepo{duplicates: map[string]bool{bookingKey("slot-1", date) + "|student-1": true}}
	slots := &mockSlotReader{slots: map[string]models.TimeSlotDetail{"slot-1": openMondaySlot("slot-1")}}
	svc := newBookingService(repo, slots, &mockChildReader{}, bookingTestNow)

	_, err := svc.Create(context.Background(), models.Actor{UserID: "student-1", Role: models.RoleStudent},
		models.CreateBookingRequest{TimeSlotID: "slot-1", OccurrenceDate: "2026-03-02"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBookingCreateMissingSlot(t *testing.T) {
	svc := newBookingService(&mockBookingRepo{}, &mockSlotReader{}, &mockChildReader{}, bookingTestNow)

	_, err := svc.Create(context.Background(), models.Actor{UserID: "student-1", Role: models.RoleStudent},
		models.CreateBookingRequest{TimeSlotID: "missing", OccurrenceDate: "2026-03-02"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBookingCancelWindow(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	slots := &mockSlotReader{slots: map[string]models.TimeSlotDetail{"slot-1": openMondaySlot("slot-1")}}
	booking := models.Booking{
		ID: "b1", TimeSlotID: "slot-1", OccurrenceDate: date,
		BookedByID: "student-1", Status: models.BookingStatusConfirmed,
	}

	// 1h59m before the 10:00 start: too late.
	repo := &mockBookingRepo{bookings: map[string]models.Booking{"b1": booking}}
	svc := newBookingService(repo, slots, &mockChildReader{}, time.Date(2026, 3, 2, 8, 1, 0, 0, time.UTC))
	err := svc.Cancel(context.Background(), models.Actor{UserID: "student-1", Role: models.RoleStudent}, "b1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCancellationWindow.Code, appErrors.FromError(err).Code)

	// Exactly 2h before: allowed.
	repo = &mockBookingRepo{bookings: map[string]models.Booking{"b1": booking}}
	svc = newBookingService(repo, slots, &mockChildReader{}, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	err = svc.Cancel(context.Background(), models.Actor{UserID: "student-1", Role: models.RoleStudent}, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, repo.status["b1"])
	require.NotNil(t, repo.cancelled["b1"])
}

func TestBookingCancelOwnership(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	repo := &mockBookingRepo{bookings: map[string]models.Booking{"b1": {
		ID: "b1", TimeSlotID: "slot-1", OccurrenceDate: date,
		BookedByID: "student-1", Status: models.BookingStatusConfirmed,
	}}}
	slots := &mockSlotReader{slots: map[string]models.TimeSlotDetail{"slot-1": openMondaySlot("slot-1")}}
	svc := newBookingService(repo, slots, &mockChildReader{}, bookingTestNow)

	err := svc.Cancel(context.Background(), models.Actor{UserID: "someone-else", Role: models.RoleStudent}, "b1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBookingCancelRequiresConfirmed(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	repo := &mockBookingRepo{bookings: map[string]models.Booking{"b1": {
		ID: "b1", TimeSlotID: "slot-1", OccurrenceDate: date,
		BookedByID: "student-1", Status: models.BookingStatusCancelled,
	}}}
	slots := &mockSlotReader{slots: map[string]models.TimeSlotDetail{"slot-1": openMondaySlot("slot-1")}}
	svc := newBookingService(repo, slots, &mockChildReader{}, bookingTestNow)

	err := svc.Cancel(context.Background(), models.Actor{UserID: "student-1", Role: models.RoleStudent}, "b1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
