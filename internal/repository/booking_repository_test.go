package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

func newBookingMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBookingRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	occurrence := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	studentID := "student-1"
	rows := sqlmock.NewRows([]string{"id", "time_slot_id", "occurrence_date", "student_id", "child_id",
		"booked_by_id", "status", "cancelled_at", "created_at", "updated_at"}).
		AddRow("booking-1", "slot-1", occurrence, &studentID, nil, "student-1", "CONFIRMED", nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, time_slot_id, occurrence_date").
		WithArgs("booking-1").
		WillReturnRows(rows)

	booking, err := repo.FindByID(context.Background(), "booking-1")
	require.NoError(t, err)
	assert.Equal(t, "slot-1", booking.TimeSlotID)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	require.NotNil(t, booking.StudentID)
	assert.Equal(t, "student-1", *booking.StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("SELECT id, time_slot_id, occurrence_date").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCountConfirmed(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	occurrence := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WithArgs("slot-1", occurrence, models.BookingStatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountConfirmed(context.Background(), "slot-1", occurrence)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryHasConfirmedForSubject(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	occurrence := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("slot-1", occurrence, models.BookingStatusConfirmed, "student-1", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasConfirmedForSubject(context.Background(), "slot-1", occurrence, "student-1", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	studentID := "student-1"
	booking := &models.Booking{
		TimeSlotID:     "slot-1",
		OccurrenceDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StudentID:      &studentID,
		BookedByID:     "student-1",
		Status:         models.BookingStatusConfirmed,
	}
	err := repo.Create(context.Background(), booking)
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.False(t, booking.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	cancelledAt := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs("booking-1", models.BookingStatusCancelled, &cancelledAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "booking-1", models.BookingStatusCancelled, &cancelledAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryConfirmedCountsSince(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"time_slot_id", "occurrence_date", "count"}).
		AddRow("slot-1", from, 2).
		AddRow("slot-2", from.AddDate(0, 0, 1), 1)
	mock.ExpectQuery("SELECT time_slot_id, occurrence_date").
		WithArgs(models.BookingStatusConfirmed, from).
		WillReturnRows(rows)

	counts, err := repo.ConfirmedCountsSince(context.Background(), from)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "slot-1", counts[0].TimeSlotID)
	assert.Equal(t, 2, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
