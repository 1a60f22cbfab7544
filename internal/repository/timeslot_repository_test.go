package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

func newTimeSlotMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimeSlotRepositoryFindDetailByID(t *testing.T) {
	db, mock, cleanup := newTimeSlotMock(t)
	defer cleanup()
	repo := NewTimeSlotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "venue_id", "day_of_week", "start_time", "end_time",
		"max_capacity", "recurring", "specific_date", "status", "created_at", "updated_at",
		"venue_name", "venue_coordinator_id"}).
		AddRow("slot-1", "venue-1", "MONDAY", "10:00", "12:00", 6, true, nil, "OPEN",
			time.Now(), time.Now(), "Library", "coord-1")
	mock.ExpectQuery("SELECT ts.id, ts.venue_id, ts.day_of_week").
		WithArgs("slot-1").
		WillReturnRows(rows)

	detail, err := repo.FindDetailByID(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "Library", detail.VenueName)
	assert.Equal(t, models.TimeSlotStatusOpen, detail.Status)
	assert.True(t, detail.Recurring)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositoryExistsOverlapping(t *testing.T) {
	db, mock, cleanup := newTimeSlotMock(t)
	defer cleanup()
	repo := NewTimeSlotRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("venue-1", models.TimeSlotStatusCancelled, "", "MONDAY", nil, "10:00", "12:00").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsOverlapping(context.Background(), "venue-1", "MONDAY", nil, "10:00", "12:00", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositoryListOpenByVenues(t *testing.T) {
	db, mock, cleanup := newTimeSlotMock(t)
	defer cleanup()
	repo := NewTimeSlotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "venue_id", "day_of_week", "start_time", "end_time",
		"max_capacity", "recurring", "specific_date", "status", "created_at", "updated_at",
		"venue_name", "venue_coordinator_id"}).
		AddRow("slot-1", "venue-1", "MONDAY", "10:00", "12:00", 6, true, nil, "OPEN",
			time.Now(), time.Now(), "Library", "coord-1")
	mock.ExpectQuery("SELECT ts.id, ts.venue_id, ts.day_of_week").
		WithArgs("venue-1", "venue-2", models.TimeSlotStatusOpen).
		WillReturnRows(rows)

	slots, err := repo.ListOpenByVenues(context.Background(), []string{"venue-1", "venue-2"})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "slot-1", slots[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositoryListOpenByVenuesEmpty(t *testing.T) {
	db, mock, cleanup := newTimeSlotMock(t)
	defer cleanup()
	repo := NewTimeSlotRepository(db)

	slots, err := repo.ListOpenByVenues(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newTimeSlotMock(t)
	defer cleanup()
	repo := NewTimeSlotRepository(db)

	mock.ExpectExec("UPDATE time_slots SET status").
		WithArgs("slot-1", models.TimeSlotStatusFull, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "slot-1", models.TimeSlotStatusFull)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newTimeSlotMock(t)
	defer cleanup()
	repo := NewTimeSlotRepository(db)

	mock.ExpectExec("INSERT INTO time_slots").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	slot := &models.TimeSlot{
		VenueID:     "venue-1",
		DayOfWeek:   "MONDAY",
		StartTime:   "10:00",
		EndTime:     "12:00",
		MaxCapacity: 6,
		Recurring:   true,
		Status:      models.TimeSlotStatusOpen,
	}
	err := repo.Create(context.Background(), slot)
	require.NoError(t, err)
	assert.NotEmpty(t, slot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
