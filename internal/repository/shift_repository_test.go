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

func newShiftMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestShiftRepositoryFindByVolunteerAndSlot(t *testing.T) {
	db, mock, cleanup := newShiftMock(t)
	defer cleanup()
	repo := NewShiftRepository(db)

	starts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "time_slot_id", "volunteer_id", "status", "attended",
		"note", "starts_at", "ends_at", "created_at", "updated_at"}).
		AddRow("shift-1", "slot-1", "vol-1", "CANCELLED", false, "", starts, starts.Add(2*time.Hour), time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, time_slot_id, volunteer_id").
		WithArgs("vol-1", "slot-1").
		WillReturnRows(rows)

	shift, err := repo.FindByVolunteerAndSlot(context.Background(), "vol-1", "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "shift-1", shift.ID)
	assert.Equal(t, models.ShiftStatusCancelled, shift.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryFindByVolunteerAndSlotNotFound(t *testing.T) {
	db, mock, cleanup := newShiftMock(t)
	defer cleanup()
	repo := NewShiftRepository(db)

	mock.ExpectQuery("SELECT id, time_slot_id, volunteer_id").
		WithArgs("vol-1", "slot-9").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByVolunteerAndSlot(context.Background(), "vol-1", "slot-9")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newShiftMock(t)
	defer cleanup()
	repo := NewShiftRepository(db)

	mock.ExpectExec("INSERT INTO volunteer_shifts").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	starts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	shift := &models.VolunteerShift{
		TimeSlotID:  "slot-1",
		VolunteerID: "vol-1",
		Status:      models.ShiftStatusConfirmed,
		StartsAt:    starts,
		EndsAt:      starts.Add(2 * time.Hour),
	}
	err := repo.Create(context.Background(), shift)
	require.NoError(t, err)
	assert.NotEmpty(t, shift.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newShiftMock(t)
	defer cleanup()
	repo := NewShiftRepository(db)

	mock.ExpectExec("UPDATE volunteer_shifts SET status").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	shift := &models.VolunteerShift{ID: "shift-1", Status: models.ShiftStatusCompleted, Attended: true}
	err := repo.Update(context.Background(), shift)
	require.NoError(t, err)
	assert.False(t, shift.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryListForVenueBetween(t *testing.T) {
	db, mock, cleanup := newShiftMock(t)
	defer cleanup()
	repo := NewShiftRepository(db)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	starts := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "time_slot_id", "volunteer_id", "status", "attended",
		"note", "starts_at", "ends_at", "created_at", "updated_at",
		"venue_id", "venue_name", "venue_coordinator_id", "volunteer_name", "volunteer_email"}).
		AddRow("shift-1", "slot-1", "vol-1", "CONFIRMED", false, "", starts, starts.Add(2*time.Hour),
			time.Now(), time.Now(), "venue-1", "Library", "coord-1", "Alice", "alice@example.com")
	mock.ExpectQuery("SELECT sh.id, sh.time_slot_id").
		WithArgs("venue-1", models.ShiftStatusCancelled, from, to).
		WillReturnRows(rows)

	shifts, err := repo.ListForVenueBetween(context.Background(), "venue-1", from, to)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, "Alice", shifts[0].VolunteerName)
	assert.Equal(t, "coord-1", shifts[0].VenueCoordinatorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
