package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

const shiftDetailColumns = `sh.id, sh.time_slot_id, sh.volunteer_id, sh.status, sh.attended,
        sh.note, sh.starts_at, sh.ends_at, sh.created_at, sh.updated_at,
        v.id AS venue_id, v.name AS venue_name, v.coordinator_id AS venue_coordinator_id,
        u.full_name AS volunteer_name, u.email AS volunteer_email`

const shiftDetailJoins = `FROM volunteer_shifts sh
        JOIN time_slots ts ON ts.id = sh.time_slot_id
        JOIN venues v ON v.id = ts.venue_id
        JOIN users u ON u.id = sh.volunteer_id`

// ShiftRepository handles persistence of volunteer shifts.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository constructs the repository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// FindByID returns a shift by its ID.
func (r *ShiftRepository) FindByID(ctx context.Context, id string) (*models.VolunteerShift, error) {
	const query = `SELECT id, time_slot_id, volunteer_id, status, attended, note,
        starts_at, ends_at, created_at, updated_at
        FROM volunteer_shifts WHERE id = $1`
	var shift models.VolunteerShift
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// FindDetailByID returns a shift with slot, venue and volunteer context.
func (r *ShiftRepository) FindDetailByID(ctx context.Context, id string) (*models.ShiftDetail, error) {
	query := `SELECT ` + shiftDetailColumns + ` ` + shiftDetailJoins + ` WHERE sh.id = $1`
	var detail models.ShiftDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByVolunteerAndSlot returns the unique shift row for a (slot, volunteer)
// pair, regardless of status.
func (r *ShiftRepository) FindByVolunteerAndSlot(ctx context.Context, volunteerID, timeSlotID string) (*models.VolunteerShift, error) {
	const query = `SELECT id, time_slot_id, volunteer_id, status, attended, note,
        starts_at, ends_at, created_at, updated_at
        FROM volunteer_shifts WHERE volunteer_id = $1 AND time_slot_id = $2`
	var shift models.VolunteerShift
	if err := r.db.GetContext(ctx, &shift, query, volunteerID, timeSlotID); err != nil {
		return nil, err
	}
	return &shift, nil
}

// ListUpcomingByVolunteer returns the volunteer's non-cancelled shifts
// starting at or after the given instant.
func (r *ShiftRepository) ListUpcomingByVolunteer(ctx context.Context, volunteerID string, after time.Time) ([]models.VolunteerShift, error) {
	const query = `SELECT id, time_slot_id, volunteer_id, status, attended, note,
        starts_at, ends_at, created_at, updated_at
        FROM volunteer_shifts
        WHERE volunteer_id = $1 AND status <> $2 AND starts_at >= $3
        ORDER BY starts_at`
	var shifts []models.VolunteerShift
	if err := r.db.SelectContext(ctx, &shifts, query, volunteerID, models.ShiftStatusCancelled, after); err != nil {
		return nil, fmt.Errorf("list upcoming shifts: %w", err)
	}
	return shifts, nil
}

// ListByVolunteer returns all of a volunteer's shifts with context, newest first.
func (r *ShiftRepository) ListByVolunteer(ctx context.Context, volunteerID string) ([]models.ShiftDetail, error) {
	query := `SELECT ` + shiftDetailColumns + ` ` + shiftDetailJoins +
		` WHERE sh.volunteer_id = $1 ORDER BY sh.starts_at DESC`
	var shifts []models.ShiftDetail
	if err := r.db.SelectContext(ctx, &shifts, query, volunteerID); err != nil {
		return nil, fmt.Errorf("list volunteer shifts: %w", err)
	}
	return shifts, nil
}

// ListForVenueBetween returns the venue's non-cancelled shifts whose start
// falls in [from, to).
func (r *ShiftRepository) ListForVenueBetween(ctx context.Context, venueID string, from, to time.Time) ([]models.ShiftDetail, error) {
	query := `SELECT ` + shiftDetailColumns + ` ` + shiftDetailJoins +
		` WHERE v.id = $1 AND sh.status <> $2 AND sh.starts_at >= $3 AND sh.starts_at < $4
        ORDER BY sh.starts_at`
	var shifts []models.ShiftDetail
	if err := r.db.SelectContext(ctx, &shifts, query, venueID, models.ShiftStatusCancelled, from, to); err != nil {
		return nil, fmt.Errorf("list venue shifts: %w", err)
	}
	return shifts, nil
}

// Create inserts a new shift.
func (r *ShiftRepository) Create(ctx context.Context, shift *models.VolunteerShift) error {
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	shift.CreatedAt = now
	shift.UpdatedAt = now
	const query = `INSERT INTO volunteer_shifts (id, time_slot_id, volunteer_id, status, attended,
        note, starts_at, ends_at, created_at, updated_at)
        VALUES (:id, :time_slot_id, :volunteer_id, :status, :attended,
        :note, :starts_at, :ends_at, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, shift)
	return err
}

// Update persists the mutable lifecycle fields of a shift.
func (r *ShiftRepository) Update(ctx context.Context, shift *models.VolunteerShift) error {
	shift.UpdatedAt = time.Now().UTC()
	const query = `UPDATE volunteer_shifts SET status = :status, attended = :attended,
        note = :note, starts_at = :starts_at, ends_at = :ends_at, updated_at = :updated_at
        WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, shift)
	return err
}
