package repository

import (
	"context"
	"time"

	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// TimeSlotRepository handles persistence of time slots.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository constructs the repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// FindByID returns a time slot by its ID.
func (r *TimeSlotRepository) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	const query = `SELECT id, venue_id, day_of_week, start_time, end_time, max_capacity,
        recurring, specific_date, status, created_at, updated_at
        FROM time_slots WHERE id = $1`
	var slot models.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// FindDetailByID returns a time slot with venue context.
func (r *TimeSlotRepository) FindDetailByID(ctx context.Context, id string) (*models.TimeSlotDetail, error) {
	const query = `SELECT ts.id, ts.venue_id, ts.day_of_week, ts.start_time, ts.end_time,
        ts.max_capacity, ts.recurring, ts.specific_date, ts.status, ts.created_at, ts.updated_at,
        v.name AS venue_name, v.coordinator_id AS venue_coordinator_id
        FROM time_slots ts
        JOIN venues v ON v.id = ts.venue_id
        WHERE ts.id = $1`
	var detail models.TimeSlotDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByVenue returns all non-cancelled time slots of a venue.
func (r *TimeSlotRepository) ListByVenue(ctx context.Context, venueID string) ([]models.TimeSlot, error) {
	const query = `SELECT id, venue_id, day_of_week, start_time, end_time, max_capacity,
        recurring, specific_date, status, created_at, updated_at
        FROM time_slots WHERE venue_id = $1 AND status <> $2
        ORDER BY day_of_week, start_time`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, venueID, models.TimeSlotStatusCancelled); err != nil {
		return nil, fmt.Errorf("list venue time slots: %w", err)
	}
	return slots, nil
}

// ListOpenByVenues returns open slots with venue context for a set of venues.
func (r *TimeSlotRepository) ListOpenByVenues(ctx context.Context, venueIDs []string) ([]models.TimeSlotDetail, error) {
	if len(venueIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT ts.id, ts.venue_id, ts.day_of_week, ts.start_time, ts.end_time,
        ts.max_capacity, ts.recurring, ts.specific_date, ts.status, ts.created_at, ts.updated_at,
        v.name AS venue_name, v.coordinator_id AS venue_coordinator_id
        FROM time_slots ts
        JOIN venues v ON v.id = ts.venue_id
        WHERE ts.venue_id IN (?) AND ts.status = ?`, venueIDs, models.TimeSlotStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("build open slots query: %w", err)
	}
	query = r.db.Rebind(query)
	var slots []models.TimeSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list open time slots: %w", err)
	}
	return slots, nil
}

// ListActive returns every non-cancelled slot across venues. Used by the
// reconciliation sweep.
func (r *TimeSlotRepository) ListActive(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT id, venue_id, day_of_week, start_time, end_time, max_capacity,
        recurring, specific_date, status, created_at, updated_at
        FROM time_slots WHERE status <> $1`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, models.TimeSlotStatusCancelled); err != nil {
		return nil, fmt.Errorf("list active time slots: %w", err)
	}
	return slots, nil
}

// ExistsOverlapping reports whether another active slot of the venue overlaps
// the given day/time range. One-off slots only collide when they share the
// same specific date.
func (r *TimeSlotRepository) ExistsOverlapping(ctx context.Context, venueID, dayOfWeek string, specificDate *time.Time, startTime, endTime, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM time_slots
        WHERE venue_id = $1
          AND status <> $2
          AND id <> $3
          AND day_of_week = $4
          AND (specific_date IS NOT DISTINCT FROM $5)
          AND start_time < $7
          AND end_time > $6
    )`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query,
		venueID, models.TimeSlotStatusCancelled, excludeID, dayOfWeek, specificDate, startTime, endTime); err != nil {
		return false, fmt.Errorf("check slot overlap: %w", err)
	}
	return exists, nil
}

// Create inserts a new time slot.
func (r *TimeSlotRepository) Create(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now
	const query = `INSERT INTO time_slots (id, venue_id, day_of_week, start_time, end_time,
        max_capacity, recurring, specific_date, status, created_at, updated_at)
        VALUES (:id, :venue_id, :day_of_week, :start_time, :end_time,
        :max_capacity, :recurring, :specific_date, :status, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, slot)
	return err
}

// Update persists mutable slot fields.
func (r *TimeSlotRepository) Update(ctx context.Context, slot *models.TimeSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE time_slots SET day_of_week = :day_of_week, start_time = :start_time,
        end_time = :end_time, max_capacity = :max_capacity, recurring = :recurring,
        specific_date = :specific_date, status = :status, updated_at = :updated_at
        WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, slot)
	return err
}

// UpdateStatus flips the lifecycle status only.
func (r *TimeSlotRepository) UpdateStatus(ctx context.Context, id string, status models.TimeSlotStatus) error {
	const query = `UPDATE time_slots SET status = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	return err
}

// Delete removes a time slot row.
func (r *TimeSlotRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM time_slots WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
