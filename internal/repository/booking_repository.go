package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// BookingRepository handles persistence of bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// FindByID returns a booking by its ID.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	const query = `SELECT id, time_slot_id, occurrence_date, student_id, child_id, booked_by_id,
        status, cancelled_at, created_at, updated_at
        FROM bookings WHERE id = $1`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CountConfirmed counts confirmed bookings for one occurrence of a slot.
func (r *BookingRepository) CountConfirmed(ctx context.Context, timeSlotID string, occurrenceDate time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM bookings
        WHERE time_slot_id = $1 AND occurrence_date = $2 AND status = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, timeSlotID, occurrenceDate, models.BookingStatusConfirmed); err != nil {
		return 0, fmt.Errorf("count confirmed bookings: %w", err)
	}
	return count, nil
}

// HasConfirmedForSubject reports whether the given student or child already
// holds a confirmed booking for the occurrence. Empty subject IDs never match.
func (r *BookingRepository) HasConfirmedForSubject(ctx context.Context, timeSlotID string, occurrenceDate time.Time, studentID, childID string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM bookings
        WHERE time_slot_id = $1 AND occurrence_date = $2 AND status = $3
          AND (($4 <> '' AND student_id = $4) OR ($5 <> '' AND child_id = $5))
    )`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query,
		timeSlotID, occurrenceDate, models.BookingStatusConfirmed, studentID, childID); err != nil {
		return false, fmt.Errorf("check duplicate booking: %w", err)
	}
	return exists, nil
}

// CountConfirmedFuture counts confirmed bookings for a slot on or after the
// given date. Used as the delete guard for time slots.
func (r *BookingRepository) CountConfirmedFuture(ctx context.Context, timeSlotID string, from time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM bookings
        WHERE time_slot_id = $1 AND occurrence_date >= $2 AND status = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, timeSlotID, from, models.BookingStatusConfirmed); err != nil {
		return 0, fmt.Errorf("count future bookings: %w", err)
	}
	return count, nil
}

// Create inserts a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	const query = `INSERT INTO bookings (id, time_slot_id, occurrence_date, student_id, child_id,
        booked_by_id, status, created_at, updated_at)
        VALUES (:id, :time_slot_id, :occurrence_date, :student_id, :child_id,
        :booked_by_id, :status, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, booking)
	return err
}

// UpdateStatus mutates status and the cancellation stamp; rows are never deleted.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, cancelledAt *time.Time) error {
	const query = `UPDATE bookings SET status = $2, cancelled_at = $3, updated_at = $4 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status, cancelledAt, time.Now().UTC())
	return err
}

// ListByBooker returns the bookings created by one user, newest occurrence first.
func (r *BookingRepository) ListByBooker(ctx context.Context, userID string) ([]models.BookingDetail, error) {
	const query = `SELECT b.id, b.time_slot_id, b.occurrence_date, b.student_id, b.child_id,
        b.booked_by_id, b.status, b.cancelled_at, b.created_at, b.updated_at,
        ts.start_time, ts.end_time, v.id AS venue_id, v.name AS venue_name
        FROM bookings b
        JOIN time_slots ts ON ts.id = b.time_slot_id
        JOIN venues v ON v.id = ts.venue_id
        WHERE b.booked_by_id = $1
        ORDER BY b.occurrence_date DESC, ts.start_time DESC`
	var bookings []models.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, fmt.Errorf("list bookings by booker: %w", err)
	}
	return bookings, nil
}

// ListForVenueBetween returns a venue's bookings whose occurrence date falls
// in [from, to).
func (r *BookingRepository) ListForVenueBetween(ctx context.Context, venueID string, from, to time.Time) ([]models.Booking, error) {
	const query = `SELECT b.id, b.time_slot_id, b.occurrence_date, b.student_id, b.child_id,
        b.booked_by_id, b.status, b.cancelled_at, b.created_at, b.updated_at
        FROM bookings b
        JOIN time_slots ts ON ts.id = b.time_slot_id
        WHERE ts.venue_id = $1 AND b.occurrence_date >= $2 AND b.occurrence_date < $3`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, venueID, from, to); err != nil {
		return nil, fmt.Errorf("list venue bookings: %w", err)
	}
	return bookings, nil
}

// ConfirmedCountsSince tallies confirmed bookings per (slot, occurrence date)
// from the given date on. Used by the reconciliation sweep.
func (r *BookingRepository) ConfirmedCountsSince(ctx context.Context, from time.Time) ([]models.OccurrenceBookingCount, error) {
	const query = `SELECT time_slot_id, occurrence_date, COUNT(*) AS count
        FROM bookings
        WHERE status = $1 AND occurrence_date >= $2
        GROUP BY time_slot_id, occurrence_date`
	var counts []models.OccurrenceBookingCount
	if err := r.db.SelectContext(ctx, &counts, query, models.BookingStatusConfirmed, from); err != nil {
		return nil, fmt.Errorf("tally confirmed bookings: %w", err)
	}
	return counts, nil
}
