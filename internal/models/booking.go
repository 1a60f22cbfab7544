package models

import "time"

// BookingStatus is the lifecycle status of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusAttended  BookingStatus = "ATTENDED"
)

// Booking is one seat reservation for one calendar occurrence of a time slot.
// Exactly one of StudentID or ChildID is set. Rows are never deleted;
// cancellation flips the status and stamps CancelledAt.
type Booking struct {
	ID             string        `db:"id" json:"id"`
	TimeSlotID     string        `db:"time_slot_id" json:"time_slot_id"`
	OccurrenceDate time.Time     `db:"occurrence_date" json:"occurrence_date"`
	StudentID      *string       `db:"student_id" json:"student_id,omitempty"`
	ChildID        *string       `db:"child_id" json:"child_id,omitempty"`
	BookedByID     string        `db:"booked_by_id" json:"booked_by_id"`
	Status         BookingStatus `db:"status" json:"status"`
	CancelledAt    *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// BookingDetail adds slot and venue context for list views.
type BookingDetail struct {
	Booking
	VenueID     string `db:"venue_id" json:"venue_id"`
	VenueName   string `db:"venue_name" json:"venue_name"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
	SubjectName string `db:"subject_name" json:"subject_name,omitempty"`
}

// CreateBookingRequest reserves one seat on a concrete occurrence. ChildID is
// required for parents and must be absent for students.
type CreateBookingRequest struct {
	TimeSlotID     string `json:"time_slot_id" validate:"required"`
	OccurrenceDate string `json:"occurrence_date" validate:"required,datetime=2006-01-02"`
	ChildID        string `json:"child_id" validate:"omitempty"`
}

// OccurrenceBookingCount is a per-occurrence confirmed booking tally.
type OccurrenceBookingCount struct {
	TimeSlotID     string    `db:"time_slot_id"`
	OccurrenceDate time.Time `db:"occurrence_date"`
	Count          int       `db:"count"`
}
