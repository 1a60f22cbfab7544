package models

import "time"

// ApplicationStatus is the review state of a volunteer application.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusApproved ApplicationStatus = "APPROVED"
	ApplicationStatusDeclined ApplicationStatus = "DECLINED"
)

// VolunteerApplication is a volunteer's request to serve at one venue.
// A volunteer holds at most one Pending application overall and at most one
// Approved application across all venues.
type VolunteerApplication struct {
	ID          string            `db:"id" json:"id"`
	VenueID     string            `db:"venue_id" json:"venue_id"`
	VolunteerID string            `db:"volunteer_id" json:"volunteer_id"`
	Status      ApplicationStatus `db:"status" json:"status"`
	Message     string            `db:"message" json:"message,omitempty"`
	DecidedAt   *time.Time        `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// VolunteerApplicationDetail adds venue and volunteer context.
type VolunteerApplicationDetail struct {
	VolunteerApplication
	VenueName          string `db:"venue_name" json:"venue_name"`
	VenueCoordinatorID string `db:"venue_coordinator_id" json:"-"`
	VolunteerName      string `db:"volunteer_name" json:"volunteer_name"`
	VolunteerEmail     string `db:"volunteer_email" json:"volunteer_email"`
}

// ShiftStatus is the lifecycle status of a volunteer shift.
type ShiftStatus string

const (
	ShiftStatusPending   ShiftStatus = "PENDING"
	ShiftStatusConfirmed ShiftStatus = "CONFIRMED"
	ShiftStatusCancelled ShiftStatus = "CANCELLED"
	ShiftStatusCompleted ShiftStatus = "COMPLETED"
)

// VolunteerShift is one volunteer's commitment to a concrete occurrence of a
// time slot. StartsAt/EndsAt are captured at signup so history survives later
// slot edits. At most one row exists per (time_slot, volunteer): re-signup
// after cancellation reactivates the row instead of inserting a new one.
type VolunteerShift struct {
	ID          string      `db:"id" json:"id"`
	TimeSlotID  string      `db:"time_slot_id" json:"time_slot_id"`
	VolunteerID string      `db:"volunteer_id" json:"volunteer_id"`
	Status      ShiftStatus `db:"status" json:"status"`
	Attended    bool        `db:"attended" json:"attended"`
	Note        string      `db:"note" json:"note,omitempty"`
	StartsAt    time.Time   `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time   `db:"ends_at" json:"ends_at"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// ShiftDetail adds slot, venue and volunteer context to a shift row.
type ShiftDetail struct {
	VolunteerShift
	VenueID            string `db:"venue_id" json:"venue_id"`
	VenueName          string `db:"venue_name" json:"venue_name"`
	VenueCoordinatorID string `db:"venue_coordinator_id" json:"-"`
	VolunteerName      string `db:"volunteer_name" json:"volunteer_name"`
	VolunteerEmail     string `db:"volunteer_email" json:"-"`
}

// ApplyRequest opens a volunteer application for one venue.
type ApplyRequest struct {
	VenueID string `json:"venue_id" validate:"required"`
	Message string `json:"message" validate:"max=500"`
}

// DecideApplicationRequest records the coordinator's decision.
type DecideApplicationRequest struct {
	Approve bool `json:"approve"`
}

// ShiftSignupRequest commits a volunteer to a time slot's next occurrence.
type ShiftSignupRequest struct {
	TimeSlotID string `json:"time_slot_id" validate:"required"`
	Note       string `json:"note" validate:"max=500"`
}

// MarkAttendanceRequest records whether the volunteer showed up. A nil Note
// leaves the stored note untouched.
type MarkAttendanceRequest struct {
	Attended bool    `json:"attended"`
	Note     *string `json:"note" validate:"omitempty,max=500"`
}

// VolunteerSubjectRow links an approved volunteer to a subject they teach.
type VolunteerSubjectRow struct {
	VolunteerID string `db:"volunteer_id"`
	SubjectName string `db:"subject_name"`
}
