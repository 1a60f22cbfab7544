package models

import "time"

// Venue is a physical location where tutoring sessions run. A coordinator
// manages at most one active venue.
type Venue struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Address       string    `db:"address" json:"address"`
	City          string    `db:"city" json:"city"`
	CoordinatorID string    `db:"coordinator_id" json:"coordinator_id"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Child is a booking subject managed by a parent account.
type Child struct {
	ID        string    `db:"id" json:"id"`
	ParentID  string    `db:"parent_id" json:"parent_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	BirthYear int       `db:"birth_year" json:"birth_year"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Subject is a topic taught at time slots.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CreateVenueRequest opens a venue under a coordinator.
type CreateVenueRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	Address       string `json:"address" validate:"required,max=300"`
	City          string `json:"city" validate:"required,max=100"`
	CoordinatorID string `json:"coordinator_id" validate:"required"`
}

// UpdateVenueRequest mutates venue fields. Nil fields are left as-is.
type UpdateVenueRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=200"`
	Address *string `json:"address" validate:"omitempty,max=300"`
	City    *string `json:"city" validate:"omitempty,max=100"`
}

// ChildRequest creates or updates a child under the calling parent.
type ChildRequest struct {
	FullName  string `json:"full_name" validate:"required,max=200"`
	BirthYear int    `json:"birth_year" validate:"required,min=1990,max=2100"`
	Notes     string `json:"notes" validate:"max=500"`
}

// CreateSubjectRequest registers a new subject.
type CreateSubjectRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// SetVolunteerSubjectsRequest replaces the subjects a volunteer teaches.
type SetVolunteerSubjectsRequest struct {
	SubjectIDs []string `json:"subject_ids" validate:"required,dive,required"`
}

// TimeSlotSubjectName links a subject name to a time slot for list views.
type TimeSlotSubjectName struct {
	TimeSlotID string `db:"time_slot_id"`
	Name       string `db:"name"`
}
