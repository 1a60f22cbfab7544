package models

import (
	"strings"
	"time"
)

// TimeSlotStatus is the lifecycle status of a time slot.
type TimeSlotStatus string

const (
	TimeSlotStatusOpen      TimeSlotStatus = "OPEN"
	TimeSlotStatusFull      TimeSlotStatus = "FULL"
	TimeSlotStatusCancelled TimeSlotStatus = "CANCELLED"
)

// TimeSlot is a venue's offering pattern: either a weekly recurring slot
// (day-of-week + time-of-day) or a one-off on a specific date. Exactly one
// mode is active. EndTime at or before StartTime means the session crosses
// midnight.
type TimeSlot struct {
	ID           string         `db:"id" json:"id"`
	VenueID      string         `db:"venue_id" json:"venue_id"`
	DayOfWeek    string         `db:"day_of_week" json:"day_of_week"`
	StartTime    string         `db:"start_time" json:"start_time"`
	EndTime      string         `db:"end_time" json:"end_time"`
	MaxCapacity  int            `db:"max_capacity" json:"max_capacity"`
	Recurring    bool           `db:"recurring" json:"recurring"`
	SpecificDate *time.Time     `db:"specific_date" json:"specific_date,omitempty"`
	Status       TimeSlotStatus `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// TimeSlotDetail adds venue context to a time slot row.
type TimeSlotDetail struct {
	TimeSlot
	VenueName          string `db:"venue_name" json:"venue_name"`
	VenueCoordinatorID string `db:"venue_coordinator_id" json:"-"`
}

// CreateTimeSlotRequest declares a venue offering. A recurring slot needs a
// valid day of week; a one-off needs a specific date.
type CreateTimeSlotRequest struct {
	DayOfWeek    string   `json:"day_of_week" validate:"required"`
	StartTime    string   `json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string   `json:"end_time" validate:"required,datetime=15:04"`
	MaxCapacity  int      `json:"max_capacity" validate:"required,min=1,max=500"`
	Recurring    bool     `json:"recurring"`
	SpecificDate string   `json:"specific_date" validate:"omitempty,datetime=2006-01-02"`
	SubjectIDs   []string `json:"subject_ids" validate:"omitempty,dive,required"`
}

// UpdateTimeSlotRequest mutates an existing slot. Nil fields are left as-is.
type UpdateTimeSlotRequest struct {
	DayOfWeek   *string  `json:"day_of_week"`
	StartTime   *string  `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime     *string  `json:"end_time" validate:"omitempty,datetime=15:04"`
	MaxCapacity *int     `json:"max_capacity" validate:"omitempty,min=1,max=500"`
	Status      *string  `json:"status" validate:"omitempty,oneof=OPEN FULL CANCELLED"`
	SubjectIDs  []string `json:"subject_ids" validate:"omitempty,dive,required"`
}

// ParseWeekday maps an uppercase day name to a time.Weekday.
func ParseWeekday(day string) (time.Weekday, bool) {
	switch strings.ToUpper(strings.TrimSpace(day)) {
	case "SUNDAY":
		return time.Sunday, true
	case "MONDAY":
		return time.Monday, true
	case "TUESDAY":
		return time.Tuesday, true
	case "WEDNESDAY":
		return time.Wednesday, true
	case "THURSDAY":
		return time.Thursday, true
	case "FRIDAY":
		return time.Friday, true
	case "SATURDAY":
		return time.Saturday, true
	}
	return time.Sunday, false
}

// WeekdayName converts a time.Weekday back to its stored uppercase form.
func WeekdayName(d time.Weekday) string {
	return strings.ToUpper(d.String())
}
