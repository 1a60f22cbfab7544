package dto

import "time"

// CoordinatorDashboard summarises one venue's week for its coordinator.
// A coordinator without a venue receives the zero value.
type CoordinatorDashboard struct {
	VenueID             string            `json:"venue_id"`
	VenueName           string            `json:"venue_name"`
	BookingsThisWeek    int               `json:"bookings_this_week"`
	ApprovedVolunteers  int               `json:"approved_volunteers"`
	UpcomingOccurrences []ShiftOccurrence `json:"upcoming_occurrences"`
	UnfilledTimeSlots   int               `json:"unfilled_time_slots"`
	SubjectCoverage     []SubjectCoverage `json:"subject_coverage"`
	VolunteerHours      []VolunteerHours  `json:"volunteer_hours"`
}

// ShiftOccurrence groups the volunteers committed to one concrete occurrence.
type ShiftOccurrence struct {
	TimeSlotID     string    `json:"time_slot_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	VolunteerCount int       `json:"volunteer_count"`
	VolunteerNames []string  `json:"volunteer_names"`
	BookingCount   int       `json:"booking_count"`
	Subjects       []string  `json:"subjects"`
}

// SubjectCoverage counts the approved volunteers teaching one subject.
type SubjectCoverage struct {
	Subject    string `json:"subject"`
	Volunteers int    `json:"volunteers"`
}

// VolunteerHours totals one volunteer's scheduled hours in the current week.
type VolunteerHours struct {
	VolunteerID   string  `json:"volunteer_id"`
	VolunteerName string  `json:"volunteer_name"`
	Hours         float64 `json:"hours"`
}
