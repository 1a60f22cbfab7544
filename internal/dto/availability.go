package dto

// AvailableOccurrence is one bookable future occurrence offered to a
// volunteer, sorted by date then start time.
type AvailableOccurrence struct {
	TimeSlotID string   `json:"time_slot_id"`
	VenueID    string   `json:"venue_id"`
	VenueName  string   `json:"venue_name"`
	Date       string   `json:"date"`
	DayOfWeek  string   `json:"day_of_week"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	Recurring  bool     `json:"recurring"`
	Subjects   []string `json:"subjects"`
}
