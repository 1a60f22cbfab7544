// Package schedule derives concrete calendar occurrences from time-slot
// recurrence rules. All computations are UTC.
package schedule

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// Occurrence is a concrete (start, end) instant pair derived from a time slot.
type Occurrence struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Next resolves the next occurrence of the slot at or after ref.
//
// A specific date anchors the occurrence regardless of the recurring flag.
// For a recurring slot the occurrence lands on the nearest matching weekday;
// when that weekday is today but the start instant has already passed, the
// occurrence rolls forward one week. An end time at or before the start time
// puts the end instant on the following calendar day.
//
// The second return value is false for a malformed slot: a non-recurring slot
// without a specific date, an unparseable weekday, or unparseable clock times.
func Next(slot models.TimeSlot, ref time.Time) (Occurrence, bool) {
	ref = ref.UTC()

	startHour, startMin, ok := parseClock(slot.StartTime)
	if !ok {
		return Occurrence{}, false
	}
	endHour, endMin, ok := parseClock(slot.EndTime)
	if !ok {
		return Occurrence{}, false
	}

	var date time.Time
	switch {
	case slot.SpecificDate != nil:
		date = truncateToDay(slot.SpecificDate.UTC())
	case slot.Recurring:
		target, ok := models.ParseWeekday(slot.DayOfWeek)
		if !ok {
			return Occurrence{}, false
		}
		today := truncateToDay(ref)
		offset := (int(target) - int(today.Weekday()) + 7) % 7
		date = today.AddDate(0, 0, offset)
		if offset == 0 {
			start := at(date, startHour, startMin)
			if !start.After(ref) {
				date = date.AddDate(0, 0, 7)
			}
		}
	default:
		return Occurrence{}, false
	}

	start := at(date, startHour, startMin)
	end := at(date, endHour, endMin)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return Occurrence{Start: start, End: end}, true
}

// NextDate returns the calendar date the slot next lands on, at or after ref.
// Unlike Next it ignores the start clock entirely: a recurring slot whose
// weekday is today yields today even if the session has already begun. This is
// the sort key for availability listings.
func NextDate(slot models.TimeSlot, ref time.Time) (time.Time, bool) {
	ref = ref.UTC()
	if slot.SpecificDate != nil {
		return truncateToDay(slot.SpecificDate.UTC()), true
	}
	if !slot.Recurring {
		return time.Time{}, false
	}
	target, ok := models.ParseWeekday(slot.DayOfWeek)
	if !ok {
		return time.Time{}, false
	}

	today := truncateToDay(ref)
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekday(target)},
		Dtstart:   today,
	})
	if err != nil {
		return time.Time{}, false
	}
	next := rule.After(today, true)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

func rruleWeekday(d time.Weekday) rrule.Weekday {
	switch d {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

func parseClock(raw string) (hour, minute int, ok bool) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func at(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
}
