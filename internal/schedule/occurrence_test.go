package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

func recurringSlot(day, start, end string) models.TimeSlot {
	return models.TimeSlot{
		ID:          "slot-1",
		DayOfWeek:   day,
		StartTime:   start,
		EndTime:     end,
		MaxCapacity: 10,
		Recurring:   true,
		Status:      models.TimeSlotStatusOpen,
	}
}

func dateSlot(date time.Time, start, end string) models.TimeSlot {
	d := date
	return models.TimeSlot{
		ID:          "slot-1",
		StartTime:   start,
		EndTime:     end,
		MaxCapacity: 10,
		SpecificDate: &d,
		Status:      models.TimeSlotStatusOpen,
	}
}

func TestNextRecurringSameWeek(t *testing.T) {
	// 2024-04-01 is a Monday.
	ref := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	occ, ok := Next(recurringSlot("WEDNESDAY", "16:00", "18:00"), ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 4, 3, 16, 0, 0, 0, time.UTC), occ.Start)
	assert.Equal(t, time.Date(2024, 4, 3, 18, 0, 0, 0, time.UTC), occ.End)
}

func TestNextRecurringTodayNotYetStarted(t *testing.T) {
	ref := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	occ, ok := Next(recurringSlot("MONDAY", "16:00", "18:00"), ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 4, 1, 16, 0, 0, 0, time.UTC), occ.Start)
}

func TestNextRecurringTodayAlreadyStartedRollsForward(t *testing.T) {
	ref := time.Date(2024, 4, 1, 16, 0, 0, 0, time.UTC)
	occ, ok := Next(recurringSlot("MONDAY", "16:00", "18:00"), ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 4, 8, 16, 0, 0, 0, time.UTC), occ.Start,
		"a start exactly at the reference instant has passed")
}

func TestNextOvernightEndsNextDay(t *testing.T) {
	ref := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	occ, ok := Next(recurringSlot("MONDAY", "22:00", "02:00"), ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 4, 1, 22, 0, 0, 0, time.UTC), occ.Start)
	assert.Equal(t, time.Date(2024, 4, 2, 2, 0, 0, 0, time.UTC), occ.End)
}

func TestNextEqualStartEndTreatedAsOvernight(t *testing.T) {
	ref := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	occ, ok := Next(recurringSlot("MONDAY", "18:00", "18:00"), ref)
	require.True(t, ok)
	assert.Equal(t, occ.Start.AddDate(0, 0, 1), occ.End)
}

func TestNextSpecificDateWinsOverRecurrence(t *testing.T) {
	slot := recurringSlot("MONDAY", "10:00", "12:00")
	date := time.Date(2024, 4, 19, 0, 0, 0, 0, time.UTC) // a Friday
	slot.SpecificDate = &date

	occ, ok := Next(slot, time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 4, 19, 10, 0, 0, 0, time.UTC), occ.Start)
}

func TestNextOneTimeSlot(t *testing.T) {
	slot := dateSlot(time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), "10:00", "12:00")
	occ, ok := Next(slot, time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC), occ.Start)
	assert.Equal(t, time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC), occ.End)
}

func TestNextMalformedSlot(t *testing.T) {
	slot := models.TimeSlot{StartTime: "10:00", EndTime: "12:00", Recurring: false}
	_, ok := Next(slot, time.Now().UTC())
	assert.False(t, ok, "non-recurring slot without a date has no occurrence")

	slot = recurringSlot("FUNDAY", "10:00", "12:00")
	_, ok = Next(slot, time.Now().UTC())
	assert.False(t, ok)

	slot = recurringSlot("MONDAY", "25:00", "12:00")
	_, ok = Next(slot, time.Now().UTC())
	assert.False(t, ok)
}

func TestNextIsIdempotent(t *testing.T) {
	ref := time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)
	slot := recurringSlot("THURSDAY", "17:30", "19:00")

	first, ok := Next(slot, ref)
	require.True(t, ok)
	second, ok := Next(slot, ref)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestNextIsMonotonic(t *testing.T) {
	slot := recurringSlot("TUESDAY", "14:00", "16:00")
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	prev, ok := Next(slot, base)
	require.True(t, ok)
	for hours := 1; hours <= 21*24; hours += 7 {
		ref := base.Add(time.Duration(hours) * time.Hour)
		occ, ok := Next(slot, ref)
		require.True(t, ok)
		assert.False(t, occ.Start.Before(prev.Start), "occurrence moved backwards at ref %s", ref)
		assert.True(t, occ.Start.After(ref), "resolved start must be strictly after the reference instant")
		prev = occ
	}
}

func TestNextDateRecurringIgnoresClock(t *testing.T) {
	// Monday 23:00, well after a 16:00 session started.
	ref := time.Date(2024, 4, 1, 23, 0, 0, 0, time.UTC)
	date, ok := NextDate(recurringSlot("MONDAY", "16:00", "18:00"), ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), date,
		"availability sort key stays on the literal next calendar date")
}

func TestNextDateRecurringLaterWeekday(t *testing.T) {
	ref := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	date, ok := NextDate(recurringSlot("SATURDAY", "10:00", "12:00"), ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 4, 6, 0, 0, 0, 0, time.UTC), date)
}

func TestNextDateSpecific(t *testing.T) {
	slot := dateSlot(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), "10:00", "12:00")
	date, ok := NextDate(slot, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), date)
}

func TestNextDateMalformed(t *testing.T) {
	_, ok := NextDate(models.TimeSlot{Recurring: false}, time.Now().UTC())
	assert.False(t, ok)
}
