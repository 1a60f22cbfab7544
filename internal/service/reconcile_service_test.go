package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

type mockReconcileSlots struct {
	slots   []models.TimeSlot
	flipped map[string]models.TimeSlotStatus
}

func (m *mockReconcileSlots) ListActive(ctx context.Context) ([]models.TimeSlot, error) {
	return m.slots, nil
}

func (m *mockReconcileSlots) UpdateStatus(ctx context.Context, id string, status models.TimeSlotStatus) error {
	if m.flipped == nil {
		m.flipped = make(map[string]models.TimeSlotStatus)
	}
	m.flipped[id] = status
	return nil
}

type mockReconcileBookings struct {
	counts []models.OccurrenceBookingCount
}

func (m *mockReconcileBookings) ConfirmedCountsSince(ctx context.Context, from time.Time) ([]models.OccurrenceBookingCount, error) {
	return m.counts, nil
}

func TestReconcileFlipsStatuses(t *testing.T) {
	// Monday 2026-03-02 07:00; every slot's next occurrence is today.
	now := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mondaySlot := func(id string, capacity int, status models.TimeSlotStatus) models.TimeSlot {
		return models.TimeSlot{
			ID: id, VenueID: "venue-1", DayOfWeek: "MONDAY",
			StartTime: "10:00", EndTime: "12:00",
			MaxCapacity: capacity, Recurring: true, Status: status,
		}
	}

	slots := &mockReconcileSlots{slots: []models.TimeSlot{
		mondaySlot("slot-full", 2, models.TimeSlotStatusOpen),     // at capacity, should flip to FULL
		mondaySlot("slot-freed", 2, models.TimeSlotStatusFull),    // below capacity, should reopen
		mondaySlot("slot-steady", 2, models.TimeSlotStatusOpen),   // below capacity, stays OPEN
		mondaySlot("slot-overrun", 1, models.TimeSlotStatusFull),  // above capacity, stays FULL
	}}
	bookings := &mockReconcileBookings{counts: []models.OccurrenceBookingCount{
		{TimeSlotID: "slot-full", OccurrenceDate: monday, Count: 2},
		{TimeSlotID: "slot-freed", OccurrenceDate: monday, Count: 1},
		{TimeSlotID: "slot-overrun", OccurrenceDate: monday, Count: 3},
	}}

	svc := NewReconcileService(slots, bookings, zap.NewNop(), func() time.Time { return now })
	require.NoError(t, svc.Run(context.Background()))

	assert.Equal(t, models.TimeSlotStatusFull, slots.flipped["slot-full"])
	assert.Equal(t, models.TimeSlotStatusOpen, slots.flipped["slot-freed"])
	assert.NotContains(t, slots.flipped, "slot-steady")
	assert.NotContains(t, slots.flipped, "slot-overrun")
}

func TestReconcileSkipsMalformedSlots(t *testing.T) {
	now := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	slots := &mockReconcileSlots{slots: []models.TimeSlot{
		{ID: "bad", DayOfWeek: "FUNDAY", StartTime: "10:00", EndTime: "12:00", MaxCapacity: 1, Recurring: true, Status: models.TimeSlotStatusOpen},
	}}
	svc := NewReconcileService(slots, &mockReconcileBookings{}, zap.NewNop(), func() time.Time { return now })

	require.NoError(t, svc.Run(context.Background()))
	assert.Empty(t, slots.flipped)
}
