package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	"github.com/tutorhive/tutorhive-api/internal/schedule"
)

type reconcileSlotStore interface {
	ListActive(ctx context.Context) ([]models.TimeSlot, error)
	UpdateStatus(ctx context.Context, id string, status models.TimeSlotStatus) error
}

type reconcileBookingReader interface {
	ConfirmedCountsSince(ctx context.Context, from time.Time) ([]models.OccurrenceBookingCount, error)
}

// ReconcileService is the periodic backstop behind the best-effort admission
// checks: it flips slot status between Open and Full based on actual
// confirmed counts for the next occurrence, and logs any capacity overruns
// produced by admission races.
type ReconcileService struct {
	slots    reconcileSlotStore
	bookings reconcileBookingReader
	logger   *zap.Logger
	now      func() time.Time
}

// NewReconcileService constructs the service.
func NewReconcileService(slots reconcileSlotStore, bookings reconcileBookingReader, logger *zap.Logger, now func() time.Time) *ReconcileService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ReconcileService{slots: slots, bookings: bookings, logger: logger, now: now}
}

// Run performs one sweep. Errors on individual slots are logged and skipped
// so a bad row never stalls the rest of the sweep.
func (s *ReconcileService) Run(ctx context.Context) error {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts, err := s.bookings.ConfirmedCountsSince(ctx, today)
	if err != nil {
		return err
	}
	countByKey := make(map[string]int, len(counts))
	for _, c := range counts {
		countByKey[c.TimeSlotID+"|"+c.OccurrenceDate.UTC().Format(occurrenceDateLayout)] = c.Count
	}

	slots, err := s.slots.ListActive(ctx)
	if err != nil {
		return err
	}

	flipped := 0
	for _, slot := range slots {
		occ, ok := schedule.Next(slot, now)
		if !ok {
			s.logger.Warn("skipping unresolvable time slot", zap.String("time_slot_id", slot.ID))
			continue
		}
		key := slot.ID + "|" + occ.Start.Format(occurrenceDateLayout)
		confirmed := countByKey[key]

		if confirmed > slot.MaxCapacity {
			s.logger.Warn("capacity overrun detected",
				zap.String("time_slot_id", slot.ID),
				zap.String("occurrence_date", occ.Start.Format(occurrenceDateLayout)),
				zap.Int("confirmed", confirmed),
				zap.Int("max_capacity", slot.MaxCapacity),
			)
		}

		var target models.TimeSlotStatus
		switch {
		case confirmed >= slot.MaxCapacity && slot.Status == models.TimeSlotStatusOpen:
			target = models.TimeSlotStatusFull
		case confirmed < slot.MaxCapacity && slot.Status == models.TimeSlotStatusFull:
			target = models.TimeSlotStatusOpen
		default:
			continue
		}
		if err := s.slots.UpdateStatus(ctx, slot.ID, target); err != nil {
			s.logger.Error("slot status flip failed",
				zap.String("time_slot_id", slot.ID),
				zap.String("target", string(target)),
				zap.Error(err),
			)
			continue
		}
		flipped++
	}

	s.logger.Info("reconciliation sweep finished",
		zap.Int("slots", len(slots)),
		zap.Int("flipped", flipped),
	)
	return nil
}
