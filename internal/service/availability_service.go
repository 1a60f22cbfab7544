package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/dto"
	"github.com/tutorhive/tutorhive-api/internal/models"
	"github.com/tutorhive/tutorhive-api/internal/schedule"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type availabilityApplicationReader interface {
	ApprovedVenueIDs(ctx context.Context, volunteerID string) ([]string, error)
}

type availabilitySlotReader interface {
	ListOpenByVenues(ctx context.Context, venueIDs []string) ([]models.TimeSlotDetail, error)
}

type availabilityShiftReader interface {
	ListUpcomingByVolunteer(ctx context.Context, volunteerID string, after time.Time) ([]models.VolunteerShift, error)
}

type availabilitySubjectReader interface {
	ListNamesByTimeSlots(ctx context.Context, timeSlotIDs []string) ([]models.TimeSlotSubjectName, error)
}

// AvailabilityServiceConfig bounds the look-ahead window.
type AvailabilityServiceConfig struct {
	LookaheadDays int
}

// AvailabilityService lists the bookable future occurrences a volunteer can
// still sign up for: open slots at venues they are approved for, minus slots
// they already hold an active upcoming shift for, within the look-ahead
// window.
type AvailabilityService struct {
	apps     availabilityApplicationReader
	slots    availabilitySlotReader
	shifts   availabilityShiftReader
	subjects availabilitySubjectReader
	logger   *zap.Logger
	lookhead int
	now      func() time.Time
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(
	apps availabilityApplicationReader,
	slots availabilitySlotReader,
	shifts availabilityShiftReader,
	subjects availabilitySubjectReader,
	logger *zap.Logger,
	cfg AvailabilityServiceConfig,
	now func() time.Time,
) *AvailabilityService {
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = 28
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &AvailabilityService{
		apps:     apps,
		slots:    slots,
		shifts:   shifts,
		subjects: subjects,
		logger:   logger,
		lookhead: cfg.LookaheadDays,
		now:      now,
	}
}

// ListForVolunteer resolves the availability view for the acting volunteer.
func (s *AvailabilityService) ListForVolunteer(ctx context.Context, actor models.Actor) ([]dto.AvailableOccurrence, error) {
	if actor.Role != models.RoleVolunteer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "availability is a volunteer view")
	}

	venueIDs, err := s.apps.ApprovedVenueIDs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(venueIDs) == 0 {
		return []dto.AvailableOccurrence{}, nil
	}

	slots, err := s.slots.ListOpenByVenues(ctx, venueIDs)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	horizon := today.AddDate(0, 0, s.lookhead)

	taken := map[string]struct{}{}
	upcoming, err := s.shifts.ListUpcomingByVolunteer(ctx, actor.UserID, now)
	if err != nil {
		return nil, err
	}
	for _, shift := range upcoming {
		taken[shift.TimeSlotID] = struct{}{}
	}

	type candidate struct {
		slot models.TimeSlotDetail
		date time.Time
	}
	candidates := make([]candidate, 0, len(slots))
	slotIDs := make([]string, 0, len(slots))
	for _, slot := range slots {
		if _, held := taken[slot.ID]; held {
			continue
		}
		date, ok := schedule.NextDate(slot.TimeSlot, now)
		if !ok {
			s.logger.Warn("skipping unresolvable time slot", zap.String("time_slot_id", slot.ID))
			continue
		}
		if date.Before(today) || date.After(horizon) {
			continue
		}
		candidates = append(candidates, candidate{slot: slot, date: date})
		slotIDs = append(slotIDs, slot.ID)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].date.Equal(candidates[j].date) {
			return candidates[i].date.Before(candidates[j].date)
		}
		return candidates[i].slot.StartTime < candidates[j].slot.StartTime
	})

	subjectsBySlot := map[string][]string{}
	if len(slotIDs) > 0 {
		rows, err := s.subjects.ListNamesByTimeSlots(ctx, slotIDs)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			subjectsBySlot[row.TimeSlotID] = append(subjectsBySlot[row.TimeSlotID], row.Name)
		}
	}

	out := make([]dto.AvailableOccurrence, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, dto.AvailableOccurrence{
			TimeSlotID: c.slot.ID,
			VenueID:    c.slot.VenueID,
			VenueName:  c.slot.VenueName,
			Date:       c.date.Format(occurrenceDateLayout),
			DayOfWeek:  models.WeekdayName(c.date.Weekday()),
			StartTime:  c.slot.StartTime,
			EndTime:    c.slot.EndTime,
			Recurring:  c.slot.Recurring,
			Subjects:   subjectsBySlot[c.slot.ID],
		})
	}
	return out, nil
}
