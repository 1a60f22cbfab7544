package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type timeSlotRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	FindDetailByID(ctx context.Context, id string) (*models.TimeSlotDetail, error)
	ListByVenue(ctx context.Context, venueID string) ([]models.TimeSlot, error)
	ExistsOverlapping(ctx context.Context, venueID, dayOfWeek string, specificDate *time.Time, startTime, endTime, excludeID string) (bool, error)
	Create(ctx context.Context, slot *models.TimeSlot) error
	Update(ctx context.Context, slot *models.TimeSlot) error
	Delete(ctx context.Context, id string) error
}

type timeSlotVenueReader interface {
	FindByID(ctx context.Context, id string) (*models.Venue, error)
}

type timeSlotBookingReader interface {
	CountConfirmedFuture(ctx context.Context, timeSlotID string, from time.Time) (int, error)
}

type timeSlotSubjectWriter interface {
	ReplaceTimeSlotSubjects(ctx context.Context, timeSlotID string, subjectIDs []string) error
	ListNamesByTimeSlot(ctx context.Context, timeSlotID string) ([]string, error)
}

// TimeSlotService manages a venue's offering patterns. Mutations are limited
// to the venue's coordinator and admins.
type TimeSlotService struct {
	slots    timeSlotRepository
	venues   timeSlotVenueReader
	bookings timeSlotBookingReader
	subjects timeSlotSubjectWriter
	cache    *CacheService
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewTimeSlotService constructs the service.
func NewTimeSlotService(
	slots timeSlotRepository,
	venues timeSlotVenueReader,
	bookings timeSlotBookingReader,
	subjects timeSlotSubjectWriter,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
	now func() time.Time,
) *TimeSlotService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &TimeSlotService{
		slots:    slots,
		venues:   venues,
		bookings: bookings,
		subjects: subjects,
		cache:    cache,
		validate: validate,
		logger:   logger,
		now:      now,
	}
}

func (s *TimeSlotService) authorizeVenue(actor models.Actor, venue *models.Venue) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if actor.Role == models.RoleCoordinator && venue.CoordinatorID == actor.UserID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "venue belongs to another coordinator")
}

// Create adds a slot to the venue after checking the pattern is coherent and
// does not overlap an existing active slot.
func (s *TimeSlotService) Create(ctx context.Context, actor models.Actor, venueID string, req models.CreateTimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot request")
	}

	venue, err := s.venues.FindByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, fmt.Errorf("load venue: %w", err)
	}
	if err := s.authorizeVenue(actor, venue); err != nil {
		return nil, err
	}

	day, ok := models.ParseWeekday(req.DayOfWeek)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown day of week")
	}

	var specificDate *time.Time
	if req.SpecificDate != "" {
		parsed, err := time.ParseInLocation(occurrenceDateLayout, req.SpecificDate, time.UTC)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid specific date")
		}
		specificDate = &parsed
	}
	if !req.Recurring && specificDate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a one-time slot needs a specific date")
	}

	dayName := models.WeekdayName(day)
	overlapping, err := s.slots.ExistsOverlapping(ctx, venue.ID, dayName, specificDate, req.StartTime, req.EndTime, "")
	if err != nil {
		return nil, err
	}
	if overlapping {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an overlapping time slot already exists")
	}

	slot := &models.TimeSlot{
		VenueID:      venue.ID,
		DayOfWeek:    dayName,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		MaxCapacity:  req.MaxCapacity,
		Recurring:    req.Recurring,
		SpecificDate: specificDate,
		Status:       models.TimeSlotStatusOpen,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("persist time slot: %w", err)
	}
	if len(req.SubjectIDs) > 0 {
		if err := s.subjects.ReplaceTimeSlotSubjects(ctx, slot.ID, req.SubjectIDs); err != nil {
			return nil, fmt.Errorf("attach slot subjects: %w", err)
		}
	}

	s.invalidateDashboard(ctx, venue.ID)
	s.logger.Info("time slot created",
		zap.String("time_slot_id", slot.ID),
		zap.String("venue_id", venue.ID),
		zap.String("created_by", actor.UserID),
	)
	return slot, nil
}

// Update mutates an existing slot; nil request fields are left untouched.
func (s *TimeSlotService) Update(ctx context.Context, actor models.Actor, slotID string, req models.UpdateTimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot update")
	}

	detail, err := s.slots.FindDetailByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, fmt.Errorf("load time slot: %w", err)
	}
	venue := &models.Venue{ID: detail.VenueID, CoordinatorID: detail.VenueCoordinatorID}
	if err := s.authorizeVenue(actor, venue); err != nil {
		return nil, err
	}

	slot := detail.TimeSlot
	if req.DayOfWeek != nil {
		day, ok := models.ParseWeekday(*req.DayOfWeek)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown day of week")
		}
		slot.DayOfWeek = models.WeekdayName(day)
	}
	if req.StartTime != nil {
		slot.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		slot.EndTime = *req.EndTime
	}
	if req.MaxCapacity != nil {
		slot.MaxCapacity = *req.MaxCapacity
	}
	if req.Status != nil {
		slot.Status = models.TimeSlotStatus(*req.Status)
	}

	overlapping, err := s.slots.ExistsOverlapping(ctx, slot.VenueID, slot.DayOfWeek, slot.SpecificDate, slot.StartTime, slot.EndTime, slot.ID)
	if err != nil {
		return nil, err
	}
	if overlapping {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an overlapping time slot already exists")
	}

	if err := s.slots.Update(ctx, &slot); err != nil {
		return nil, fmt.Errorf("update time slot: %w", err)
	}
	if req.SubjectIDs != nil {
		if err := s.subjects.ReplaceTimeSlotSubjects(ctx, slot.ID, req.SubjectIDs); err != nil {
			return nil, fmt.Errorf("replace slot subjects: %w", err)
		}
	}

	s.invalidateDashboard(ctx, slot.VenueID)
	return &slot, nil
}

// Delete removes a slot, guarded against losing confirmed future bookings.
func (s *TimeSlotService) Delete(ctx context.Context, actor models.Actor, slotID string) error {
	detail, err := s.slots.FindDetailByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return fmt.Errorf("load time slot: %w", err)
	}
	venue := &models.Venue{ID: detail.VenueID, CoordinatorID: detail.VenueCoordinatorID}
	if err := s.authorizeVenue(actor, venue); err != nil {
		return err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	future, err := s.bookings.CountConfirmedFuture(ctx, slotID, today)
	if err != nil {
		return err
	}
	if future > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "time slot has confirmed future bookings")
	}

	if err := s.slots.Delete(ctx, slotID); err != nil {
		return fmt.Errorf("delete time slot: %w", err)
	}
	s.invalidateDashboard(ctx, detail.VenueID)
	s.logger.Info("time slot deleted",
		zap.String("time_slot_id", slotID),
		zap.String("deleted_by", actor.UserID),
	)
	return nil
}

// Get returns one slot with venue context and its subjects.
func (s *TimeSlotService) Get(ctx context.Context, slotID string) (*models.TimeSlotDetail, []string, error) {
	detail, err := s.slots.FindDetailByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, nil, fmt.Errorf("load time slot: %w", err)
	}
	subjects, err := s.subjects.ListNamesByTimeSlot(ctx, slotID)
	if err != nil {
		return nil, nil, err
	}
	return detail, subjects, nil
}

// ListForVenue returns a venue's non-cancelled slots.
func (s *TimeSlotService) ListForVenue(ctx context.Context, venueID string) ([]models.TimeSlot, error) {
	if _, err := s.venues.FindByID(ctx, venueID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, fmt.Errorf("load venue: %w", err)
	}
	return s.slots.ListByVenue(ctx, venueID)
}

func (s *TimeSlotService) invalidateDashboard(ctx context.Context, venueID string) {
	if err := s.cache.Invalidate(ctx, dashboardCachePattern(venueID)); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("venue_id", venueID), zap.Error(err))
	}
}
