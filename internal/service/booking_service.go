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
	"github.com/tutorhive/tutorhive-api/internal/schedule"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

const occurrenceDateLayout = "2006-01-02"

type bookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	CountConfirmed(ctx context.Context, timeSlotID string, occurrenceDate time.Time) (int, error)
	HasConfirmedForSubject(ctx context.Context, timeSlotID string, occurrenceDate time.Time, studentID, childID string) (bool, error)
	Create(ctx context.Context, booking *models.Booking) error
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus, cancelledAt *time.Time) error
	ListByBooker(ctx context.Context, userID string) ([]models.BookingDetail, error)
}

type bookingSlotReader interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	FindDetailByID(ctx context.Context, id string) (*models.TimeSlotDetail, error)
}

type bookingChildReader interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
}

type bookingUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// BookingServiceConfig tunes admission behaviour.
type BookingServiceConfig struct {
	CancellationWindow time.Duration
}

// BookingService implements booking admission control: role-aware subject
// determination, capacity and duplicate checks on create, and time-windowed
// cancellation.
type BookingService struct {
	bookings bookingRepository
	slots    bookingSlotReader
	children bookingChildReader
	users    bookingUserReader
	notify   *NotifyService
	cache    *CacheService
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger
	window   time.Duration
	now      func() time.Time
}

// NewBookingService constructs the service. now is injectable for tests and
// defaults to the UTC wall clock.
func NewBookingService(
	bookings bookingRepository,
	slots bookingSlotReader,
	children bookingChildReader,
	users bookingUserReader,
	notify *NotifyService,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg BookingServiceConfig,
	now func() time.Time,
) *BookingService {
	if cfg.CancellationWindow <= 0 {
		cfg.CancellationWindow = 2 * time.Hour
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &BookingService{
		bookings: bookings,
		slots:    slots,
		children: children,
		users:    users,
		notify:   notify,
		cache:    cache,
		metrics:  metrics,
		validate: validate,
		logger:   logger,
		window:   cfg.CancellationWindow,
		now:      now,
	}
}

// Create admits one booking for a concrete occurrence. Checks run in a fixed
// order: slot existence, subject determination, capacity, duplicate
// enrollment.
func (s *BookingService) Create(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*models.Booking, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking request")
	}

	occurrenceDate, err := time.ParseInLocation(occurrenceDateLayout, req.OccurrenceDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid occurrence date")
	}

	slot, err := s.slots.FindDetailByID(ctx, req.TimeSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, fmt.Errorf("load time slot: %w", err)
	}
	if slot.Status == models.TimeSlotStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "time slot is cancelled")
	}

	studentID, childID, err := s.determineSubject(ctx, actor, req.ChildID)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.bookings.CountConfirmed(ctx, slot.ID, occurrenceDate)
	if err != nil {
		return nil, err
	}
	if confirmed >= slot.MaxCapacity {
		s.metrics.RecordBookingAdmission("capacity")
		return nil, appErrors.ErrCapacityExceeded
	}

	duplicate, err := s.bookings.HasConfirmedForSubject(ctx, slot.ID, occurrenceDate, studentID, childID)
	if err != nil {
		return nil, err
	}
	if duplicate {
		s.metrics.RecordBookingAdmission("duplicate")
		return nil, appErrors.Clone(appErrors.ErrConflict, "a confirmed booking already exists for this session")
	}

	booking := &models.Booking{
		TimeSlotID:     slot.ID,
		OccurrenceDate: occurrenceDate,
		BookedByID:     actor.UserID,
		Status:         models.BookingStatusConfirmed,
	}
	if studentID != "" {
		booking.StudentID = &studentID
	}
	if childID != "" {
		booking.ChildID = &childID
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("persist booking: %w", err)
	}

	s.metrics.RecordBookingAdmission("accepted")
	s.invalidateDashboard(ctx, slot.VenueID)
	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("time_slot_id", slot.ID),
		zap.String("booked_by", actor.UserID),
	)
	s.notifyBooker(ctx, actor.UserID, func(email string) {
		s.notify.BookingConfirmed(email, slot.VenueName, req.OccurrenceDate, slot.StartTime)
	})
	return booking, nil
}

// determineSubject resolves who the seat is for. Parents must name one of
// their own children; students always book for themselves.
func (s *BookingService) determineSubject(ctx context.Context, actor models.Actor, childID string) (string, string, error) {
	switch actor.Role {
	case models.RoleParent:
		if childID == "" {
			return "", "", appErrors.Clone(appErrors.ErrValidation, "child_id is required for parent bookings")
		}
		child, err := s.children.FindByID(ctx, childID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", "", appErrors.Clone(appErrors.ErrNotFound, "child not found")
			}
			return "", "", fmt.Errorf("load child: %w", err)
		}
		if child.ParentID != actor.UserID {
			return "", "", appErrors.Clone(appErrors.ErrForbidden, "child does not belong to the requesting parent")
		}
		return "", child.ID, nil
	case models.RoleStudent:
		if childID != "" {
			return "", "", appErrors.Clone(appErrors.ErrValidation, "students book for themselves")
		}
		return actor.UserID, "", nil
	default:
		return "", "", appErrors.Clone(appErrors.ErrForbidden, "role cannot create bookings")
	}
}

// Cancel releases a seat. Only the booking's creator (or an admin) may
// cancel, and only while at least the configured window remains before the
// occurrence start.
func (s *BookingService) Cancel(ctx context.Context, actor models.Actor, bookingID string) error {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return fmt.Errorf("load booking: %w", err)
	}
	if booking.BookedByID != actor.UserID && actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only the booking creator may cancel")
	}
	if booking.Status != models.BookingStatusConfirmed {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "booking is not in a cancellable state")
	}

	slot, err := s.slots.FindDetailByID(ctx, booking.TimeSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return fmt.Errorf("load time slot: %w", err)
	}

	now := s.now().UTC()
	occ, ok := schedule.Next(slot.TimeSlot, now)
	if !ok {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "occurrence start cannot be determined")
	}
	if occ.Start.Sub(now) < s.window {
		return appErrors.ErrCancellationWindow
	}

	cancelledAt := now
	if err := s.bookings.UpdateStatus(ctx, booking.ID, models.BookingStatusCancelled, &cancelledAt); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}

	s.invalidateDashboard(ctx, slot.VenueID)
	s.logger.Info("booking cancelled",
		zap.String("booking_id", booking.ID),
		zap.String("cancelled_by", actor.UserID),
	)
	s.notifyBooker(ctx, booking.BookedByID, func(email string) {
		s.notify.BookingCancelled(email, slot.VenueName, booking.OccurrenceDate.Format(occurrenceDateLayout))
	})
	return nil
}

// ListMine returns the bookings the actor created, newest occurrence first.
func (s *BookingService) ListMine(ctx context.Context, actor models.Actor) ([]models.BookingDetail, error) {
	return s.bookings.ListByBooker(ctx, actor.UserID)
}

func (s *BookingService) invalidateDashboard(ctx context.Context, venueID string) {
	if err := s.cache.Invalidate(ctx, dashboardCachePattern(venueID)); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("venue_id", venueID), zap.Error(err))
	}
}

func (s *BookingService) notifyBooker(ctx context.Context, userID string, fn func(email string)) {
	if s.notify == nil || s.users == nil {
		return
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("booker lookup for notification failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	fn(user.Email)
}
