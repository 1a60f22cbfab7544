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

type shiftRepository interface {
	FindByID(ctx context.Context, id string) (*models.VolunteerShift, error)
	FindDetailByID(ctx context.Context, id string) (*models.ShiftDetail, error)
	FindByVolunteerAndSlot(ctx context.Context, volunteerID, timeSlotID string) (*models.VolunteerShift, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]models.ShiftDetail, error)
	Create(ctx context.Context, shift *models.VolunteerShift) error
	Update(ctx context.Context, shift *models.VolunteerShift) error
}

type shiftSlotReader interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	FindDetailByID(ctx context.Context, id string) (*models.TimeSlotDetail, error)
}

type shiftApprovalReader interface {
	HasApprovedForVenue(ctx context.Context, volunteerID, venueID string) (bool, error)
}

type shiftUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

const shiftStartLayout = "2006-01-02 15:04 MST"

// ShiftServiceConfig tunes shift lifecycle behaviour.
type ShiftServiceConfig struct {
	CancellationWindow time.Duration
}

// ShiftService implements the volunteer shift lifecycle: approval-gated
// signup with row reactivation, idempotent time-windowed cancellation, and
// terminal attendance marking.
type ShiftService struct {
	shifts   shiftRepository
	slots    shiftSlotReader
	apps     shiftApprovalReader
	users    shiftUserReader
	notify   *NotifyService
	cache    *CacheService
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger
	window   time.Duration
	now      func() time.Time
}

// NewShiftService constructs the service. now is injectable for tests and
// defaults to the UTC wall clock.
func NewShiftService(
	shifts shiftRepository,
	slots shiftSlotReader,
	apps shiftApprovalReader,
	users shiftUserReader,
	notify *NotifyService,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ShiftServiceConfig,
	now func() time.Time,
) *ShiftService {
	if cfg.CancellationWindow <= 0 {
		cfg.CancellationWindow = 2 * time.Hour
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ShiftService{
		shifts:   shifts,
		slots:    slots,
		apps:     apps,
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

// Signup commits the volunteer to the slot's next occurrence. A volunteer
// must hold an approved application for the slot's venue. An existing
// cancelled row for the (slot, volunteer) pair is reactivated instead of
// inserting a second row.
func (s *ShiftService) Signup(ctx context.Context, actor models.Actor, req models.ShiftSignupRequest) (*models.VolunteerShift, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup request")
	}
	if actor.Role != models.RoleVolunteer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only volunteers sign up for shifts")
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

	approved, err := s.apps.HasApprovedForVenue(ctx, actor.UserID, slot.VenueID)
	if err != nil {
		return nil, err
	}
	if !approved {
		s.metrics.RecordShiftSignup("unapproved")
		return nil, appErrors.Clone(appErrors.ErrForbidden, "volunteer is not approved for this venue")
	}

	existing, err := s.shifts.FindByVolunteerAndSlot(ctx, actor.UserID, slot.ID)
	switch {
	case err == nil:
		if existing.Status != models.ShiftStatusCancelled {
			s.metrics.RecordShiftSignup("duplicate")
			return nil, appErrors.Clone(appErrors.ErrConflict, "shift already exists for this time slot")
		}
		existing.Status = models.ShiftStatusConfirmed
		existing.Attended = false
		if req.Note != "" {
			existing.Note = req.Note
		}
		if err := s.shifts.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("reactivate shift: %w", err)
		}
		s.metrics.RecordShiftSignup("reactivated")
		s.invalidateDashboard(ctx, slot.VenueID)
		s.logger.Info("shift reactivated",
			zap.String("shift_id", existing.ID),
			zap.String("volunteer_id", actor.UserID),
		)
		s.notifyVolunteer(ctx, actor.UserID, func(email string) {
			s.notify.ShiftConfirmed(email, slot.VenueName, existing.StartsAt.UTC().Format(shiftStartLayout))
		})
		return existing, nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to create
	default:
		return nil, fmt.Errorf("load existing shift: %w", err)
	}

	occ, ok := schedule.Next(slot.TimeSlot, s.now().UTC())
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "time slot has no resolvable occurrence")
	}

	shift := &models.VolunteerShift{
		TimeSlotID:  slot.ID,
		VolunteerID: actor.UserID,
		Status:      models.ShiftStatusConfirmed,
		Note:        req.Note,
		StartsAt:    occ.Start,
		EndsAt:      occ.End,
	}
	if err := s.shifts.Create(ctx, shift); err != nil {
		return nil, fmt.Errorf("persist shift: %w", err)
	}

	s.metrics.RecordShiftSignup("accepted")
	s.invalidateDashboard(ctx, slot.VenueID)
	s.logger.Info("shift created",
		zap.String("shift_id", shift.ID),
		zap.String("volunteer_id", actor.UserID),
		zap.Time("starts_at", shift.StartsAt),
	)
	s.notifyVolunteer(ctx, actor.UserID, func(email string) {
		s.notify.ShiftConfirmed(email, slot.VenueName, shift.StartsAt.UTC().Format(shiftStartLayout))
	})
	return shift, nil
}

// Cancel withdraws the volunteer from a shift. Cancelling an already
// cancelled shift is a no-op success; a completed shift can never be
// cancelled.
func (s *ShiftService) Cancel(ctx context.Context, actor models.Actor, shiftID string) error {
	shift, err := s.shifts.FindByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return fmt.Errorf("load shift: %w", err)
	}
	if shift.VolunteerID != actor.UserID && actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only the shift's volunteer may cancel")
	}
	if shift.Status == models.ShiftStatusCancelled {
		return nil
	}
	if shift.Status == models.ShiftStatusCompleted {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "completed shifts cannot be cancelled")
	}

	slot, err := s.slots.FindByID(ctx, shift.TimeSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return fmt.Errorf("load time slot: %w", err)
	}

	now := s.now().UTC()
	occ, ok := schedule.Next(*slot, now)
	if !ok {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "occurrence start cannot be determined")
	}
	if occ.Start.Sub(now) < s.window {
		return appErrors.ErrCancellationWindow
	}

	shift.Status = models.ShiftStatusCancelled
	if err := s.shifts.Update(ctx, shift); err != nil {
		return fmt.Errorf("cancel shift: %w", err)
	}

	s.invalidateDashboard(ctx, slot.VenueID)
	s.logger.Info("shift cancelled",
		zap.String("shift_id", shift.ID),
		zap.String("volunteer_id", shift.VolunteerID),
	)
	return nil
}

// MarkAttendance records whether the volunteer showed up and completes the
// shift. Only the coordinator managing the shift's venue (or an admin) may
// mark it; the transition to Completed is terminal.
func (s *ShiftService) MarkAttendance(ctx context.Context, actor models.Actor, shiftID string, req models.MarkAttendanceRequest) (*models.VolunteerShift, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance request")
	}

	detail, err := s.shifts.FindDetailByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, fmt.Errorf("load shift: %w", err)
	}
	if actor.Role != models.RoleAdmin {
		if actor.Role != models.RoleCoordinator || detail.VenueCoordinatorID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "shift belongs to another coordinator's venue")
		}
	}
	if detail.Status == models.ShiftStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cancelled shifts cannot be marked")
	}

	shift := detail.VolunteerShift
	shift.Attended = req.Attended
	if req.Note != nil {
		shift.Note = *req.Note
	}
	shift.Status = models.ShiftStatusCompleted
	if err := s.shifts.Update(ctx, &shift); err != nil {
		return nil, fmt.Errorf("mark attendance: %w", err)
	}

	s.invalidateDashboard(ctx, detail.VenueID)
	s.logger.Info("attendance marked",
		zap.String("shift_id", shift.ID),
		zap.Bool("attended", shift.Attended),
		zap.String("marked_by", actor.UserID),
	)
	return &shift, nil
}

// ListMine returns all of the actor's shifts, newest first.
func (s *ShiftService) ListMine(ctx context.Context, actor models.Actor) ([]models.ShiftDetail, error) {
	return s.shifts.ListByVolunteer(ctx, actor.UserID)
}

func (s *ShiftService) notifyVolunteer(ctx context.Context, userID string, fn func(email string)) {
	if s.notify == nil || s.users == nil {
		return
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("volunteer lookup for notification failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	fn(user.Email)
}

func (s *ShiftService) invalidateDashboard(ctx context.Context, venueID string) {
	if err := s.cache.Invalidate(ctx, dashboardCachePattern(venueID)); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("venue_id", venueID), zap.Error(err))
	}
}
