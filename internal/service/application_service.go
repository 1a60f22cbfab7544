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

type applicationRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.VolunteerApplicationDetail, error)
	HasWithStatus(ctx context.Context, volunteerID string, status models.ApplicationStatus) (bool, error)
	ListByVenue(ctx context.Context, venueID string) ([]models.VolunteerApplicationDetail, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]models.VolunteerApplicationDetail, error)
	Create(ctx context.Context, app *models.VolunteerApplication) error
	UpdateDecision(ctx context.Context, id string, status models.ApplicationStatus, decidedAt time.Time) error
}

type applicationVenueReader interface {
	FindByID(ctx context.Context, id string) (*models.Venue, error)
	FindByCoordinator(ctx context.Context, coordinatorID string) (*models.Venue, error)
}

// ApplicationService manages the volunteer application lifecycle: at most
// one pending application at a time and at most one approved venue overall.
type ApplicationService struct {
	apps     applicationRepository
	venues   applicationVenueReader
	notify   *NotifyService
	cache    *CacheService
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewApplicationService constructs the service.
func NewApplicationService(
	apps applicationRepository,
	venues applicationVenueReader,
	notify *NotifyService,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
	now func() time.Time,
) *ApplicationService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ApplicationService{
		apps:     apps,
		venues:   venues,
		notify:   notify,
		cache:    cache,
		validate: validate,
		logger:   logger,
		now:      now,
	}
}

// Apply opens a pending application for the acting volunteer.
func (s *ApplicationService) Apply(ctx context.Context, actor models.Actor, req models.ApplyRequest) (*models.VolunteerApplication, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application request")
	}
	if actor.Role != models.RoleVolunteer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only volunteers apply to venues")
	}

	venue, err := s.venues.FindByID(ctx, req.VenueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, fmt.Errorf("load venue: %w", err)
	}
	if !venue.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "venue is not active")
	}

	pending, err := s.apps.HasWithStatus(ctx, actor.UserID, models.ApplicationStatusPending)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a pending application already exists")
	}
	approved, err := s.apps.HasWithStatus(ctx, actor.UserID, models.ApplicationStatusApproved)
	if err != nil {
		return nil, err
	}
	if approved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "volunteer is already approved at a venue")
	}

	app := &models.VolunteerApplication{
		VenueID:     venue.ID,
		VolunteerID: actor.UserID,
		Status:      models.ApplicationStatusPending,
		Message:     req.Message,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("persist application: %w", err)
	}

	s.logger.Info("application created",
		zap.String("application_id", app.ID),
		zap.String("venue_id", venue.ID),
		zap.String("volunteer_id", actor.UserID),
	)
	return app, nil
}

// Decide records the coordinator's decision on a pending application.
func (s *ApplicationService) Decide(ctx context.Context, actor models.Actor, applicationID string, req models.DecideApplicationRequest) (*models.VolunteerApplication, error) {
	detail, err := s.apps.FindDetailByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, fmt.Errorf("load application: %w", err)
	}
	if actor.Role != models.RoleAdmin {
		if actor.Role != models.RoleCoordinator || detail.VenueCoordinatorID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "application belongs to another coordinator's venue")
		}
	}
	if detail.Status != models.ApplicationStatusPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "application has already been decided")
	}

	status := models.ApplicationStatusDeclined
	if req.Approve {
		// The single-venue commitment rule: an approval elsewhere blocks
		// this one even though the application predates it.
		alreadyApproved, err := s.apps.HasWithStatus(ctx, detail.VolunteerID, models.ApplicationStatusApproved)
		if err != nil {
			return nil, err
		}
		if alreadyApproved {
			return nil, appErrors.Clone(appErrors.ErrConflict, "volunteer is already approved at another venue")
		}
		status = models.ApplicationStatusApproved
	}

	decidedAt := s.now().UTC()
	if err := s.apps.UpdateDecision(ctx, detail.ID, status, decidedAt); err != nil {
		return nil, fmt.Errorf("record decision: %w", err)
	}

	if status == models.ApplicationStatusApproved {
		if err := s.cache.Invalidate(ctx, dashboardCachePattern(detail.VenueID)); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.String("venue_id", detail.VenueID), zap.Error(err))
		}
	}
	s.logger.Info("application decided",
		zap.String("application_id", detail.ID),
		zap.String("status", string(status)),
		zap.String("decided_by", actor.UserID),
	)
	if s.notify != nil {
		s.notify.ApplicationDecided(detail.VolunteerEmail, detail.VenueName, req.Approve)
	}

	decided := detail.VolunteerApplication
	decided.Status = status
	decided.DecidedAt = &decidedAt
	return &decided, nil
}

// ListForVenue returns the applications for the coordinator's venue.
func (s *ApplicationService) ListForVenue(ctx context.Context, actor models.Actor) ([]models.VolunteerApplicationDetail, error) {
	venue, err := s.venues.FindByCoordinator(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.VolunteerApplicationDetail{}, nil
		}
		return nil, fmt.Errorf("resolve coordinator venue: %w", err)
	}
	return s.apps.ListByVenue(ctx, venue.ID)
}

// ListMine returns the acting volunteer's applications, newest first.
func (s *ApplicationService) ListMine(ctx context.Context, actor models.Actor) ([]models.VolunteerApplicationDetail, error) {
	return s.apps.ListByVolunteer(ctx, actor.UserID)
}
