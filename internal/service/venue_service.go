package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type venueRepository interface {
	List(ctx context.Context) ([]models.Venue, error)
	FindByID(ctx context.Context, id string) (*models.Venue, error)
	FindByCoordinator(ctx context.Context, coordinatorID string) (*models.Venue, error)
	Create(ctx context.Context, venue *models.Venue) error
	Update(ctx context.Context, venue *models.Venue) error
	Deactivate(ctx context.Context, id string) error
}

type venueUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// VenueService manages venues. Creation and deactivation are admin-only;
// coordinators may edit their own venue.
type VenueService struct {
	venues   venueRepository
	users    venueUserReader
	validate *validator.Validate
	logger   *zap.Logger
}

// NewVenueService constructs the service.
func NewVenueService(venues venueRepository, users venueUserReader, validate *validator.Validate, logger *zap.Logger) *VenueService {
	return &VenueService{venues: venues, users: users, validate: validate, logger: logger}
}

// List returns all active venues.
func (s *VenueService) List(ctx context.Context) ([]models.Venue, error) {
	return s.venues.List(ctx)
}

// Get returns one venue.
func (s *VenueService) Get(ctx context.Context, id string) (*models.Venue, error) {
	venue, err := s.venues.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, fmt.Errorf("load venue: %w", err)
	}
	return venue, nil
}

// Mine returns the acting coordinator's venue.
func (s *VenueService) Mine(ctx context.Context, actor models.Actor) (*models.Venue, error) {
	venue, err := s.venues.FindByCoordinator(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no venue assigned")
		}
		return nil, fmt.Errorf("resolve coordinator venue: %w", err)
	}
	return venue, nil
}

// Create opens a venue under a coordinator. A coordinator manages at most
// one active venue.
func (s *VenueService) Create(ctx context.Context, actor models.Actor, req models.CreateVenueRequest) (*models.Venue, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid venue request")
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins create venues")
	}

	coordinator, err := s.users.FindByID(ctx, req.CoordinatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coordinator not found")
		}
		return nil, fmt.Errorf("load coordinator: %w", err)
	}
	if coordinator.Role != models.RoleCoordinator {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assigned user is not a coordinator")
	}
	if _, err := s.venues.FindByCoordinator(ctx, coordinator.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "coordinator already manages a venue")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check coordinator venue: %w", err)
	}

	venue := &models.Venue{
		Name:          req.Name,
		Address:       req.Address,
		City:          req.City,
		CoordinatorID: coordinator.ID,
		Active:        true,
	}
	if err := s.venues.Create(ctx, venue); err != nil {
		return nil, fmt.Errorf("persist venue: %w", err)
	}

	s.logger.Info("venue created",
		zap.String("venue_id", venue.ID),
		zap.String("coordinator_id", venue.CoordinatorID),
	)
	return venue, nil
}

// Update mutates venue fields; nil request fields are left untouched.
func (s *VenueService) Update(ctx context.Context, actor models.Actor, venueID string, req models.UpdateVenueRequest) (*models.Venue, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid venue update")
	}

	venue, err := s.venues.FindByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, fmt.Errorf("load venue: %w", err)
	}
	if actor.Role != models.RoleAdmin && venue.CoordinatorID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "venue belongs to another coordinator")
	}

	if req.Name != nil {
		venue.Name = *req.Name
	}
	if req.Address != nil {
		venue.Address = *req.Address
	}
	if req.City != nil {
		venue.City = *req.City
	}
	if err := s.venues.Update(ctx, venue); err != nil {
		return nil, fmt.Errorf("update venue: %w", err)
	}
	return venue, nil
}

// Deactivate soft-deletes a venue.
func (s *VenueService) Deactivate(ctx context.Context, actor models.Actor, venueID string) error {
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins deactivate venues")
	}
	if _, err := s.venues.FindByID(ctx, venueID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return fmt.Errorf("load venue: %w", err)
	}
	if err := s.venues.Deactivate(ctx, venueID); err != nil {
		return fmt.Errorf("deactivate venue: %w", err)
	}
	s.logger.Info("venue deactivated",
		zap.String("venue_id", venueID),
		zap.String("deactivated_by", actor.UserID),
	)
	return nil
}
