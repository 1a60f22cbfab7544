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

type childRepository interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
	ListByParent(ctx context.Context, parentID string) ([]models.Child, error)
	Create(ctx context.Context, child *models.Child) error
	Update(ctx context.Context, child *models.Child) error
	Delete(ctx context.Context, id string) error
}

// ChildService lets parents manage their own children.
type ChildService struct {
	children childRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewChildService constructs the service.
func NewChildService(children childRepository, validate *validator.Validate, logger *zap.Logger) *ChildService {
	return &ChildService{children: children, validate: validate, logger: logger}
}

// List returns the acting parent's children.
func (s *ChildService) List(ctx context.Context, actor models.Actor) ([]models.Child, error) {
	return s.children.ListByParent(ctx, actor.UserID)
}

// Create registers a child under the acting parent.
func (s *ChildService) Create(ctx context.Context, actor models.Actor, req models.ChildRequest) (*models.Child, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid child request")
	}
	if actor.Role != models.RoleParent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only parents register children")
	}

	child := &models.Child{
		ParentID:  actor.UserID,
		FullName:  req.FullName,
		BirthYear: req.BirthYear,
		Notes:     req.Notes,
	}
	if err := s.children.Create(ctx, child); err != nil {
		return nil, fmt.Errorf("persist child: %w", err)
	}
	s.logger.Info("child registered",
		zap.String("child_id", child.ID),
		zap.String("parent_id", actor.UserID),
	)
	return child, nil
}

// Update mutates a child owned by the acting parent.
func (s *ChildService) Update(ctx context.Context, actor models.Actor, childID string, req models.ChildRequest) (*models.Child, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid child request")
	}

	child, err := s.owned(ctx, actor, childID)
	if err != nil {
		return nil, err
	}
	child.FullName = req.FullName
	child.BirthYear = req.BirthYear
	child.Notes = req.Notes
	if err := s.children.Update(ctx, child); err != nil {
		return nil, fmt.Errorf("update child: %w", err)
	}
	return child, nil
}

// Delete removes a child owned by the acting parent.
func (s *ChildService) Delete(ctx context.Context, actor models.Actor, childID string) error {
	if _, err := s.owned(ctx, actor, childID); err != nil {
		return err
	}
	if err := s.children.Delete(ctx, childID); err != nil {
		return fmt.Errorf("delete child: %w", err)
	}
	return nil
}

func (s *ChildService) owned(ctx context.Context, actor models.Actor, childID string) (*models.Child, error) {
	child, err := s.children.FindByID(ctx, childID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, fmt.Errorf("load child: %w", err)
	}
	if child.ParentID != actor.UserID && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "child belongs to another parent")
	}
	return child, nil
}
