package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	ReplaceVolunteerSubjects(ctx context.Context, volunteerID string, subjectIDs []string) error
}

// SubjectService manages the subject catalogue and volunteer teaching
// declarations.
type SubjectService struct {
	subjects subjectRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSubjectService constructs the service.
func NewSubjectService(subjects subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	return &SubjectService{subjects: subjects, validate: validate, logger: logger}
}

// List returns all subjects.
func (s *SubjectService) List(ctx context.Context) ([]models.Subject, error) {
	return s.subjects.List(ctx)
}

// Create registers a subject. Admin-only.
func (s *SubjectService) Create(ctx context.Context, actor models.Actor, req models.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject request")
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins create subjects")
	}

	subject := &models.Subject{Name: req.Name, Description: req.Description}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, fmt.Errorf("persist subject: %w", err)
	}
	s.logger.Info("subject created", zap.String("subject_id", subject.ID), zap.String("name", subject.Name))
	return subject, nil
}

// SetVolunteerSubjects replaces the acting volunteer's teaching subjects.
func (s *SubjectService) SetVolunteerSubjects(ctx context.Context, actor models.Actor, req models.SetVolunteerSubjectsRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subjects request")
	}
	if actor.Role != models.RoleVolunteer {
		return appErrors.Clone(appErrors.ErrForbidden, "only volunteers declare teaching subjects")
	}
	if err := s.subjects.ReplaceVolunteerSubjects(ctx, actor.UserID, req.SubjectIDs); err != nil {
		return fmt.Errorf("replace volunteer subjects: %w", err)
	}
	return nil
}
