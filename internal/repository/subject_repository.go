package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// SubjectRepository handles persistence of subjects and their associations
// with time slots and volunteers.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns all subjects ordered by name.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, name, description, created_at FROM subjects ORDER BY name`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID returns a subject by its ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, description, created_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create inserts a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	subject.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO subjects (id, name, description, created_at)
        VALUES (:id, :name, :description, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, subject)
	return err
}

// ReplaceTimeSlotSubjects resets the subjects taught at a time slot.
func (r *SubjectRepository) ReplaceTimeSlotSubjects(ctx context.Context, timeSlotID string, subjectIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace slot subjects: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM time_slot_subjects WHERE time_slot_id = $1`, timeSlotID); err != nil {
		return fmt.Errorf("clear slot subjects: %w", err)
	}
	for _, subjectID := range subjectIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO time_slot_subjects (time_slot_id, subject_id) VALUES ($1, $2)`,
			timeSlotID, subjectID); err != nil {
			return fmt.Errorf("insert slot subject: %w", err)
		}
	}
	return tx.Commit()
}

// ListNamesByTimeSlot returns the distinct subject names taught at one slot.
func (r *SubjectRepository) ListNamesByTimeSlot(ctx context.Context, timeSlotID string) ([]string, error) {
	const query = `SELECT DISTINCT s.name FROM subjects s
        JOIN time_slot_subjects tss ON tss.subject_id = s.id
        WHERE tss.time_slot_id = $1 ORDER BY s.name`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, timeSlotID); err != nil {
		return nil, fmt.Errorf("list slot subject names: %w", err)
	}
	return names, nil
}

// ListNamesByTimeSlots returns subject names for a batch of slots.
func (r *SubjectRepository) ListNamesByTimeSlots(ctx context.Context, timeSlotIDs []string) ([]models.TimeSlotSubjectName, error) {
	if len(timeSlotIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT tss.time_slot_id, s.name FROM subjects s
        JOIN time_slot_subjects tss ON tss.subject_id = s.id
        WHERE tss.time_slot_id IN (?) ORDER BY s.name`, timeSlotIDs)
	if err != nil {
		return nil, fmt.Errorf("build slot subjects query: %w", err)
	}
	query = r.db.Rebind(query)
	var rows []models.TimeSlotSubjectName
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list slot subjects: %w", err)
	}
	return rows, nil
}

// ReplaceVolunteerSubjects resets the subjects a volunteer teaches.
func (r *SubjectRepository) ReplaceVolunteerSubjects(ctx context.Context, volunteerID string, subjectIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace volunteer subjects: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM volunteer_subjects WHERE volunteer_id = $1`, volunteerID); err != nil {
		return fmt.Errorf("clear volunteer subjects: %w", err)
	}
	for _, subjectID := range subjectIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO volunteer_subjects (volunteer_id, subject_id) VALUES ($1, $2)`,
			volunteerID, subjectID); err != nil {
			return fmt.Errorf("insert volunteer subject: %w", err)
		}
	}
	return tx.Commit()
}
