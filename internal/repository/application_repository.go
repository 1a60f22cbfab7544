package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// ApplicationRepository handles persistence of volunteer applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// FindByID returns an application by its ID.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.VolunteerApplication, error) {
	const query = `SELECT id, venue_id, volunteer_id, status, message, decided_at, created_at, updated_at
        FROM volunteer_applications WHERE id = $1`
	var app models.VolunteerApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindDetailByID returns an application with venue and volunteer context.
func (r *ApplicationRepository) FindDetailByID(ctx context.Context, id string) (*models.VolunteerApplicationDetail, error) {
	const query = `SELECT a.id, a.venue_id, a.volunteer_id, a.status, a.message, a.decided_at,
        a.created_at, a.updated_at,
        v.name AS venue_name, v.coordinator_id AS venue_coordinator_id,
        u.full_name AS volunteer_name, u.email AS volunteer_email
        FROM volunteer_applications a
        JOIN venues v ON v.id = a.venue_id
        JOIN users u ON u.id = a.volunteer_id
        WHERE a.id = $1`
	var detail models.VolunteerApplicationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// HasWithStatus reports whether the volunteer holds any application in the
// given status, across all venues.
func (r *ApplicationRepository) HasWithStatus(ctx context.Context, volunteerID string, status models.ApplicationStatus) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM volunteer_applications WHERE volunteer_id = $1 AND status = $2
    )`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, volunteerID, status); err != nil {
		return false, fmt.Errorf("check application status: %w", err)
	}
	return exists, nil
}

// HasApprovedForVenue reports whether the volunteer is approved at the venue.
func (r *ApplicationRepository) HasApprovedForVenue(ctx context.Context, volunteerID, venueID string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM volunteer_applications
        WHERE volunteer_id = $1 AND venue_id = $2 AND status = $3
    )`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, volunteerID, venueID, models.ApplicationStatusApproved); err != nil {
		return false, fmt.Errorf("check venue approval: %w", err)
	}
	return exists, nil
}

// ApprovedVenueIDs returns the venues a volunteer is approved for.
func (r *ApplicationRepository) ApprovedVenueIDs(ctx context.Context, volunteerID string) ([]string, error) {
	const query = `SELECT venue_id FROM volunteer_applications
        WHERE volunteer_id = $1 AND status = $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, volunteerID, models.ApplicationStatusApproved); err != nil {
		return nil, fmt.Errorf("list approved venues: %w", err)
	}
	return ids, nil
}

// CountApprovedForVenue counts distinct approved volunteers at a venue.
func (r *ApplicationRepository) CountApprovedForVenue(ctx context.Context, venueID string) (int, error) {
	const query = `SELECT COUNT(DISTINCT volunteer_id) FROM volunteer_applications
        WHERE venue_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, venueID, models.ApplicationStatusApproved); err != nil {
		return 0, fmt.Errorf("count approved volunteers: %w", err)
	}
	return count, nil
}

// ListApprovedVolunteerSubjects returns (volunteer, subject name) pairs for
// every approved volunteer of the venue and each subject they teach.
func (r *ApplicationRepository) ListApprovedVolunteerSubjects(ctx context.Context, venueID string) ([]models.VolunteerSubjectRow, error) {
	const query = `SELECT a.volunteer_id, s.name AS subject_name
        FROM volunteer_applications a
        JOIN volunteer_subjects vs ON vs.volunteer_id = a.volunteer_id
        JOIN subjects s ON s.id = vs.subject_id
        WHERE a.venue_id = $1 AND a.status = $2`
	var rows []models.VolunteerSubjectRow
	if err := r.db.SelectContext(ctx, &rows, query, venueID, models.ApplicationStatusApproved); err != nil {
		return nil, fmt.Errorf("list approved volunteer subjects: %w", err)
	}
	return rows, nil
}

// ListByVenue returns the venue's applications with volunteer context.
func (r *ApplicationRepository) ListByVenue(ctx context.Context, venueID string) ([]models.VolunteerApplicationDetail, error) {
	const query = `SELECT a.id, a.venue_id, a.volunteer_id, a.status, a.message, a.decided_at,
        a.created_at, a.updated_at,
        v.name AS venue_name, v.coordinator_id AS venue_coordinator_id,
        u.full_name AS volunteer_name, u.email AS volunteer_email
        FROM volunteer_applications a
        JOIN venues v ON v.id = a.venue_id
        JOIN users u ON u.id = a.volunteer_id
        WHERE a.venue_id = $1
        ORDER BY a.created_at DESC`
	var apps []models.VolunteerApplicationDetail
	if err := r.db.SelectContext(ctx, &apps, query, venueID); err != nil {
		return nil, fmt.Errorf("list venue applications: %w", err)
	}
	return apps, nil
}

// ListByVolunteer returns a volunteer's applications, newest first.
func (r *ApplicationRepository) ListByVolunteer(ctx context.Context, volunteerID string) ([]models.VolunteerApplicationDetail, error) {
	const query = `SELECT a.id, a.venue_id, a.volunteer_id, a.status, a.message, a.decided_at,
        a.created_at, a.updated_at,
        v.name AS venue_name, v.coordinator_id AS venue_coordinator_id,
        u.full_name AS volunteer_name, u.email AS volunteer_email
        FROM volunteer_applications a
        JOIN venues v ON v.id = a.venue_id
        JOIN users u ON u.id = a.volunteer_id
        WHERE a.volunteer_id = $1
        ORDER BY a.created_at DESC`
	var apps []models.VolunteerApplicationDetail
	if err := r.db.SelectContext(ctx, &apps, query, volunteerID); err != nil {
		return nil, fmt.Errorf("list volunteer applications: %w", err)
	}
	return apps, nil
}

// Create inserts a new application.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.VolunteerApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	const query = `INSERT INTO volunteer_applications (id, venue_id, volunteer_id, status, message, created_at, updated_at)
        VALUES (:id, :venue_id, :volunteer_id, :status, :message, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, app)
	return err
}

// UpdateDecision records the coordinator's decision.
func (r *ApplicationRepository) UpdateDecision(ctx context.Context, id string, status models.ApplicationStatus, decidedAt time.Time) error {
	const query = `UPDATE volunteer_applications SET status = $2, decided_at = $3, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status, decidedAt)
	return err
}
