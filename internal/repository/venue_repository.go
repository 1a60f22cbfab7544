package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// VenueRepository handles persistence of venues.
type VenueRepository struct {
	db *sqlx.DB
}

// NewVenueRepository constructs the repository.
func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

// List returns all active venues ordered by name.
func (r *VenueRepository) List(ctx context.Context) ([]models.Venue, error) {
	const query = `SELECT id, name, address, city, coordinator_id, active, created_at, updated_at
        FROM venues WHERE active = TRUE ORDER BY name`
	var venues []models.Venue
	if err := r.db.SelectContext(ctx, &venues, query); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return venues, nil
}

// FindByID returns a venue by its ID.
func (r *VenueRepository) FindByID(ctx context.Context, id string) (*models.Venue, error) {
	const query = `SELECT id, name, address, city, coordinator_id, active, created_at, updated_at
        FROM venues WHERE id = $1`
	var venue models.Venue
	if err := r.db.GetContext(ctx, &venue, query, id); err != nil {
		return nil, err
	}
	return &venue, nil
}

// FindByCoordinator returns the single active venue managed by a coordinator.
func (r *VenueRepository) FindByCoordinator(ctx context.Context, coordinatorID string) (*models.Venue, error) {
	const query = `SELECT id, name, address, city, coordinator_id, active, created_at, updated_at
        FROM venues WHERE coordinator_id = $1 AND active = TRUE`
	var venue models.Venue
	if err := r.db.GetContext(ctx, &venue, query, coordinatorID); err != nil {
		return nil, err
	}
	return &venue, nil
}

// Create inserts a new venue.
func (r *VenueRepository) Create(ctx context.Context, venue *models.Venue) error {
	if venue.ID == "" {
		venue.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	venue.CreatedAt = now
	venue.UpdatedAt = now
	const query = `INSERT INTO venues (id, name, address, city, coordinator_id, active, created_at, updated_at)
        VALUES (:id, :name, :address, :city, :coordinator_id, :active, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, venue)
	return err
}

// Update persists mutable venue fields.
func (r *VenueRepository) Update(ctx context.Context, venue *models.Venue) error {
	venue.UpdatedAt = time.Now().UTC()
	const query = `UPDATE venues SET name = :name, address = :address, city = :city,
        coordinator_id = :coordinator_id, active = :active, updated_at = :updated_at
        WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, venue)
	return err
}

// Deactivate soft-deletes a venue.
func (r *VenueRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE venues SET active = FALSE, updated_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	return err
}
