package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// ChildRepository handles persistence of children.
type ChildRepository struct {
	db *sqlx.DB
}

// NewChildRepository constructs the repository.
func NewChildRepository(db *sqlx.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// FindByID returns a child by its ID.
func (r *ChildRepository) FindByID(ctx context.Context, id string) (*models.Child, error) {
	const query = `SELECT id, parent_id, full_name, birth_year, notes, created_at, updated_at
        FROM children WHERE id = $1`
	var child models.Child
	if err := r.db.GetContext(ctx, &child, query, id); err != nil {
		return nil, err
	}
	return &child, nil
}

// ListByParent returns the children registered by a parent.
func (r *ChildRepository) ListByParent(ctx context.Context, parentID string) ([]models.Child, error) {
	const query = `SELECT id, parent_id, full_name, birth_year, notes, created_at, updated_at
        FROM children WHERE parent_id = $1 ORDER BY full_name`
	var children []models.Child
	if err := r.db.SelectContext(ctx, &children, query, parentID); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}

// Create inserts a new child.
func (r *ChildRepository) Create(ctx context.Context, child *models.Child) error {
	if child.ID == "" {
		child.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	child.CreatedAt = now
	child.UpdatedAt = now
	const query = `INSERT INTO children (id, parent_id, full_name, birth_year, notes, created_at, updated_at)
        VALUES (:id, :parent_id, :full_name, :birth_year, :notes, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, child)
	return err
}

// Update persists mutable child fields.
func (r *ChildRepository) Update(ctx context.Context, child *models.Child) error {
	child.UpdatedAt = time.Now().UTC()
	const query = `UPDATE children SET full_name = :full_name, birth_year = :birth_year,
        notes = :notes, updated_at = :updated_at WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, child)
	return err
}

// Delete removes a child row.
func (r *ChildRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM children WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
