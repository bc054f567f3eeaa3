package store

import (
	"context"
	"fmt"

	"designer-onboarding/internal/models"

	"github.com/jmoiron/sqlx"
)

const applicationColumns = `id, brand_name, designer_name, email, phone, website, instagram,
	location, category, description, year_founded, status, notes, reviewed_at, created_at, updated_at`

// ApplicationStore reads and writes designer_applications.
type ApplicationStore struct {
	db *sqlx.DB
}

func NewApplicationStore(db *sqlx.DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

// GetByID returns ErrNotFound when no application has id.
func (s *ApplicationStore) GetByID(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	query := `SELECT ` + applicationColumns + ` FROM designer_applications WHERE id = $1`
	if err := s.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

// UpdateStatus writes a review transition and returns the updated row.
// Notes and reviewed_at are only overwritten when set on upd.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, id string, upd models.StatusUpdate) (*models.Application, error) {
	query := `
		UPDATE designer_applications
		SET status = $2,
			notes = COALESCE($3, notes),
			updated_at = $4,
			reviewed_at = COALESCE($5, reviewed_at)
		WHERE id = $1
		RETURNING ` + applicationColumns

	var app models.Application
	err := s.db.GetContext(ctx, &app, query, id, string(upd.Status), upd.Notes, upd.UpdatedAt, upd.ReviewedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

// CountPendingSiblings counts other applications for the same brand name and
// email that have not been approved.
func (s *ApplicationStore) CountPendingSiblings(ctx context.Context, brandName, email, excludeID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM designer_applications
		WHERE brand_name = $1 AND email = $2 AND id <> $3 AND status <> $4`

	var count int
	if err := s.db.GetContext(ctx, &count, query, brandName, email, excludeID, string(models.StatusApproved)); err != nil {
		return 0, fmt.Errorf("count sibling applications: %w", err)
	}
	return count, nil
}

// Delete removes the application and reports how many rows went away.
func (s *ApplicationStore) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM designer_applications WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
