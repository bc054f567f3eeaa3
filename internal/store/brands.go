package store

import (
	"context"
	"time"

	"designer-onboarding/internal/models"

	"github.com/jmoiron/sqlx"
)

const brandColumns = `id, name, contact_email, description, location, category, categories,
	website, instagram, whatsapp, founded_year, is_verified, rating, price_range, created_at, updated_at`

// BrandStore reads and writes the brands table.
type BrandStore struct {
	db *sqlx.DB
}

func NewBrandStore(db *sqlx.DB) *BrandStore {
	return &BrandStore{db: db}
}

// FindUnverified looks up the unverified brand for (name, contact_email).
func (s *BrandStore) FindUnverified(ctx context.Context, name, contactEmail string) (*models.Brand, error) {
	return s.findByKey(ctx, name, contactEmail, false)
}

// FindVerified looks up the oldest verified brand for (name, contact_email).
func (s *BrandStore) FindVerified(ctx context.Context, name, contactEmail string) (*models.Brand, error) {
	return s.findByKey(ctx, name, contactEmail, true)
}

func (s *BrandStore) findByKey(ctx context.Context, name, contactEmail string, verified bool) (*models.Brand, error) {
	query := `SELECT ` + brandColumns + ` FROM brands
		WHERE name = $1 AND contact_email = $2 AND is_verified = $3
		ORDER BY created_at ASC
		LIMIT 1`

	var brand models.Brand
	if err := s.db.GetContext(ctx, &brand, query, name, contactEmail, verified); err != nil {
		return nil, notFound(err)
	}
	return &brand, nil
}

// Create inserts brand and fills its timestamps from the database.
func (s *BrandStore) Create(ctx context.Context, brand *models.Brand) error {
	query := `
		INSERT INTO brands (id, name, contact_email, description, location, category, categories,
			website, instagram, whatsapp, founded_year, is_verified, rating, price_range)
		VALUES (:id, :name, :contact_email, :description, :location, :category, :categories,
			:website, :instagram, :whatsapp, :founded_year, :is_verified, :rating, :price_range)
		RETURNING created_at, updated_at`

	rows, err := s.db.NamedQueryContext(ctx, query, brand)
	if err != nil {
		return err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&brand.CreatedAt, &brand.UpdatedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Patch fills the non-nil fields of patch on brand id.
func (s *BrandStore) Patch(ctx context.Context, id string, patch models.BrandPatch) error {
	query := `
		UPDATE brands
		SET description = COALESCE($2, description),
			location = COALESCE($3, location),
			category = COALESCE($4, category),
			website = COALESCE($5, website),
			instagram = COALESCE($6, instagram),
			whatsapp = COALESCE($7, whatsapp),
			founded_year = COALESCE($8, founded_year),
			updated_at = $9
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, id,
		patch.Description, patch.Location, patch.Category,
		patch.Website, patch.Instagram, patch.WhatsApp, patch.FoundedYear,
		time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res.RowsAffected())
}

// MarkVerified flips is_verified on brand id.
func (s *BrandStore) MarkVerified(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE brands SET is_verified = true, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res.RowsAffected())
}

// Delete removes brand id. Deleting a missing brand is not an error.
func (s *BrandStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, id)
	return err
}

func requireRow(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
