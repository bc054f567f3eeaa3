package store

import (
	"context"

	"designer-onboarding/internal/models"

	"github.com/jmoiron/sqlx"
)

const profileColumns = `id, email, role, owned_brands, created_at, updated_at`

// ProfileStore reads and writes marketplace permission profiles.
type ProfileStore struct {
	db *sqlx.DB
}

func NewProfileStore(db *sqlx.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// FindByEmail matches email case-insensitively.
func (s *ProfileStore) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE lower(email) = lower($1) LIMIT 1`

	var p models.Profile
	if err := s.db.GetContext(ctx, &p, query, email); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *ProfileStore) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	var p models.Profile
	if err := s.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *ProfileStore) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (id, email, role, owned_brands, created_at, updated_at)
		VALUES (:id, :email, :role, :owned_brands, :created_at, :updated_at)`

	_, err := s.db.NamedExecContext(ctx, query, p)
	return err
}

// Update rewrites email, role and owned_brands of an existing profile.
func (s *ProfileStore) Update(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles
		SET email = :email, role = :role, owned_brands = :owned_brands, updated_at = :updated_at
		WHERE id = :id`

	res, err := s.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return err
	}
	return requireRow(res.RowsAffected())
}
