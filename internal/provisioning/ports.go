package provisioning

import (
	"context"
	"time"

	"designer-onboarding/internal/common/lock"
	"designer-onboarding/internal/models"
)

// ApplicationRepository persists designer applications. Lookups return
// store.ErrNotFound when no row matches.
type ApplicationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
	UpdateStatus(ctx context.Context, id string, upd models.StatusUpdate) (*models.Application, error)
	CountPendingSiblings(ctx context.Context, brandName, email, excludeID string) (int, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type BrandRepository interface {
	FindUnverified(ctx context.Context, name, contactEmail string) (*models.Brand, error)
	FindVerified(ctx context.Context, name, contactEmail string) (*models.Brand, error)
	Create(ctx context.Context, brand *models.Brand) error
	Patch(ctx context.Context, id string, patch models.BrandPatch) error
	MarkVerified(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type ProfileRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
}

// IdentityProvider manages sign-in accounts. FindByEmail returns nil, nil
// when no identity matches.
type IdentityProvider interface {
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	Create(ctx context.Context, email, temporaryPassword string) (*models.Identity, error)
}

// RecoveryLinkIssuer produces a time-limited password-reset link.
type RecoveryLinkIssuer interface {
	RecoveryLink(ctx context.Context, identity models.Identity, redirectTo string) (string, error)
}

// Notifier delivers review decisions. It never fails the caller.
type Notifier interface {
	Dispatch(ctx context.Context, kind models.NotificationKind, app *models.Application, creds *models.Credentials) models.NotificationResult
}

// BrandIndexer publishes verified brands to the public directory.
type BrandIndexer interface {
	IndexBrand(ctx context.Context, brand *models.Brand) error
}

// ReviewLocker serializes reviews of one application.
type ReviewLocker interface {
	Acquire(ctx context.Context, applicationID string) (*lock.Lease, error)
}

// Recorder receives workflow timings.
type Recorder interface {
	RecordWorkflow(ctx context.Context, operation, outcome string, duration time.Duration)
}
