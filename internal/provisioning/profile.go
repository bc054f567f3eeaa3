package provisioning

import (
	"context"
	stderrors "errors"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/metrics"
	"designer-onboarding/internal/models"
	"designer-onboarding/internal/store"
)

// mergeProfile grants brandID to the profile keyed by userID, creating the
// profile when it does not exist. Staff roles are kept as they are.
func (s *Service) mergeProfile(ctx context.Context, userID, brandID, email string) (*models.Profile, error) {
	now := s.now()

	profile, err := s.profiles.FindByID(ctx, userID)
	switch {
	case err == nil:
		if !profile.Role.IsStaff() {
			profile.Role = models.RoleBrandAdmin
		}
		profile.GrantBrand(brandID)
		profile.Email = email
		profile.UpdatedAt = now

		if err := s.profiles.Update(ctx, profile); err != nil {
			return nil, softStep(StepProfile, errors.ErrCodeProfileMergeFailed,
				"User and brand exist but brand ownership could not be linked", err)
		}

	case stderrors.Is(err, store.ErrNotFound):
		profile = &models.Profile{
			ID:        userID,
			Email:     email,
			Role:      models.RoleBrandAdmin,
			CreatedAt: now,
			UpdatedAt: now,
		}
		profile.GrantBrand(brandID)

		if err := s.profiles.Create(ctx, profile); err != nil {
			return nil, softStep(StepProfile, errors.ErrCodeProfileMergeFailed,
				"User and brand exist but the owner profile could not be created", err)
		}

	default:
		return nil, softStep(StepProfile, errors.ErrCodeProfileMergeFailed,
			"Failed to load owner profile", err)
	}

	metrics.ProvisioningSteps.WithLabelValues(string(StepProfile), metrics.OutcomeSuccess).Inc()
	return profile, nil
}
