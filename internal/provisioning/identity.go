package provisioning

import (
	"context"
	stderrors "errors"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/metrics"
	"designer-onboarding/internal/models"
	"designer-onboarding/internal/store"
)

type identityResult struct {
	Identity          models.Identity
	Created           bool
	TemporaryPassword string
}

// provisionIdentity resolves the account for email: an existing profile
// first, then the identity provider, and only then a new account.
func (s *Service) provisionIdentity(ctx context.Context, email string) (*identityResult, error) {
	// Step A: profile table
	profile, err := s.profiles.FindByEmail(ctx, email)
	switch {
	case err == nil:
		metrics.ProvisioningSteps.WithLabelValues(string(StepIdentity), metrics.OutcomeSuccess).Inc()
		return &identityResult{Identity: models.Identity{ID: profile.ID, Email: profile.Email}}, nil
	case !stderrors.Is(err, store.ErrNotFound):
		s.logger.Warn("Profile lookup by email failed, asking identity provider", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
	}

	// Step B: identity provider search
	existing, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		return nil, fatalStep(StepIdentity, errors.ErrCodeIdentityProvisioningFailed,
			"Failed to look up user account", err)
	}
	if existing != nil {
		metrics.ProvisioningSteps.WithLabelValues(string(StepIdentity), metrics.OutcomeSuccess).Inc()
		return &identityResult{Identity: *existing}, nil
	}

	// Step C: new account with a temporary password
	password, err := s.passwords.TemporaryPassword()
	if err != nil {
		return nil, fatalStep(StepIdentity, errors.ErrCodeIdentityProvisioningFailed,
			"Failed to generate temporary password", err)
	}

	created, err := s.identities.Create(ctx, email, password)
	if err != nil {
		return nil, fatalStep(StepIdentity, errors.ErrCodeIdentityProvisioningFailed,
			"Brand is ready but the user account could not be created", err)
	}

	metrics.ProvisioningSteps.WithLabelValues(string(StepIdentity), metrics.OutcomeSuccess).Inc()
	return &identityResult{Identity: *created, Created: true, TemporaryPassword: password}, nil
}

// issueResetLink returns a reset link for a newly created identity.
func (s *Service) issueResetLink(ctx context.Context, identity models.Identity) (string, error) {
	if s.recoveryLinks == nil {
		metrics.ProvisioningSteps.WithLabelValues(string(StepResetLink), metrics.OutcomeSkipped).Inc()
		return "", softStep(StepResetLink, errors.ErrCodeResetLinkFailed,
			"Password reset link unavailable, share the temporary password instead", nil)
	}

	link, err := s.recoveryLinks.RecoveryLink(ctx, identity, s.resetRedirect())
	if err != nil {
		return "", softStep(StepResetLink, errors.ErrCodeResetLinkFailed,
			"Password reset link could not be generated, share the temporary password instead", err)
	}

	metrics.ProvisioningSteps.WithLabelValues(string(StepResetLink), metrics.OutcomeSuccess).Inc()
	return link, nil
}
