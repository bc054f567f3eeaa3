package provisioning

import (
	"context"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/metrics"
	"designer-onboarding/internal/models"
)

func (s *Service) verifyBrand(ctx context.Context, brand *models.Brand) error {
	if err := s.brands.MarkVerified(ctx, brand.ID); err != nil {
		return softStep(StepVerify, errors.ErrCodeBrandVerificationFailed,
			"Brand could not be marked as verified", err)
	}
	brand.IsVerified = true
	metrics.ProvisioningSteps.WithLabelValues(string(StepVerify), metrics.OutcomeSuccess).Inc()
	return nil
}

// indexBrand publishes a verified brand to the directory when an indexer is set.
func (s *Service) indexBrand(ctx context.Context, brand *models.Brand) error {
	if s.indexer == nil {
		return nil
	}
	if err := s.indexer.IndexBrand(ctx, brand); err != nil {
		return softStep(StepIndex, errors.ErrCodeDirectoryIndexFailed,
			"Brand could not be published to the directory", err)
	}
	metrics.ProvisioningSteps.WithLabelValues(string(StepIndex), metrics.OutcomeSuccess).Inc()
	return nil
}
