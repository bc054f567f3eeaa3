package provisioning

import (
	"context"
	stderrors "errors"
	"strings"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/metrics"
	"designer-onboarding/internal/models"
	"designer-onboarding/internal/store"

	"github.com/google/uuid"
)

// provisionBrand finds the unverified brand for the application's
// (brand name, email) or creates it. It reports whether a row was created.
// A failed field merge is soft: the existing brand is still returned. When the
// application was already approved, the brand an earlier approval verified is
// reused instead of creating a second one, as is a verified brand the
// applicant's profile already owns.
func (s *Service) provisionBrand(ctx context.Context, app *models.Application, reapproval bool) (*models.Brand, bool, error) {
	existing, err := s.brands.FindUnverified(ctx, app.BrandName, app.Email)
	switch {
	case err == nil:
		patch := brandPatchFor(existing, app)
		if patch.Empty() {
			metrics.ProvisioningSteps.WithLabelValues(string(StepBrand), metrics.OutcomeSuccess).Inc()
			return existing, false, nil
		}
		if err := s.brands.Patch(ctx, existing.ID, patch); err != nil {
			return existing, false, softStep(StepBrand, errors.ErrCodeBrandMergeFailed,
				"Existing brand could not be updated with application details", err)
		}
		applyBrandPatch(existing, patch)
		metrics.ProvisioningSteps.WithLabelValues(string(StepBrand), metrics.OutcomeSuccess).Inc()
		return existing, false, nil

	case !stderrors.Is(err, store.ErrNotFound):
		return nil, false, fatalStep(StepBrand, errors.ErrCodeBrandProvisioningFailed,
			"Failed to look up brand", err)
	}

	verified, err := s.brands.FindVerified(ctx, app.BrandName, app.Email)
	switch {
	case err == nil:
		if reapproval || s.applicantOwns(ctx, app.Email, verified.ID) {
			metrics.ProvisioningSteps.WithLabelValues(string(StepBrand), metrics.OutcomeSuccess).Inc()
			return verified, false, nil
		}
	case !stderrors.Is(err, store.ErrNotFound):
		return nil, false, fatalStep(StepBrand, errors.ErrCodeBrandProvisioningFailed,
			"Failed to look up brand", err)
	}

	brand := newBrandFromApplication(app)
	if err := s.brands.Create(ctx, brand); err != nil {
		return nil, false, fatalStep(StepBrand, errors.ErrCodeBrandProvisioningFailed,
			"Failed to create brand", err)
	}

	metrics.ProvisioningSteps.WithLabelValues(string(StepBrand), metrics.OutcomeSuccess).Inc()
	return brand, true, nil
}

// applicantOwns reports whether the profile registered under email owns
// brandID. Lookup errors count as not owned.
func (s *Service) applicantOwns(ctx context.Context, email, brandID string) bool {
	profile, err := s.profiles.FindByEmail(ctx, email)
	if err != nil || profile == nil {
		return false
	}
	return profile.OwnsBrand(brandID)
}

func newBrandFromApplication(app *models.Application) *models.Brand {
	brand := &models.Brand{
		ID:           uuid.NewString(),
		Name:         app.BrandName,
		ContactEmail: app.Email,
		Description:  app.Description,
		Location:     app.Location,
		Category:     app.Category,
		Categories:   []string{},
		Website:      nonBlank(app.Website),
		WhatsApp:     nonBlank(app.Phone),
		FoundedYear:  app.YearFounded,
		IsVerified:   false,
		Rating:       0,
		PriceRange:   models.ContactForPricing,
	}
	if app.Category != "" {
		brand.Categories = append(brand.Categories, app.Category)
	}
	if app.Instagram != nil {
		if handle := models.NormalizeInstagram(*app.Instagram); handle != "" {
			brand.Instagram = &handle
		}
	}
	return brand
}

// brandPatchFor selects application values for the fields brand lacks.
func brandPatchFor(brand *models.Brand, app *models.Application) models.BrandPatch {
	var patch models.BrandPatch

	if brand.Description == "" && app.Description != "" {
		patch.Description = &app.Description
	}
	if brand.Location == "" && app.Location != "" {
		patch.Location = &app.Location
	}
	if brand.Category == "" && app.Category != "" {
		patch.Category = &app.Category
	}
	if isBlank(brand.Website) {
		patch.Website = nonBlank(app.Website)
	}
	if isBlank(brand.Instagram) && app.Instagram != nil {
		if handle := models.NormalizeInstagram(*app.Instagram); handle != "" {
			patch.Instagram = &handle
		}
	}
	if isBlank(brand.WhatsApp) {
		patch.WhatsApp = nonBlank(app.Phone)
	}
	if brand.FoundedYear == nil && app.YearFounded != nil {
		patch.FoundedYear = app.YearFounded
	}

	return patch
}

func applyBrandPatch(brand *models.Brand, patch models.BrandPatch) {
	if patch.Description != nil {
		brand.Description = *patch.Description
	}
	if patch.Location != nil {
		brand.Location = *patch.Location
	}
	if patch.Category != nil {
		brand.Category = *patch.Category
	}
	if patch.Website != nil {
		brand.Website = patch.Website
	}
	if patch.Instagram != nil {
		brand.Instagram = patch.Instagram
	}
	if patch.WhatsApp != nil {
		brand.WhatsApp = patch.WhatsApp
	}
	if patch.FoundedYear != nil {
		brand.FoundedYear = patch.FoundedYear
	}
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func nonBlank(s *string) *string {
	if isBlank(s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
