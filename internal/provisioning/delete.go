package provisioning

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/logger"
	"designer-onboarding/internal/common/metrics"
	"designer-onboarding/internal/models"
	"designer-onboarding/internal/store"
)

// DeleteOutput describes a completed deletion.
type DeleteOutput struct {
	Success            bool                      `json:"success"`
	Message            string                    `json:"message"`
	DeletedApplication models.DeletedApplication `json:"deletedApplication"`
	BrandDeleted       bool                      `json:"brandDeleted"`
	RowsAffected       int64                     `json:"-"`
}

// DeleteApplication removes an application. For a rejected application the
// unverified brand it created goes too, unless another application for the
// same brand name and email is still pending.
func (s *Service) DeleteApplication(ctx context.Context, applicationID string) (out *DeleteOutput, err error) {
	started := s.now()
	defer func() { s.record(ctx, "delete_application", started, err) }()

	id := strings.TrimSpace(applicationID)
	if id == "" {
		return nil, errors.NewInvalidRequestError("Application ID is required", "")
	}

	log := s.logger.WithFields(map[string]interface{}{"applicationId": id})

	release, err := s.acquire(ctx, id, log)
	if err != nil {
		return nil, err
	}
	defer release()

	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, "load application", err)
	}

	brandDeleted := false
	if app.Status == models.StatusRejected && app.HasBrandKey() {
		brandDeleted, err = s.cascadeBrand(ctx, app, log)
		if err != nil {
			return nil, err
		}
	}

	rows, err := s.applications.Delete(ctx, id)
	if err != nil {
		return nil, errors.NewPersistenceError("delete application", err)
	}

	metrics.ApplicationDeletions.WithLabelValues(strconv.FormatBool(brandDeleted)).Inc()
	log.Info("Application deleted", map[string]interface{}{
		"rowsAffected": rows,
		"brandDeleted": brandDeleted,
	})

	message := "Application deleted successfully"
	if rows == 0 {
		message = "Application was already deleted"
	}
	if brandDeleted {
		message += " along with its unverified brand"
	}

	return &DeleteOutput{
		Success: true,
		Message: message,
		DeletedApplication: models.DeletedApplication{
			ID:           app.ID,
			BrandName:    app.BrandName,
			DesignerName: app.DesignerName,
		},
		BrandDeleted: brandDeleted,
		RowsAffected: rows,
	}, nil
}

// cascadeBrand deletes the application's unverified brand when no other
// non-approved application still claims it.
func (s *Service) cascadeBrand(ctx context.Context, app *models.Application, log logger.Logger) (bool, error) {
	brand, err := s.brands.FindUnverified(ctx, app.BrandName, app.Email)
	if stderrors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.NewPersistenceError("look up brand", err)
	}

	siblings, err := s.applications.CountPendingSiblings(ctx, app.BrandName, app.Email, app.ID)
	if err != nil {
		return false, errors.NewPersistenceError("count sibling applications", err)
	}
	if siblings > 0 {
		log.Info("Brand kept, still referenced by other applications", map[string]interface{}{
			"brandId":  brand.ID,
			"siblings": siblings,
		})
		return false, nil
	}

	if err := s.brands.Delete(ctx, brand.ID); err != nil {
		return false, errors.NewPersistenceError("delete brand", err)
	}
	return true, nil
}
