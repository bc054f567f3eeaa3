package provisioning

import (
	"context"
	stderrors "errors"
	"strings"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/logger"
	"designer-onboarding/internal/common/metrics"
	"designer-onboarding/internal/models"
	"designer-onboarding/internal/store"
)

// UpdateStatusInput is a review decision on one application.
type UpdateStatusInput struct {
	ApplicationID string
	Status        string
	Notes         *string
}

// UpdateStatusOutput is returned whenever the status write committed, even
// when later provisioning steps degraded.
type UpdateStatusOutput struct {
	Success           bool                    `json:"success"`
	Application       *models.Application     `json:"application"`
	Message           string                  `json:"message"`
	Brand             *models.Brand           `json:"brand,omitempty"`
	User              *models.ProvisionedUser `json:"user,omitempty"`
	TemporaryPassword string                  `json:"temporaryPassword,omitempty"`
	PasswordResetLink string                  `json:"passwordResetLink,omitempty"`
	Warning           string                  `json:"warning,omitempty"`
	Note              string                  `json:"note,omitempty"`
	BrandCreated      *bool                   `json:"brandCreated,omitempty"`
	UserCreated       *bool                   `json:"userCreated,omitempty"`

	// StepErrors lists every degraded step in pipeline order.
	StepErrors   []*StepError               `json:"-"`
	Notification *models.NotificationResult `json:"-"`
}

func (o *UpdateStatusOutput) addWarning(msg string) {
	o.Warning = joinMessage(o.Warning, msg)
}

func (o *UpdateStatusOutput) addNote(msg string) {
	o.Note = joinMessage(o.Note, msg)
}

func joinMessage(existing, msg string) string {
	if existing == "" {
		return msg
	}
	return existing + "; " + msg
}

// UpdateStatus validates and commits a status transition, then runs the
// follow-on work for approvals and rejections. Only validation, lookup and the
// status write itself can fail the call.
func (s *Service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (out *UpdateStatusOutput, err error) {
	started := s.now()
	defer func() { s.record(ctx, "update_status", started, err) }()

	id := strings.TrimSpace(input.ApplicationID)
	if id == "" {
		return nil, errors.NewInvalidRequestError("Application ID is required", "")
	}

	status, perr := models.ParseApplicationStatus(input.Status)
	if perr != nil {
		return nil, errors.NewInvalidRequestError("Invalid status", perr.Error())
	}

	log := s.logger.WithFields(map[string]interface{}{
		"applicationId": id,
		"status":        string(status),
	})

	decision := status == models.StatusApproved || status == models.StatusRejected
	alreadyApproved := false
	if decision {
		release, lerr := s.acquire(ctx, id, log)
		if lerr != nil {
			return nil, lerr
		}
		defer release()

		current, gerr := s.applications.GetByID(ctx, id)
		if gerr != nil {
			return nil, s.lookupError(id, "load application", gerr)
		}
		alreadyApproved = current.Status == models.StatusApproved
	}

	now := s.now()
	upd := models.StatusUpdate{Status: status, Notes: input.Notes, UpdatedAt: now}
	if status.Reviewed() {
		upd.ReviewedAt = &now
	}

	app, uerr := s.applications.UpdateStatus(ctx, id, upd)
	if uerr != nil {
		return nil, s.lookupError(id, "update application status", uerr)
	}
	metrics.ApplicationTransitions.WithLabelValues(string(status)).Inc()
	log.Info("Application status updated", nil)

	out = &UpdateStatusOutput{Success: true, Application: app}

	// The transition is committed; follow-on steps must not be cut short by
	// the caller going away.
	pipelineCtx := context.WithoutCancel(ctx)

	switch status {
	case models.StatusApproved:
		out.Message = "Application approved and brand account provisioned"
		s.approve(pipelineCtx, app, alreadyApproved, out, log)
		if out.Warning != "" {
			out.Message = "Application approved with warnings"
		}
	case models.StatusRejected:
		out.Message = "Application rejected"
		s.dispatch(pipelineCtx, models.NotificationRejection, app, nil, out, log)
	case models.StatusReviewing:
		out.Message = "Application marked as under review"
	case models.StatusNew:
		out.Message = "Application status reset to new"
	}

	return out, nil
}

func (s *Service) lookupError(id, operation string, err error) error {
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NewApplicationNotFoundError(id)
	}
	return errors.NewPersistenceError(operation, err)
}

// approve runs brand, identity, reset link, profile, verify, index and notify
// in order. A fatal step ends the run. reapproval is set when the row was
// already approved before this write.
func (s *Service) approve(ctx context.Context, app *models.Application, reapproval bool, out *UpdateStatusOutput, log logger.Logger) {
	// Step 1: find or create the brand
	brand, created, err := s.provisionBrand(ctx, app, reapproval)
	out.BrandCreated = &created
	if s.fold(out, err, log) {
		return
	}
	out.Brand = brand

	// Step 2: find or create the identity
	ident, err := s.provisionIdentity(ctx, app.Email)
	if err != nil {
		userCreated := false
		out.UserCreated = &userCreated
		s.fold(out, err, log)
		return
	}
	out.UserCreated = &ident.Created
	out.User = &models.ProvisionedUser{ID: ident.Identity.ID, Email: ident.Identity.Email, Created: ident.Created}

	creds := &models.Credentials{IsNewUser: ident.Created}
	if ident.Created {
		out.TemporaryPassword = ident.TemporaryPassword
		creds.TemporaryPassword = ident.TemporaryPassword

		// Step 3: reset link for brand-new accounts only
		link, err := s.issueResetLink(ctx, ident.Identity)
		if err != nil {
			s.fold(out, err, log)
		} else {
			out.PasswordResetLink = link
			creds.PasswordResetLink = link
		}
	}

	// Step 4: grant ownership
	_, err = s.mergeProfile(ctx, ident.Identity.ID, brand.ID, app.Email)
	linked := err == nil
	s.fold(out, err, log)

	// Step 5: verify and publish once an owner is linked
	if linked {
		err := s.verifyBrand(ctx, brand)
		s.fold(out, err, log)
		if err == nil {
			s.fold(out, s.indexBrand(ctx, brand), log)
		}
	}

	// Step 6: tell the designer
	s.dispatch(ctx, models.NotificationApproval, app, creds, out, log)
}

// fold records err on out and reports whether the pipeline must stop.
func (s *Service) fold(out *UpdateStatusOutput, err error, log logger.Logger) bool {
	if err == nil {
		return false
	}

	se, ok := asStepError(err)
	if !ok {
		se = fatalStep("unknown", errors.ErrCodeInternal, "Unexpected provisioning failure", err)
	}
	out.StepErrors = append(out.StepErrors, se)

	outcome := metrics.OutcomeWarning
	if se.Fatal {
		outcome = metrics.OutcomeFatal
	}
	metrics.ProvisioningSteps.WithLabelValues(string(se.Step), outcome).Inc()

	msg := se.Err.Message
	if se.Err.Details != "" {
		msg += ": " + se.Err.Details
	}
	if se.Informational() {
		out.addNote(msg)
	} else {
		out.addWarning(msg)
	}

	log.Warn("Provisioning step failed", map[string]interface{}{
		"step":      string(se.Step),
		"fatal":     se.Fatal,
		"errorCode": string(se.Err.Code),
		"details":   se.Err.Details,
	})
	return se.Fatal
}

func (s *Service) dispatch(ctx context.Context, kind models.NotificationKind, app *models.Application, creds *models.Credentials, out *UpdateStatusOutput, log logger.Logger) {
	if s.notifier == nil {
		metrics.ProvisioningSteps.WithLabelValues(string(StepNotify), metrics.OutcomeSkipped).Inc()
		return
	}

	result := s.notifier.Dispatch(ctx, kind, app, creds)
	out.Notification = &result
	if result.Success {
		metrics.ProvisioningSteps.WithLabelValues(string(StepNotify), metrics.OutcomeSuccess).Inc()
		return
	}

	// Delivery problems are reported in logs only.
	metrics.ProvisioningSteps.WithLabelValues(string(StepNotify), metrics.OutcomeWarning).Inc()
	log.Warn("Review notification not delivered", map[string]interface{}{
		"kind":  string(kind),
		"error": result.Error,
	})
}
