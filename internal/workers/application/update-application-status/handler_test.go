package updateapplicationstatus

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/logger"
	"designer-onboarding/internal/models"
	"designer-onboarding/internal/provisioning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockStatusUpdater struct {
	UpdateStatusFunc func(ctx context.Context, input provisioning.UpdateStatusInput) (*provisioning.UpdateStatusOutput, error)
	calls            []provisioning.UpdateStatusInput
}

func (m *MockStatusUpdater) UpdateStatus(ctx context.Context, input provisioning.UpdateStatusInput) (*provisioning.UpdateStatusOutput, error) {
	m.calls = append(m.calls, input)
	return m.UpdateStatusFunc(ctx, input)
}

func boolPtr(b bool) *bool { return &b }

func createTestHandler(t *testing.T, svc StatusUpdater) *Handler {
	return NewHandler(&Config{Enabled: true, MaxJobsActive: 1, Timeout: 5 * time.Second}, svc, logger.NewTestLogger(t))
}

// ==========================
// Input Parsing Tests
// ==========================

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{"valid approval", `{"applicationId":"app-1","status":"approved"}`, false},
		{"valid rejection with notes", `{"applicationId":"app-1","status":"rejected","notes":"Incomplete portfolio"}`, false},
		{"extra process variables", `{"applicationId":"app-1","status":"reviewing","reviewer":"ada"}`, false},
		{"missing application id", `{"status":"approved"}`, true},
		{"blank application id", `{"applicationId":"  ","status":"approved"}`, true},
		{"unknown status", `{"applicationId":"app-1","status":"archived"}`, true},
		{"not json", `status=approved`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := parseInput(tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, &errors.StandardError{Code: errors.ErrCodeInvalidRequest}))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "app-1", input.ApplicationID)
		})
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Approval(t *testing.T) {
	svc := &MockStatusUpdater{UpdateStatusFunc: func(_ context.Context, in provisioning.UpdateStatusInput) (*provisioning.UpdateStatusOutput, error) {
		return &provisioning.UpdateStatusOutput{
			Success:           true,
			Application:       &models.Application{ID: in.ApplicationID, Status: models.StatusApproved},
			Message:           "Application approved and brand account provisioned",
			Brand:             &models.Brand{ID: "brand-1"},
			User:              &models.ProvisionedUser{ID: "user-1", Email: "d@x.com", Created: true},
			TemporaryPassword: "Tmp!Pass1234",
			PasswordResetLink: "https://www.asomarket.com/auth/reset-password?token=abc",
			BrandCreated:      boolPtr(true),
			UserCreated:       boolPtr(true),
			Notification:      &models.NotificationResult{Success: true},
		}, nil
	}}
	h := createTestHandler(t, svc)

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", Status: "approved"})
	require.NoError(t, err)

	assert.Equal(t, "approved", out.Status)
	assert.Equal(t, "brand-1", out.BrandID)
	assert.Equal(t, "user-1", out.UserID)
	assert.True(t, out.BrandCreated)
	assert.True(t, out.UserCreated)
	assert.True(t, out.CredentialsIssued)
	assert.True(t, out.NotificationSent)
	assert.Empty(t, out.Warning)

	require.Len(t, svc.calls, 1)
	assert.Equal(t, "approved", svc.calls[0].Status)
}

func TestHandler_Execute_RejectionPassesNotes(t *testing.T) {
	svc := &MockStatusUpdater{UpdateStatusFunc: func(_ context.Context, in provisioning.UpdateStatusInput) (*provisioning.UpdateStatusOutput, error) {
		return &provisioning.UpdateStatusOutput{
			Success:     true,
			Application: &models.Application{ID: in.ApplicationID, Status: models.StatusRejected, Notes: in.Notes},
			Message:     "Application rejected",
		}, nil
	}}
	h := createTestHandler(t, svc)

	notes := "Incomplete portfolio"
	out, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", Status: "rejected", Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, "rejected", out.Status)
	assert.Empty(t, out.BrandID)
	assert.False(t, out.NotificationSent)
	assert.Equal(t, &notes, svc.calls[0].Notes)
}

func TestHandler_Execute_Degraded(t *testing.T) {
	svc := &MockStatusUpdater{UpdateStatusFunc: func(_ context.Context, in provisioning.UpdateStatusInput) (*provisioning.UpdateStatusOutput, error) {
		return &provisioning.UpdateStatusOutput{
			Success:      true,
			Application:  &models.Application{ID: in.ApplicationID, Status: models.StatusApproved},
			Message:      "Application approved with warnings",
			Brand:        &models.Brand{ID: "brand-1"},
			BrandCreated: boolPtr(true),
			UserCreated:  boolPtr(false),
			Warning:      "Brand is ready but the user account could not be created",
		}, nil
	}}
	h := createTestHandler(t, svc)

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, "Application approved with warnings", out.Message)
	assert.Contains(t, out.Warning, "user account could not be created")
	assert.False(t, out.UserCreated)
	assert.Empty(t, out.UserID)
	assert.False(t, out.CredentialsIssued)
}

func TestHandler_Execute_ServiceError(t *testing.T) {
	svc := &MockStatusUpdater{UpdateStatusFunc: func(context.Context, provisioning.UpdateStatusInput) (*provisioning.UpdateStatusOutput, error) {
		return nil, errors.NewApplicationNotFoundError("ghost")
	}}
	h := createTestHandler(t, svc)

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "ghost", Status: "approved"})
	assert.Nil(t, out)
	assert.Equal(t, errors.ErrCodeApplicationNotFound, errors.Normalize(err).Code)
}

func TestConfig(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, (&Config{MaxJobsActive: 1}).Validate())
	assert.Error(t, (&Config{Timeout: time.Second}).Validate())
}
