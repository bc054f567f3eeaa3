package deleteapplication

import (
	"context"
	"testing"
	"time"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/logger"
	"designer-onboarding/internal/provisioning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockDeleter struct {
	DeleteFunc func(ctx context.Context, id string) (*provisioning.DeleteOutput, error)
}

func (m *MockDeleter) DeleteApplication(ctx context.Context, id string) (*provisioning.DeleteOutput, error) {
	return m.DeleteFunc(ctx, id)
}

func createTestHandler(t *testing.T, svc ApplicationDeleter) *Handler {
	return NewHandler(&Config{Enabled: true, MaxJobsActive: 1, Timeout: 5 * time.Second}, svc, logger.NewTestLogger(t))
}

func TestParseInput(t *testing.T) {
	input, err := parseInput(`{"applicationId":"app-1"}`)
	require.NoError(t, err)
	assert.Equal(t, "app-1", input.ApplicationID)

	for _, vars := range []string{`{}`, `{"applicationId":""}`, `{"applicationId":7}`, `[`} {
		_, err := parseInput(vars)
		require.Error(t, err, vars)
		assert.Equal(t, errors.ErrCodeInvalidRequest, errors.Normalize(err).Code, vars)
	}
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name   string
		result *provisioning.DeleteOutput
		want   Output
	}{
		{
			name:   "deleted with brand",
			result: &provisioning.DeleteOutput{Success: true, Message: "deleted", BrandDeleted: true, RowsAffected: 1},
			want:   Output{ApplicationID: "app-1", Deleted: true, BrandDeleted: true, Message: "deleted"},
		},
		{
			name:   "already gone",
			result: &provisioning.DeleteOutput{Success: true, Message: "Application was already deleted"},
			want:   Output{ApplicationID: "app-1", Message: "Application was already deleted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, &MockDeleter{DeleteFunc: func(context.Context, string) (*provisioning.DeleteOutput, error) {
				return tt.result, nil
			}})

			out, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, *out)
		})
	}
}

func TestHandler_Execute_NotFound(t *testing.T) {
	h := createTestHandler(t, &MockDeleter{DeleteFunc: func(_ context.Context, id string) (*provisioning.DeleteOutput, error) {
		return nil, errors.NewApplicationNotFoundError(id)
	}})

	_, err := h.Execute(context.Background(), &Input{ApplicationID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeApplicationNotFound, errors.Normalize(err).Code)
}
