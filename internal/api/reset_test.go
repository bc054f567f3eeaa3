package api

import (
	"context"
	"net/http"
	"testing"

	"designer-onboarding/internal/common/auth"
	"designer-onboarding/internal/common/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Mocks
// ==========================

type mockResets struct {
	redeemFn func(ctx context.Context, token, password string) (*auth.ResetClaims, error)
	calls    int
}

func (m *mockResets) Redeem(ctx context.Context, token, password string) (*auth.ResetClaims, error) {
	m.calls++
	if m.redeemFn != nil {
		return m.redeemFn(ctx, token, password)
	}
	return &auth.ResetClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "kc-1"}}, nil
}

// ==========================
// POST /auth/reset-password
// ==========================

func TestResetPassword_OK(t *testing.T) {
	resets := &mockResets{
		redeemFn: func(_ context.Context, token, password string) (*auth.ResetClaims, error) {
			assert.Equal(t, "tok-1", token)
			assert.Equal(t, "N3w!password", password)
			return &auth.ResetClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "kc-1"}}, nil
		},
	}
	// The admin guard does not cover the reset route.
	e := newTestServer(t, &mockService{}, ServerConfig{AdminJWTSecret: testSecret, Resets: resets})

	rec, body := do(t, e, http.MethodPost, "/auth/reset-password", `{"token":"tok-1","password":"N3w!password"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 1, resets.calls)
}

func TestResetPassword_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing token", `{"password":"N3w!password"}`},
		{"short password", `{"token":"tok-1","password":"abc"}`},
		{"malformed", `{"token":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resets := &mockResets{}
			e := newTestServer(t, &mockService{}, ServerConfig{Resets: resets})

			rec, body := do(t, e, http.MethodPost, "/auth/reset-password", tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Invalid reset request", body["error"])
			assert.Zero(t, resets.calls)
		})
	}
}

func TestResetPassword_RedeemErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"expired link", errors.NewInvalidRequestError("Invalid or expired reset link", "token is expired"), http.StatusBadRequest, "Invalid or expired reset link"},
		{"keycloak down", errors.NewKeycloakError("Failed to reach Keycloak", nil), http.StatusInternalServerError, "Failed to reach Keycloak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resets := &mockResets{
				redeemFn: func(context.Context, string, string) (*auth.ResetClaims, error) { return nil, tt.err },
			}
			e := newTestServer(t, &mockService{}, ServerConfig{Resets: resets})

			rec, body := do(t, e, http.MethodPost, "/auth/reset-password", `{"token":"tok-1","password":"N3w!password"}`, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestResetPassword_NotMountedWithoutService(t *testing.T) {
	e := newTestServer(t, &mockService{}, ServerConfig{})

	rec, _ := do(t, e, http.MethodPost, "/auth/reset-password", `{"token":"tok-1","password":"N3w!password"}`, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
