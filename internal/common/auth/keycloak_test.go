package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"designer-onboarding/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fake Keycloak
// ==========================

type fakeKeycloak struct {
	users        []User
	created      []User
	tokenCalls   int32
	createStatus int
	passwords    map[string]Credential
	resetStatus  int
}

func (f *fakeKeycloak) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/realms/marketplace/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "svc-token", ExpiresIn: 300})
	})

	mux.HandleFunc("/admin/realms/marketplace/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "true", r.URL.Query().Get("exact"))
			email := r.URL.Query().Get("email")
			var out []User
			for _, u := range f.users {
				if u.Email == email {
					out = append(out, u)
				}
			}
			if out == nil {
				out = []User{}
			}
			_ = json.NewEncoder(w).Encode(out)
		case http.MethodPost:
			var u User
			require.NoError(t, json.NewDecoder(r.Body).Decode(&u))
			f.created = append(f.created, u)
			if f.createStatus != 0 {
				w.WriteHeader(f.createStatus)
				_, _ = w.Write([]byte(`{"errorMessage":"User exists with same email"}`))
				return
			}
			w.Header().Set("Location", "http://"+r.Host+"/admin/realms/marketplace/users/kc-new-1")
			w.WriteHeader(http.StatusCreated)
		}
	})

	mux.HandleFunc("/admin/realms/marketplace/users/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		rest := strings.TrimPrefix(r.URL.Path, "/admin/realms/marketplace/users/")
		userID, action, _ := strings.Cut(rest, "/")
		if r.Method != http.MethodPut || action != "reset-password" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if f.resetStatus != 0 {
			w.WriteHeader(f.resetStatus)
			_, _ = w.Write([]byte(`{"error":"invalidPasswordMinLengthMessage"}`))
			return
		}
		var cred Credential
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cred))
		if f.passwords == nil {
			f.passwords = map[string]Credential{}
		}
		f.passwords[userID] = cred
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// ==========================
// Tests
// ==========================

func TestIdentityService_FindByEmail(t *testing.T) {
	fake := &fakeKeycloak{users: []User{{ID: "kc-1", Email: "d@x.com"}}}
	srv := fake.server(t)
	svc := NewIdentityService(NewKeycloakClient(srv.URL, "marketplace", "onboarding", "secret"))

	identity, err := svc.FindByEmail(context.Background(), "d@x.com")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "kc-1", identity.ID)

	missing, err := svc.FindByEmail(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.tokenCalls), "service token should be cached")
}

func TestIdentityService_Create(t *testing.T) {
	fake := &fakeKeycloak{}
	srv := fake.server(t)
	svc := NewIdentityService(NewKeycloakClient(srv.URL+"/", "marketplace", "onboarding", "secret"))

	identity, err := svc.Create(context.Background(), "New@X.com", "Tmp!pass1234")
	require.NoError(t, err)
	assert.Equal(t, "kc-new-1", identity.ID)
	assert.Equal(t, "New@X.com", identity.Email)

	require.Len(t, fake.created, 1)
	sent := fake.created[0]
	assert.Equal(t, "new@x.com", sent.Username)
	assert.True(t, sent.Enabled)
	assert.True(t, sent.EmailVerified)
	require.Len(t, sent.Credentials, 1)
	assert.Equal(t, "password", sent.Credentials[0].Type)
	assert.Equal(t, "Tmp!pass1234", sent.Credentials[0].Value)
	assert.True(t, sent.Credentials[0].Temporary)
}

func TestIdentityService_CreateConflict(t *testing.T) {
	fake := &fakeKeycloak{createStatus: http.StatusConflict}
	srv := fake.server(t)
	svc := NewIdentityService(NewKeycloakClient(srv.URL, "marketplace", "onboarding", "secret"))

	_, err := svc.Create(context.Background(), "d@x.com", "Tmp!pass1234")
	require.Error(t, err)

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeKeycloakAPIError, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "User exists")
}

func TestIdentityService_SetPassword(t *testing.T) {
	fake := &fakeKeycloak{}
	srv := fake.server(t)
	svc := NewIdentityService(NewKeycloakClient(srv.URL, "marketplace", "onboarding", "secret"))

	require.NoError(t, svc.SetPassword(context.Background(), "kc-1", "N3w!password"))

	cred, ok := fake.passwords["kc-1"]
	require.True(t, ok)
	assert.Equal(t, "password", cred.Type)
	assert.Equal(t, "N3w!password", cred.Value)
	assert.False(t, cred.Temporary)
}

func TestIdentityService_SetPasswordRejected(t *testing.T) {
	fake := &fakeKeycloak{resetStatus: http.StatusBadRequest}
	srv := fake.server(t)
	svc := NewIdentityService(NewKeycloakClient(srv.URL, "marketplace", "onboarding", "secret"))

	err := svc.SetPassword(context.Background(), "kc-1", "short")
	require.Error(t, err)
	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeKeycloakAPIError, stdErr.Code)
	assert.Equal(t, http.StatusBadRequest, stdErr.Metadata["status"])
}

func TestKeycloakClient_TokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewKeycloakClient(srv.URL, "marketplace", "onboarding", "wrong")
	_, err := client.FindUsersByEmail(context.Background(), "d@x.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to authenticate with Keycloak")
}

func TestIsTransientHTTPError(t *testing.T) {
	assert.True(t, isTransientHTTPError(http.StatusServiceUnavailable))
	assert.True(t, isTransientHTTPError(http.StatusTooManyRequests))
	assert.False(t, isTransientHTTPError(http.StatusConflict))
}
