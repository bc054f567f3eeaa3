package auth

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/lock"
	"designer-onboarding/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Helpers
// ==========================

type fakeSetter struct {
	set map[string]string
	err error
}

func (f *fakeSetter) SetPassword(_ context.Context, userID, password string) error {
	if f.err != nil {
		return f.err
	}
	if f.set == nil {
		f.set = map[string]string{}
	}
	f.set[userID] = password
	return nil
}

func issueToken(t *testing.T, issuer *ResetLinkIssuer, userID string) string {
	t.Helper()
	link, err := issuer.RecoveryLink(context.Background(),
		models.Identity{ID: userID, Email: "d@x.com"},
		"https://www.asomarket.com/auth/reset-password")
	require.NoError(t, err)
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func newClaimer(t *testing.T) (*lock.RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return lock.NewRedisLocker(client, "reset:", 7*24*time.Hour), mr
}

func requireInvalidRequest(t *testing.T, err error) *errors.StandardError {
	t.Helper()
	require.Error(t, err)
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeInvalidRequest, stdErr.Code)
	return stdErr
}

// ==========================
// Tests
// ==========================

func TestResetRedeemer_SetsPasswordOnce(t *testing.T) {
	issuer := NewResetLinkIssuer("reset-secret", "designer-onboarding", 7*24*time.Hour)
	setter := &fakeSetter{}
	claimer, mr := newClaimer(t)
	redeemer := NewResetRedeemer(issuer, setter, claimer)
	token := issueToken(t, issuer, "kc-1")

	claims, err := redeemer.Redeem(context.Background(), token, "N3w!password")
	require.NoError(t, err)
	assert.Equal(t, "kc-1", claims.Subject)
	assert.Equal(t, "N3w!password", setter.set["kc-1"])
	assert.True(t, mr.Exists("reset:"+claims.ID))

	_, err = redeemer.Redeem(context.Background(), token, "Other!pass99")
	stdErr := requireInvalidRequest(t, err)
	assert.Equal(t, "Reset link has already been used", stdErr.Message)
	assert.Equal(t, "N3w!password", setter.set["kc-1"])
}

func TestResetRedeemer_RejectsBadToken(t *testing.T) {
	issuer := NewResetLinkIssuer("reset-secret", "designer-onboarding", time.Hour)
	setter := &fakeSetter{}
	redeemer := NewResetRedeemer(issuer, setter, nil)

	other := NewResetLinkIssuer("other-secret", "designer-onboarding", time.Hour)
	_, err := redeemer.Redeem(context.Background(), issueToken(t, other, "kc-1"), "N3w!password")
	stdErr := requireInvalidRequest(t, err)
	assert.Equal(t, "Invalid or expired reset link", stdErr.Message)

	_, err = redeemer.Redeem(context.Background(), "garbage", "N3w!password")
	requireInvalidRequest(t, err)
	assert.Empty(t, setter.set)
}

func TestResetRedeemer_FailedSetKeepsLinkUsable(t *testing.T) {
	issuer := NewResetLinkIssuer("reset-secret", "designer-onboarding", time.Hour)
	setter := &fakeSetter{err: errors.NewKeycloakError("Failed to reach Keycloak", stderrors.New("dial tcp"))}
	claimer, _ := newClaimer(t)
	redeemer := NewResetRedeemer(issuer, setter, claimer)
	token := issueToken(t, issuer, "kc-1")

	_, err := redeemer.Redeem(context.Background(), token, "N3w!password")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeKeycloakAPIError, errors.Normalize(err).Code)

	setter.err = nil
	_, err = redeemer.Redeem(context.Background(), token, "N3w!password")
	require.NoError(t, err)
	assert.Equal(t, "N3w!password", setter.set["kc-1"])
}

func TestResetRedeemer_PolicyRejection(t *testing.T) {
	issuer := NewResetLinkIssuer("reset-secret", "designer-onboarding", time.Hour)
	kcErr := errors.NewKeycloakError("Keycloak PUT returned 400", stderrors.New("invalidPasswordMinLengthMessage"))
	kcErr.Metadata = map[string]interface{}{"status": http.StatusBadRequest}
	redeemer := NewResetRedeemer(issuer, &fakeSetter{err: kcErr}, nil)

	_, err := redeemer.Redeem(context.Background(), issueToken(t, issuer, "kc-1"), "short")
	stdErr := requireInvalidRequest(t, err)
	assert.Contains(t, stdErr.Details, "invalidPasswordMinLengthMessage")
}

func TestResetRedeemer_EndToEndThroughKeycloak(t *testing.T) {
	fake := &fakeKeycloak{}
	srv := fake.server(t)
	identities := NewIdentityService(NewKeycloakClient(srv.URL, "marketplace", "onboarding", "secret"))
	issuer := NewResetLinkIssuer("reset-secret", "designer-onboarding", 7*24*time.Hour)
	redeemer := NewResetRedeemer(issuer, identities, nil)

	_, err := redeemer.Redeem(context.Background(), issueToken(t, issuer, "kc-new-1"), "N3w!password")
	require.NoError(t, err)

	cred := fake.passwords["kc-new-1"]
	assert.Equal(t, "N3w!password", cred.Value)
	assert.False(t, cred.Temporary)
}
