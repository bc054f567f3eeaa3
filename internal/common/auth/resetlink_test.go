package auth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"designer-onboarding/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetLinkIssuer_RoundTrip(t *testing.T) {
	issuer := NewResetLinkIssuer("reset-secret", "designer-onboarding", 7*24*time.Hour)
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	link, err := issuer.RecoveryLink(context.Background(),
		models.Identity{ID: "kc-1", Email: "d@x.com"},
		"https://www.asomarket.com/auth/reset-password")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "www.asomarket.com", u.Host)
	assert.Equal(t, "/auth/reset-password", u.Path)

	claims, err := issuer.Verify(u.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "kc-1", claims.Subject)
	assert.Equal(t, "d@x.com", claims.Email)
	assert.Equal(t, fixed.Add(7*24*time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestResetLinkIssuer_Expired(t *testing.T) {
	issuer := NewResetLinkIssuer("reset-secret", "designer-onboarding", time.Hour)
	start := time.Now()
	issuer.now = func() time.Time { return start }

	link, err := issuer.RecoveryLink(context.Background(), models.Identity{ID: "kc-1"}, "https://www.asomarket.com/auth/reset-password")
	require.NoError(t, err)
	u, _ := url.Parse(link)

	issuer.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = issuer.Verify(u.Query().Get("token"))
	assert.Error(t, err)
}

func TestResetLinkIssuer_Errors(t *testing.T) {
	_, err := NewResetLinkIssuer("", "x", time.Hour).RecoveryLink(context.Background(), models.Identity{ID: "kc-1"}, "https://a.com/r")
	assert.Error(t, err)

	_, err = NewResetLinkIssuer("s", "x", time.Hour).RecoveryLink(context.Background(), models.Identity{ID: "kc-1"}, "not a url")
	assert.Error(t, err)

	other := NewResetLinkIssuer("other-secret", "x", time.Hour)
	link, err := other.RecoveryLink(context.Background(), models.Identity{ID: "kc-1"}, "https://a.com/r")
	require.NoError(t, err)
	u, _ := url.Parse(link)
	_, err = NewResetLinkIssuer("reset-secret", "x", time.Hour).Verify(u.Query().Get("token"))
	assert.Error(t, err)
}
