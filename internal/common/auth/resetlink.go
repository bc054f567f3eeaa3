package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"designer-onboarding/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const resetPurpose = "password_reset"

// ResetClaims is the payload of a password-reset token.
type ResetClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// ResetLinkIssuer signs time-limited password-reset links.
type ResetLinkIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewResetLinkIssuer(secret, issuer string, ttl time.Duration) *ResetLinkIssuer {
	return &ResetLinkIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// RecoveryLink returns redirectTo with a signed token for identity appended.
func (r *ResetLinkIssuer) RecoveryLink(_ context.Context, identity models.Identity, redirectTo string) (string, error) {
	if len(r.secret) == 0 {
		return "", errors.New("reset link secret is not configured")
	}

	target, err := url.Parse(redirectTo)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return "", fmt.Errorf("invalid reset redirect %q", redirectTo)
	}

	now := r.now()
	claims := ResetClaims{
		Email:   identity.Email,
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID,
			Issuer:    r.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}

	q := target.Query()
	q.Set("token", signed)
	target.RawQuery = q.Encode()
	return target.String(), nil
}

// Verify parses a reset token and checks its signature, expiry and purpose.
func (r *ResetLinkIssuer) Verify(token string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != resetPurpose {
		return nil, fmt.Errorf("unexpected token purpose %q", claims.Purpose)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("reset token is missing its subject or id")
	}
	return claims, nil
}
