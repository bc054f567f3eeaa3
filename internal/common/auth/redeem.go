package auth

import (
	"context"
	stderrors "errors"
	"net/http"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/lock"
)

// PasswordSetter replaces a user's password in the identity provider.
type PasswordSetter interface {
	SetPassword(ctx context.Context, userID, password string) error
}

// TokenClaimer marks a reset token id as spent. lock.RedisLocker satisfies it
// when built with a TTL no shorter than the reset link lifetime.
type TokenClaimer interface {
	Acquire(ctx context.Context, id string) (*lock.Lease, error)
}

// ResetRedeemer completes a password reset started from an approval email.
type ResetRedeemer struct {
	links     *ResetLinkIssuer
	passwords PasswordSetter
	claims    TokenClaimer
}

// NewResetRedeemer builds a redeemer. A nil claimer leaves tokens reusable
// until they expire.
func NewResetRedeemer(links *ResetLinkIssuer, passwords PasswordSetter, claimer TokenClaimer) *ResetRedeemer {
	return &ResetRedeemer{links: links, passwords: passwords, claims: claimer}
}

// Redeem checks token and sets password on the identity it was issued for.
func (r *ResetRedeemer) Redeem(ctx context.Context, token, password string) (*ResetClaims, error) {
	claims, err := r.links.Verify(token)
	if err != nil {
		return nil, errors.NewInvalidRequestError("Invalid or expired reset link", err.Error())
	}

	var lease *lock.Lease
	if r.claims != nil {
		lease, err = r.claims.Acquire(ctx, claims.ID)
		switch {
		case stderrors.Is(err, lock.ErrNotAcquired):
			return nil, errors.NewInvalidRequestError("Reset link has already been used", "")
		case err != nil:
			return nil, errors.NewInternalError(err)
		}
	}

	if err := r.passwords.SetPassword(ctx, claims.Subject, password); err != nil {
		// Let the designer retry with the same link.
		if lease != nil {
			_ = lease.Release(context.WithoutCancel(ctx))
		}
		var stdErr *errors.StandardError
		if stderrors.As(err, &stdErr) && stdErr.Metadata["status"] == http.StatusBadRequest {
			return nil, errors.NewInvalidRequestError("Password does not meet the password policy", stdErr.Details)
		}
		return nil, err
	}
	return claims, nil
}
