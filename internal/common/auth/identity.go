package auth

import (
	"context"
	"strings"

	"designer-onboarding/internal/models"
)

// IdentityService exposes Keycloak users as marketplace identities.
type IdentityService struct {
	keycloak *KeycloakClient
}

func NewIdentityService(keycloak *KeycloakClient) *IdentityService {
	return &IdentityService{keycloak: keycloak}
}

// FindByEmail returns nil, nil when no user has email.
func (s *IdentityService) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	users, err := s.keycloak.FindUsersByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return &models.Identity{ID: u.ID, Email: u.Email}, nil
		}
	}
	return nil, nil
}

// Create registers an enabled user with a confirmed email and a temporary
// password Keycloak will ask to change on first sign-in.
func (s *IdentityService) Create(ctx context.Context, email, temporaryPassword string) (*models.Identity, error) {
	user, err := s.keycloak.CreateUser(ctx, &User{
		Email:         email,
		Username:      strings.ToLower(email),
		Enabled:       true,
		EmailVerified: true,
		Credentials: []Credential{{
			Type:      "password",
			Value:     temporaryPassword,
			Temporary: true,
		}},
	})
	if err != nil {
		return nil, err
	}
	return &models.Identity{ID: user.ID, Email: email}, nil
}

// SetPassword gives the user a permanent password chosen through a reset link.
func (s *IdentityService) SetPassword(ctx context.Context, userID, password string) error {
	return s.keycloak.ResetPassword(ctx, userID, password)
}
