package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"designer-onboarding/internal/common/errors"
)

// KeycloakClient talks to the Keycloak admin REST API with a
// client-credentials service account.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

type User struct {
	ID            string       `json:"id,omitempty"`
	Email         string       `json:"email"`
	FirstName     string       `json:"firstName,omitempty"`
	LastName      string       `json:"lastName,omitempty"`
	Username      string       `json:"username"`
	Enabled       bool         `json:"enabled"`
	EmailVerified bool         `json:"emailVerified"`
	Credentials   []Credential `json:"credentials,omitempty"`
}

// Credential is a Keycloak credential representation.
type Credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (k *KeycloakClient) token(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	// Refresh slightly early so a token never expires mid-request.
	if k.accessToken != "" && time.Now().Add(10*time.Second).Before(k.tokenExpiry) {
		return k.accessToken, nil
	}

	tokenURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("keycloak token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	k.accessToken = tokenResp.AccessToken
	k.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return k.accessToken, nil
}

// adminRequest sends an authenticated admin API call and returns the response
// when its status is one of want.
func (k *KeycloakClient) adminRequest(ctx context.Context, method, path string, payload interface{}, want ...int) (*http.Response, error) {
	token, err := k.token(ctx)
	if err != nil {
		return nil, errors.NewKeycloakError("Failed to authenticate with Keycloak", err)
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.NewKeycloakError("Failed to serialize request", err)
		}
		body = bytes.NewReader(raw)
	}

	endpoint := fmt.Sprintf("%s/admin/realms/%s%s", k.baseURL, k.realm, path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.NewKeycloakError("Failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewKeycloakError("Failed to reach Keycloak", err)
	}

	for _, status := range want {
		if resp.StatusCode == status {
			return resp, nil
		}
	}

	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	stdErr := errors.NewKeycloakError(
		fmt.Sprintf("Keycloak %s %s returned %d", method, path, resp.StatusCode),
		fmt.Errorf("%s", strings.TrimSpace(string(raw))),
	)
	stdErr.Retryable = isTransientHTTPError(resp.StatusCode)
	stdErr.Metadata = map[string]interface{}{"status": resp.StatusCode}
	return nil, stdErr
}

// FindUsersByEmail returns every user whose email matches exactly.
func (k *KeycloakClient) FindUsersByEmail(ctx context.Context, email string) ([]User, error) {
	path := "/users?exact=true&email=" + url.QueryEscape(email)
	resp, err := k.adminRequest(ctx, http.MethodGet, path, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, errors.NewKeycloakError("Failed to decode user search results", err)
	}
	return users, nil
}

// CreateUser registers user and returns it with the id Keycloak assigned.
func (k *KeycloakClient) CreateUser(ctx context.Context, user *User) (*User, error) {
	if user.Username == "" {
		user.Username = user.Email
	}

	resp, err := k.adminRequest(ctx, http.MethodPost, "/users", user, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// 201 carries no body; the new id is the last Location segment.
	location := resp.Header.Get("Location")
	if location == "" {
		return nil, errors.NewKeycloakError("Keycloak did not return the created user location", nil)
	}
	parts := strings.Split(strings.TrimSuffix(location, "/"), "/")
	user.ID = parts[len(parts)-1]
	user.Credentials = nil

	return user, nil
}

// ResetPassword replaces the password of userID with a permanent one.
func (k *KeycloakClient) ResetPassword(ctx context.Context, userID, password string) error {
	cred := Credential{Type: "password", Value: password, Temporary: false}
	resp, err := k.adminRequest(ctx, http.MethodPut, "/users/"+url.PathEscape(userID)+"/reset-password", cred, http.StatusNoContent)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func isTransientHTTPError(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}
