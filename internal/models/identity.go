package models

// Identity is an account at the identity provider.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ProvisionedUser reports the identity linked to an approved application.
type ProvisionedUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Created bool   `json:"created"`
}
