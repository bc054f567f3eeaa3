package models

// NotificationKind selects the message sent after a review decision.
type NotificationKind string

const (
	NotificationApproval  NotificationKind = "approval"
	NotificationRejection NotificationKind = "rejection"
)

// Credentials are handed to the applicant once and never stored.
type Credentials struct {
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
	PasswordResetLink string `json:"passwordResetLink,omitempty"`
	IsNewUser         bool   `json:"isNewUser"`
}

// NotificationResult is the outcome of a dispatch attempt.
type NotificationResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}
