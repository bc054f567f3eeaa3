// Package errors provides standardized error handling for the onboarding API and BPMN workers.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Request / lookup errors
const (
	ErrCodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeConcurrentReview    ErrorCode = "CONCURRENT_REVIEW"
	ErrCodePersistenceError    ErrorCode = "PERSISTENCE_ERROR"
)

// Provisioning step errors
const (
	ErrCodeBrandProvisioningFailed    ErrorCode = "BRAND_PROVISIONING_FAILED"
	ErrCodeBrandMergeFailed           ErrorCode = "BRAND_MERGE_FAILED"
	ErrCodeIdentityProvisioningFailed ErrorCode = "IDENTITY_PROVISIONING_FAILED"
	ErrCodeProfileMergeFailed         ErrorCode = "PROFILE_MERGE_FAILED"
	ErrCodeBrandVerificationFailed    ErrorCode = "BRAND_VERIFICATION_FAILED"
	ErrCodeResetLinkFailed            ErrorCode = "RESET_LINK_FAILED"
	ErrCodeNotificationSendFailed     ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeDirectoryIndexFailed       ErrorCode = "DIRECTORY_INDEX_FAILED"
)

// Infrastructure errors
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeKeycloakAPIError         ErrorCode = "KEYCLOAK_API_ERROR"
	ErrCodeUserNotFound             ErrorCode = "USER_NOT_FOUND"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches another StandardError by code so errors.Is works against the
// sentinel-style values returned by the constructors.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidRequestError is returned before any I/O when input fails validation.
func NewInvalidRequestError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationNotFoundError reports a missing designer application row.
func NewApplicationNotFoundError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationNotFound,
		Message:   "Application not found",
		Details:   fmt.Sprintf("no application with id %q", applicationID),
		Retryable: false,
		Metadata:  map[string]interface{}{"applicationId": applicationID},
		Timestamp: time.Now().UTC(),
	}
}

// NewConcurrentReviewError is returned when another reviewer holds the application lock.
func NewConcurrentReviewError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConcurrentReview,
		Message:   "Application is already being reviewed",
		Details:   fmt.Sprintf("review lock for %q is held", applicationID),
		Retryable: true,
		Metadata:  map[string]interface{}{"applicationId": applicationID},
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceError wraps a failed read or write against the relational store.
func NewPersistenceError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceError,
		Message:   fmt.Sprintf("Failed to %s", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStepError builds the error recorded for a failed provisioning step.
func NewStepError(code ErrorCode, message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewKeycloakError(message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeKeycloakAPIError,
		Message:   message,
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewUserNotFoundError(email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserNotFound,
		Message:   "User not found",
		Details:   fmt.Sprintf("no identity registered for %s", email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes thrown to the process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidRequest:           "INVALID_REQUEST",
	ErrCodeApplicationNotFound:      "APPLICATION_NOT_FOUND",
	ErrCodeConcurrentReview:         "CONCURRENT_REVIEW",
	ErrCodePersistenceError:         "PERSISTENCE_ERROR",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for a job failing with code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceError,
		ErrCodeDatabaseConnectionFailed:
		return 3

	case ErrCodeConcurrentReview,
		ErrCodeKeycloakAPIError:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// HTTPStatus maps an error code to the status the admin API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeApplicationNotFound:
		return http.StatusNotFound
	case ErrCodeConcurrentReview:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "PERSISTENCE") || strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "KEYCLOAK") || strings.Contains(codeStr, "IDENTITY"):
		return "IDENTITY"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "BRAND") || strings.Contains(codeStr, "PROFILE") || strings.Contains(codeStr, "DIRECTORY"):
		return "PROVISIONING"
	case strings.Contains(codeStr, "LOCK") || strings.Contains(codeStr, "CONCURRENT"):
		return "CONCURRENCY"
	default:
		return "OTHER"
	}
}
