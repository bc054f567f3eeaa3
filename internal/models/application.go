package models

import (
	"fmt"
	"strings"
	"time"
)

// ApplicationStatus is the review state of a designer application.
type ApplicationStatus string

const (
	StatusNew       ApplicationStatus = "new"
	StatusReviewing ApplicationStatus = "reviewing"
	StatusApproved  ApplicationStatus = "approved"
	StatusRejected  ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every accepted status in workflow order.
var ApplicationStatuses = []ApplicationStatus{StatusNew, StatusReviewing, StatusApproved, StatusRejected}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusNew, StatusReviewing, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Reviewed reports whether moving to s stamps reviewed_at.
func (s ApplicationStatus) Reviewed() bool {
	return s != StatusNew
}

func (s ApplicationStatus) String() string {
	return string(s)
}

// ParseApplicationStatus accepts exactly the four lowercase status values.
func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	s := ApplicationStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid status %q: must be one of new, reviewing, approved, rejected", raw)
	}
	return s, nil
}

// Application is a designer's submission requesting brand onboarding.
type Application struct {
	ID           string            `json:"id" db:"id"`
	BrandName    string            `json:"brand_name" db:"brand_name"`
	DesignerName string            `json:"designer_name" db:"designer_name"`
	Email        string            `json:"email" db:"email"`
	Phone        *string           `json:"phone,omitempty" db:"phone"`
	Website      *string           `json:"website,omitempty" db:"website"`
	Instagram    *string           `json:"instagram,omitempty" db:"instagram"`
	Location     string            `json:"location" db:"location"`
	Category     string            `json:"category" db:"category"`
	Description  string            `json:"description" db:"description"`
	YearFounded  *int              `json:"year_founded,omitempty" db:"year_founded"`
	Status       ApplicationStatus `json:"status" db:"status"`
	Notes        *string           `json:"notes,omitempty" db:"notes"`
	ReviewedAt   *time.Time        `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
}

// HasBrandKey reports whether the application carries the (brand name, email)
// pair used to find its unverified brand.
func (a *Application) HasBrandKey() bool {
	return strings.TrimSpace(a.BrandName) != "" && strings.TrimSpace(a.Email) != ""
}

// StatusUpdate is the write applied by a review transition.
type StatusUpdate struct {
	Status     ApplicationStatus
	Notes      *string
	UpdatedAt  time.Time
	ReviewedAt *time.Time
}

// DeletedApplication summarises a removed application in API responses.
type DeletedApplication struct {
	ID           string `json:"id"`
	BrandName    string `json:"brand_name"`
	DesignerName string `json:"designer_name"`
}
