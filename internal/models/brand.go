package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// ContactForPricing is stored as the price range of brands created from an application.
const ContactForPricing = "Contact for pricing"

// Brand is a marketplace seller. It stays unverified until an owner profile is linked.
type Brand struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	ContactEmail string         `json:"contact_email" db:"contact_email"`
	Description  string         `json:"description" db:"description"`
	Location     string         `json:"location" db:"location"`
	Category     string         `json:"category" db:"category"`
	Categories   pq.StringArray `json:"categories" db:"categories"`
	Website      *string        `json:"website,omitempty" db:"website"`
	Instagram    *string        `json:"instagram,omitempty" db:"instagram"`
	WhatsApp     *string        `json:"whatsapp,omitempty" db:"whatsapp"`
	FoundedYear  *int           `json:"founded_year,omitempty" db:"founded_year"`
	IsVerified   bool           `json:"is_verified" db:"is_verified"`
	Rating       float64        `json:"rating" db:"rating"`
	PriceRange   string         `json:"price_range" db:"price_range"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// BrandPatch carries the fields to fill on an existing brand. Nil fields are left alone.
type BrandPatch struct {
	Description *string
	Location    *string
	Category    *string
	Website     *string
	Instagram   *string
	WhatsApp    *string
	FoundedYear *int
}

// Empty reports whether the patch would change nothing.
func (p BrandPatch) Empty() bool {
	return p.Description == nil && p.Location == nil && p.Category == nil &&
		p.Website == nil && p.Instagram == nil && p.WhatsApp == nil && p.FoundedYear == nil
}

// NormalizeInstagram returns handle with a single leading '@', or "" when blank.
func NormalizeInstagram(handle string) string {
	h := strings.TrimSpace(handle)
	h = strings.TrimLeft(h, "@")
	if h == "" {
		return ""
	}
	return "@" + h
}
