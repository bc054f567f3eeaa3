// Package search publishes verified brands to the public directory index.
package search

import (
	"context"
	"strings"
	"time"

	"designer-onboarding/internal/models"
)

// DocumentIndexer writes one JSON document to an index.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

// BrandDocument is the directory representation of a brand.
type BrandDocument struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Category    string    `json:"category,omitempty"`
	Categories  []string  `json:"categories"`
	Website     string    `json:"website,omitempty"`
	Instagram   string    `json:"instagram,omitempty"`
	FoundedYear int       `json:"founded_year,omitempty"`
	IsVerified  bool      `json:"is_verified"`
	Rating      float64   `json:"rating"`
	PriceRange  string    `json:"price_range"`
	IndexedAt   time.Time `json:"indexed_at"`
}

type BrandIndexer struct {
	docs  DocumentIndexer
	index string
	now   func() time.Time
}

func NewBrandIndexer(docs DocumentIndexer, index string) *BrandIndexer {
	return &BrandIndexer{
		docs:  docs,
		index: index,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// IndexBrand upserts brand under its id.
func (i *BrandIndexer) IndexBrand(ctx context.Context, brand *models.Brand) error {
	return i.docs.IndexDocument(ctx, i.index, brand.ID, i.document(brand))
}

func (i *BrandIndexer) document(b *models.Brand) BrandDocument {
	doc := BrandDocument{
		ID:          b.ID,
		Name:        b.Name,
		Slug:        Slugify(b.Name),
		Description: b.Description,
		Location:    b.Location,
		Category:    b.Category,
		Categories:  append([]string{}, b.Categories...),
		IsVerified:  b.IsVerified,
		Rating:      b.Rating,
		PriceRange:  b.PriceRange,
		IndexedAt:   i.now(),
	}
	if b.Website != nil {
		doc.Website = *b.Website
	}
	if b.Instagram != nil {
		doc.Instagram = *b.Instagram
	}
	if b.FoundedYear != nil {
		doc.FoundedYear = *b.FoundedYear
	}
	return doc
}

// Slugify lowercases name and joins its alphanumeric runs with hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
