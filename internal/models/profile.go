package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ProfileRole is the marketplace permission level of a profile.
type ProfileRole string

const (
	RoleUser       ProfileRole = "user"
	RoleBrandAdmin ProfileRole = "brand_admin"
	RoleAdmin      ProfileRole = "admin"
	RoleSuperAdmin ProfileRole = "super_admin"
)

func (r ProfileRole) Valid() bool {
	switch r {
	case RoleUser, RoleBrandAdmin, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may review applications.
func (r ProfileRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func ParseProfileRole(raw string) (ProfileRole, error) {
	r := ProfileRole(raw)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", raw)
	}
	return r, nil
}

// Profile is the permission record keyed by identity id.
type Profile struct {
	ID          string         `json:"id" db:"id"`
	Email       string         `json:"email" db:"email"`
	Role        ProfileRole    `json:"role" db:"role"`
	OwnedBrands pq.StringArray `json:"owned_brands" db:"owned_brands"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// OwnsBrand reports whether brandID is already in owned_brands.
func (p *Profile) OwnsBrand(brandID string) bool {
	for _, id := range p.OwnedBrands {
		if id == brandID {
			return true
		}
	}
	return false
}

// GrantBrand adds brandID to owned_brands unless present, and drops any
// duplicates a previous writer left behind. It reports whether the set grew.
func (p *Profile) GrantBrand(brandID string) bool {
	seen := make(map[string]struct{}, len(p.OwnedBrands)+1)
	owned := make(pq.StringArray, 0, len(p.OwnedBrands)+1)
	for _, id := range p.OwnedBrands {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		owned = append(owned, id)
	}

	_, had := seen[brandID]
	if !had {
		owned = append(owned, brandID)
	}
	p.OwnedBrands = owned
	return !had
}
