package authstate

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfileRole is the application-level role stored on the profile row
type ProfileRole string

const (
	// RoleClient is the default role for provisioned accounts
	RoleClient ProfileRole = "client"
	// RoleAdmin can manage client accounts
	RoleAdmin ProfileRole = "admin"
)

// Profile is the application profile row keyed by the provider user id.
// The row, not the access token, is the source of truth for the role.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string      `bun:"email,notnull" json:"email,omitempty"`
	FullName      string      `bun:"full_name" json:"full_name,omitempty"`
	Role          ProfileRole `bun:"role,notnull" json:"role,omitempty"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsAdmin reports whether the profile grants the admin role.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Clone returns a copy so callers can hand snapshots out without sharing the
// stored row.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// ProfileChanges is the partial change set accepted by UpdateProfile. Nil
// fields are left untouched.
type ProfileChanges struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// IsZero reports whether the change set carries no updates.
func (c ProfileChanges) IsZero() bool {
	return c.FullName == nil && c.Email == nil
}

// User mirrors the provider-issued user object carried on sessions.
type User struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	CreatedAt    *time.Time     `json:"created_at,omitempty"`
	LastSignInAt *time.Time     `json:"last_sign_in_at,omitempty"`
}

// Clone returns a copy safe to publish in snapshots.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.UserMetadata != nil {
		cp.UserMetadata = make(map[string]any, len(u.UserMetadata))
		for k, v := range u.UserMetadata {
			cp.UserMetadata[k] = v
		}
	}
	if u.AppMetadata != nil {
		cp.AppMetadata = make(map[string]any, len(u.AppMetadata))
		for k, v := range u.AppMetadata {
			cp.AppMetadata[k] = v
		}
	}
	return &cp
}

// FullName extracts the display name from user metadata when present.
func (u *User) FullName() string {
	if u == nil || u.UserMetadata == nil {
		return ""
	}
	if name, ok := u.UserMetadata["full_name"].(string); ok {
		return name
	}
	return ""
}

// PasswordChangeRequired reads the admin-owned provisioning flag.
func (u *User) PasswordChangeRequired() bool {
	if u == nil || u.AppMetadata == nil {
		return false
	}
	required, ok := u.AppMetadata[AppMetadataPasswordChangeRequired].(bool)
	return ok && required
}
