package authstate

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims represents structured access token claims
type SessionClaims interface {
	Subject() string
	UserUUID() (uuid.UUID, error)
	Email() string
	Role() string
	SessionID() string
	Expires() time.Time
	IssuedAt() time.Time
	User() *User
}

// AccessClaims is the concrete implementation of SessionClaims, mirroring
// the provider's access token payload
type AccessClaims struct {
	jwt.RegisteredClaims
	UserEmail    string         `json:"email,omitempty"`
	UserPhone    string         `json:"phone,omitempty"`
	ProviderRole string         `json:"role,omitempty"`
	SID          string         `json:"session_id,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	IsAnonymous  bool           `json:"is_anonymous,omitempty"`
}

// Verify interface compliance
var _ SessionClaims = (*AccessClaims)(nil)

// Subject returns the subject claim, the provider user id
func (c *AccessClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserUUID parses the subject claim into a provider user id
func (c *AccessClaims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.RegisteredClaims.Subject)
}

// Email returns the email claim
func (c *AccessClaims) Email() string {
	return c.UserEmail
}

// Role returns the provider-level role claim, not the application role
func (c *AccessClaims) Role() string {
	return c.ProviderRole
}

// SessionID returns the provider session id claim
func (c *AccessClaims) SessionID() string {
	return c.SID
}

// Expires returns the expiration time
func (c *AccessClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *AccessClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// User materializes the provider user mirror carried in the claims. The id
// is zero when the subject is not a valid uuid.
func (c *AccessClaims) User() *User {
	id, _ := c.UserUUID()
	return &User{
		ID:           id,
		Email:        c.UserEmail,
		Phone:        c.UserPhone,
		Role:         c.ProviderRole,
		UserMetadata: c.UserMetadata,
		AppMetadata:  c.AppMetadata,
	}
}
