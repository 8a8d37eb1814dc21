package embedded

import (
	"time"

	"github.com/goliatone/go-auth-state"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the provider's auth row: credentials plus the provider-level
// user record issued on sessions. Application data stays on the profiles
// row.
type Account struct {
	bun.BaseModel `bun:"table:auth_accounts,alias:acc"`

	ID                     uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email                  string         `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone                  string         `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash           string         `bun:"password_hash,notnull" json:"-"`
	Role                   string         `bun:"role,notnull" json:"role,omitempty"`
	PasswordChangeRequired bool           `bun:"password_change_required" json:"password_change_required,omitempty"`
	EmailConfirmedAt       *time.Time     `bun:"email_confirmed_at,nullzero" json:"email_confirmed_at,omitempty"`
	UserMetadata           map[string]any `bun:"user_metadata" json:"user_metadata,omitempty"`
	AppMetadata            map[string]any `bun:"app_metadata" json:"app_metadata,omitempty"`
	LastSignInAt           *time.Time     `bun:"last_sign_in_at,nullzero" json:"last_sign_in_at,omitempty"`
	CreatedAt              *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt              *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt              *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// User maps the account to the wire-level user carried on sessions. The
// password-change-required flag surfaces through app_metadata so state
// consumers see the same shape the hosted provider produces.
func (a *Account) User() *authstate.User {
	if a == nil {
		return nil
	}

	user := &authstate.User{
		ID:           a.ID,
		Email:        a.Email,
		Phone:        a.Phone,
		Role:         a.Role,
		CreatedAt:    a.CreatedAt,
		LastSignInAt: a.LastSignInAt,
	}

	if len(a.UserMetadata) > 0 {
		user.UserMetadata = make(map[string]any, len(a.UserMetadata))
		for k, v := range a.UserMetadata {
			user.UserMetadata[k] = v
		}
	}

	if len(a.AppMetadata) > 0 || a.PasswordChangeRequired {
		user.AppMetadata = make(map[string]any, len(a.AppMetadata)+1)
		for k, v := range a.AppMetadata {
			user.AppMetadata[k] = v
		}
		if a.PasswordChangeRequired {
			user.AppMetadata[authstate.AppMetadataPasswordChangeRequired] = true
		}
	}

	return user
}
