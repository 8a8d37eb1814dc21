package authstate

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Client is the provider surface this layer consumes. Implementations wrap
// the hosted BaaS APIs or an embedded double; the store never talks to the
// network directly.
type Client interface {
	// Configured reports whether the client has real credentials. An
	// unconfigured client must not be called.
	Configured() bool
	// GetSession returns the current session, or nil when none is persisted
	GetSession(ctx context.Context) (*Session, error)
	// AuthChanges returns a feed of auth transitions. The channel closes
	// when ctx is canceled or the client shuts down.
	AuthChanges(ctx context.Context) (<-chan AuthChange, error)
	// SignOut invalidates the provider session
	SignOut(ctx context.Context) error
	// Admin exposes privileged account management
	Admin() AdminAPI
	// Profiles exposes the application profile row store
	Profiles() ProfileAPI
}

// AdminAPI holds privileged operations backed by the provider's service
// credentials, never by the end-user session.
type AdminAPI interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)
}

// ProfileAPI is the row store scoped to application profiles.
type ProfileAPI interface {
	// Get returns the profile for a provider user id. A missing row yields
	// ErrProfileNotFound, not a nil-nil pair.
	Get(ctx context.Context, userID uuid.UUID) (*Profile, error)
	// Update applies a partial change set and returns the stored row
	Update(ctx context.Context, userID uuid.UUID, changes ProfileChanges) (*Profile, error)
	// Insert creates a new profile row and returns it as stored
	Insert(ctx context.Context, profile *Profile) (*Profile, error)
}

// CreateUserInput is the payload for privileged account creation.
type CreateUserInput struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	Phone        string         `json:"phone,omitempty"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
}

// SessionIssuer exchanges credentials for a provider session. The HTTP
// login surface uses it; the store itself never signs users in.
type SessionIssuer interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
}

// LoginPayload is the credential surface login forms hand to the session
// layer.
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
	GetExtendedSession() bool
}

// Navigator performs the post-sign-out redirect. Web surfaces plug in a
// response redirect; headless hosts can log or ignore it.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

// Navigate calls fn(path)
func (fn NavigatorFunc) Navigate(path string) {
	fn(path)
}

// Config holds store tuning options
type Config interface {
	GetBootstrapTimeout() time.Duration
	GetFetchMaxAttempts() int
	GetFetchBaseDelay() time.Duration
	GetSignOutPath() string
}
