package authstate

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var profileCtxKey = &contextKey{"profile"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithProfileContext sets the Profile in the given context
func WithProfileContext(r context.Context, profile *Profile) context.Context {
	return context.WithValue(r, profileCtxKey, profile)
}

// ProfileFromContext finds the profile from the context.
func ProfileFromContext(ctx context.Context) (*Profile, bool) {
	raw, ok := ctx.Value(profileCtxKey).(*Profile)
	return raw, ok
}

// WithClaimsContext sets the SessionClaims in the given context
func WithClaimsContext(r context.Context, claims SessionClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the SessionClaims from the standard context
func GetClaims(ctx context.Context) (SessionClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(SessionClaims)
	return raw, ok
}

// GetRouterClaims extracts the SessionClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (SessionClaims, bool) {
	if key == "" {
		key = "session" // Default key used by the session middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(SessionClaims)
	return claims, ok
}

// GetRouterProfile extracts the resolved Profile from the router context
func GetRouterProfile(ctx router.Context, key string) (*Profile, bool) {
	if key == "" {
		key = "profile" // Default key used by the session middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	profile, ok := raw.(*Profile)
	return profile, ok
}

// IsAdminFromRouter is a convenience check for the admin role on the
// resolved profile in the router context
func IsAdminFromRouter(ctx router.Context) bool {
	profile, ok := GetRouterProfile(ctx, "")
	if !ok {
		return false
	}
	return profile.IsAdmin()
}
