package authstate

import (
	"maps"

	"github.com/goliatone/go-auth-state/middleware/csrf"
	"github.com/goliatone/go-router"
)

// TemplateUserKey is the locals key the session middleware populates with the
// resolved template user, normally the profile row.
var TemplateUserKey = "current_user"

// TemplateHelpers returns a map of helper functions and data that can be
// registered as global template functions.
//
// In templates, you can then use:
//
//	{% if current_user %}
//	{% if has_role(current_user, "admin") %}
//	{% if is_at_least(current_user, "client") %}
//	{{ csrf_field }}
func TemplateHelpers() map[string]any {
	helpers := map[string]any{
		// Authentication helper functions
		"is_authenticated":   isAuthenticated,
		"has_role":           hasRole,
		"is_at_least":        isAtLeast,
		"is_admin":           isAdmin,
		"can_manage_clients": canManageClients,

		// Role constants for easy template access
		"roles": map[string]string{
			"client": string(RoleClient),
			"admin":  string(RoleAdmin),
		},
	}

	// add CSRF template helpers
	maps.Copy(helpers, csrf.CSRFTemplateHelpers())

	return helpers
}

// TemplateHelpersWithUser returns template helpers with a specific user set as
// current_user. Useful when injecting the user into global renderer data
// outside a request.
func TemplateHelpersWithUser(user any) map[string]any {
	helpers := TemplateHelpers()
	helpers[TemplateUserKey] = user
	return helpers
}

// TemplateHelpersWithRouter returns template helpers with user data extracted
// from router context. It also resolves the CSRF helpers against the token the
// CSRF middleware stored for this request.
func TemplateHelpersWithRouter(ctx router.Context, userKey string) map[string]any {
	if userKey == "" {
		userKey = TemplateUserKey
	}

	helpers := TemplateHelpers()

	if user := ctx.Locals(userKey); user != nil {
		helpers[TemplateUserKey] = user
	}

	for key, value := range csrf.CSRFTemplateHelpersWithRouter(ctx, csrf.DefaultContextKey) {
		helpers[key] = value
	}

	return helpers
}

// MergeTemplateData merges request scoped template data into the view context.
// It refreshes the shared template_helpers local with the CSRF helpers for the
// current request and carries the resolved template user, without clobbering
// keys the caller set explicitly.
func MergeTemplateData(ctx router.Context, data router.ViewContext) router.ViewContext {
	if data == nil {
		data = router.ViewContext{}
	}

	helpers := csrf.CSRFTemplateHelpersWithRouter(ctx, csrf.DefaultContextKey)
	merged := ctx.LocalsMerge(csrf.DefaultTemplateHelpersKey, helpers)

	for key, value := range merged {
		if _, exists := data[key]; !exists {
			data[key] = value
		}
	}

	if user, ok := GetTemplateUser(ctx, TemplateUserKey); ok {
		if _, exists := data[TemplateUserKey]; !exists {
			data[TemplateUserKey] = user
		}
	}

	return data
}

// GetTemplateUser extracts the template user from the router context. It
// returns the user object and a boolean indicating if it was found.
func GetTemplateUser(ctx router.Context, userKey string) (any, bool) {
	if userKey == "" {
		userKey = TemplateUserKey
	}

	user := ctx.Locals(userKey)
	return user, user != nil
}

// isAuthenticated checks if the provided user object represents a signed in user
func isAuthenticated(user any) bool {
	if user == nil {
		return false
	}

	switch u := user.(type) {
	case *Profile:
		return u != nil
	case Profile:
		return true
	case *User:
		return u != nil
	case User:
		return true
	case SessionClaims:
		return u != nil && u.Subject() != ""
	case map[string]any:
		// Handle JSON-converted user objects
		return len(u) > 0
	default:
		return false
	}
}

// templateRole extracts the application role from whatever object a template
// carries as the current user. Only the profile row grants a role. The
// provider user and raw token claims never do.
func templateRole(user any) (ProfileRole, bool) {
	switch u := user.(type) {
	case *Profile:
		if u == nil {
			return "", false
		}
		return u.Role, true
	case Profile:
		return u.Role, true
	case map[string]any:
		// Handle JSON-converted profile objects
		if raw, ok := u["role"].(string); ok {
			return ProfileRole(raw), true
		}
		return "", false
	default:
		return "", false
	}
}

// hasRole checks if the user has the specified role
func hasRole(user any, role string) bool {
	current, ok := templateRole(user)
	if !ok {
		return false
	}
	return current == ProfileRole(role)
}

// isAtLeast checks if the user's role is at least the minimum required level
func isAtLeast(user any, minRole string) bool {
	current, ok := templateRole(user)
	if !ok {
		return false
	}
	return current.IsAtLeast(ProfileRole(minRole))
}

// isAdmin checks if the user holds the admin role
func isAdmin(user any) bool {
	return hasRole(user, string(RoleAdmin))
}

// canManageClients checks if the user can provision and manage client accounts
func canManageClients(user any) bool {
	current, ok := templateRole(user)
	if !ok {
		return false
	}
	return current.CanManageClients()
}
