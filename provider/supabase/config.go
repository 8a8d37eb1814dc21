package supabase

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-auth-state/sessioncache"
)

const (
	defaultProfilesTable = "profiles"
	defaultRefreshMargin = 60 * time.Second
	defaultHTTPTimeout   = 10 * time.Second
)

// Config holds project credentials and tuning for the hosted client.
type Config struct {
	// URL is the project base URL (e.g. "https://xyzcompany.supabase.co").
	URL string

	// AnonKey is the public API key sent with every request.
	AnonKey string

	// ServiceRoleKey unlocks the admin endpoints and bypasses row level
	// security. Optional; without it Admin() calls fail.
	ServiceRoleKey string

	// ProfilesTable is the PostgREST table holding application profiles.
	// Default: "profiles".
	ProfilesTable string

	// RefreshMargin is how long before access token expiry a background
	// refresh fires. Default: 60 seconds.
	RefreshMargin time.Duration

	// SessionStore persists sessions between runs.
	// Default: in-process memory store.
	SessionStore sessioncache.Store

	// HTTPClient overrides the transport. Default: 10 second timeout client.
	HTTPClient *http.Client

	// Logger receives client diagnostics.
	Logger authstate.Logger
}

// Configured reports whether URL and key are present and are not
// recognizable placeholders left behind by project templates.
func (c Config) Configured() bool {
	if looksPlaceholder(c.URL) || looksPlaceholder(c.AnonKey) {
		return false
	}

	parsed, err := url.Parse(strings.TrimSpace(c.URL))
	if err != nil || parsed.Host == "" {
		return false
	}

	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

var placeholderMarkers = []string{
	"your_supabase",
	"your-supabase",
	"your_project",
	"your-project",
	"example.supabase.co",
	"changeme",
	"<",
}

func looksPlaceholder(value string) bool {
	lowered := strings.ToLower(strings.TrimSpace(value))
	if lowered == "" {
		return true
	}

	for _, marker := range placeholderMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}

	return false
}

func (c Config) baseURL() string {
	return strings.TrimSuffix(strings.TrimSpace(c.URL), "/")
}

func (c Config) profilesTable() string {
	if c.ProfilesTable != "" {
		return c.ProfilesTable
	}
	return defaultProfilesTable
}

func (c Config) refreshMargin() time.Duration {
	if c.RefreshMargin > 0 {
		return c.RefreshMargin
	}
	return defaultRefreshMargin
}
