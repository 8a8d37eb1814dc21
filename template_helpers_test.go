package authstate

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	csfmw "github.com/goliatone/go-auth-state/middleware/csrf"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTemplateHelpers(t *testing.T) {
	helpers := TemplateHelpers()

	expectedHelpers := []string{
		"is_authenticated",
		"has_role",
		"is_at_least",
		"is_admin",
		"can_manage_clients",
		"roles",
		"csrf_token",
		"csrf_field",
		"csrf_meta",
		"csrf_header_name",
	}

	for _, helper := range expectedHelpers {
		assert.Contains(t, helpers, helper, "Expected helper %s should be present", helper)
	}

	roles, ok := helpers["roles"].(map[string]string)
	require.True(t, ok, "roles should be a map[string]string")
	assert.Equal(t, string(RoleClient), roles["client"])
	assert.Equal(t, string(RoleAdmin), roles["admin"])
}

func TestTemplateHelpersWithUser(t *testing.T) {
	profile := &Profile{
		ID:       uuid.New(),
		Email:    "ada@example.com",
		FullName: "Ada Lovelace",
		Role:     RoleAdmin,
	}

	helpers := TemplateHelpersWithUser(profile)

	assert.Contains(t, helpers, "is_authenticated")
	assert.Contains(t, helpers, "has_role")

	currentUser, ok := helpers[TemplateUserKey].(*Profile)
	require.True(t, ok, "current_user should be a *Profile")
	assert.Equal(t, profile, currentUser)
}

func TestIsAuthenticated(t *testing.T) {
	tests := []struct {
		name     string
		user     any
		expected bool
	}{
		{
			name:     "nil user",
			user:     nil,
			expected: false,
		},
		{
			name:     "profile pointer",
			user:     &Profile{ID: uuid.New(), Role: RoleClient},
			expected: true,
		},
		{
			name:     "profile value",
			user:     Profile{ID: uuid.New(), Role: RoleAdmin},
			expected: true,
		},
		{
			name:     "nil profile pointer",
			user:     (*Profile)(nil),
			expected: false,
		},
		{
			name:     "provider user pointer",
			user:     &User{ID: uuid.New()},
			expected: true,
		},
		{
			name:     "nil provider user pointer",
			user:     (*User)(nil),
			expected: false,
		},
		{
			name: "session claims with subject",
			user: &AccessClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
			},
			expected: true,
		},
		{
			name:     "session claims without subject",
			user:     &AccessClaims{},
			expected: false,
		},
		{
			name:     "JSON-converted user (non-empty map)",
			user:     map[string]any{"id": "123", "role": "admin"},
			expected: true,
		},
		{
			name:     "JSON-converted user (empty map)",
			user:     map[string]any{},
			expected: false,
		},
		{
			name:     "unexpected type",
			user:     42,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isAuthenticated(tt.user))
		})
	}
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		name     string
		user     any
		role     string
		expected bool
	}{
		{
			name:     "admin profile has admin role",
			user:     &Profile{Role: RoleAdmin},
			role:     "admin",
			expected: true,
		},
		{
			name:     "client profile lacks admin role",
			user:     &Profile{Role: RoleClient},
			role:     "admin",
			expected: false,
		},
		{
			name:     "profile value",
			user:     Profile{Role: RoleClient},
			role:     "client",
			expected: true,
		},
		{
			name:     "JSON-converted profile",
			user:     map[string]any{"role": "admin"},
			role:     "admin",
			expected: true,
		},
		{
			name:     "JSON-converted profile without role",
			user:     map[string]any{"email": "ada@example.com"},
			role:     "admin",
			expected: false,
		},
		{
			name:     "provider user carries no application role",
			user:     &User{ID: uuid.New(), Role: "authenticated"},
			role:     "authenticated",
			expected: false,
		},
		{
			name:     "nil user",
			user:     nil,
			role:     "admin",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, hasRole(tt.user, tt.role))
		})
	}
}

func TestIsAtLeast(t *testing.T) {
	tests := []struct {
		name     string
		user     any
		minRole  string
		expected bool
	}{
		{
			name:     "admin meets client minimum",
			user:     &Profile{Role: RoleAdmin},
			minRole:  "client",
			expected: true,
		},
		{
			name:     "client does not meet admin minimum",
			user:     &Profile{Role: RoleClient},
			minRole:  "admin",
			expected: false,
		},
		{
			name:     "client meets client minimum",
			user:     &Profile{Role: RoleClient},
			minRole:  "client",
			expected: true,
		},
		{
			name:     "unknown role never qualifies",
			user:     &Profile{Role: ProfileRole("viewer")},
			minRole:  "client",
			expected: false,
		},
		{
			name:     "nil user",
			user:     nil,
			minRole:  "client",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isAtLeast(tt.user, tt.minRole))
		})
	}
}

func TestAdminHelpers(t *testing.T) {
	admin := &Profile{Role: RoleAdmin}
	client := &Profile{Role: RoleClient}

	assert.True(t, isAdmin(admin))
	assert.False(t, isAdmin(client))
	assert.True(t, canManageClients(admin))
	assert.False(t, canManageClients(client))
	assert.False(t, canManageClients(nil))
}

func TestTemplateHelpersWithRouter(t *testing.T) {
	profile := &Profile{ID: uuid.New(), Role: RoleAdmin}

	ctx := router.NewMockContext()
	ctx.LocalsMock[TemplateUserKey] = profile
	ctx.LocalsMock[csfmw.DefaultContextKey] = "req-token"
	ctx.LocalsMock[csfmw.DefaultContextKey+"_field"] = "_token"
	ctx.LocalsMock[csfmw.DefaultContextKey+"_header"] = "X-CSRF-Token"

	helpers := TemplateHelpersWithRouter(ctx, "")

	assert.Equal(t, profile, helpers[TemplateUserKey])
	assert.Equal(t, "req-token", helpers["csrf_token"])

	field, ok := helpers["csrf_field"].(string)
	require.True(t, ok)
	assert.Contains(t, field, `value="req-token"`)
}

func TestGetTemplateUser(t *testing.T) {
	ctx := router.NewMockContext()

	_, found := GetTemplateUser(ctx, "")
	assert.False(t, found)

	profile := &Profile{ID: uuid.New()}
	ctx.LocalsMock[TemplateUserKey] = profile

	user, found := GetTemplateUser(ctx, "")
	require.True(t, found)
	assert.Equal(t, profile, user)
}

func TestMergeTemplateDataInjectsCSRFHelpers(t *testing.T) {
	ctx := router.NewMockContext()
	token := "csrf-token-123"

	ctx.LocalsMock[csfmw.DefaultContextKey] = token
	ctx.LocalsMock[csfmw.DefaultContextKey+"_field"] = "_token"
	ctx.LocalsMock[csfmw.DefaultContextKey+"_header"] = "X-CSRF-Token"
	ctx.On("LocalsMerge", csfmw.DefaultTemplateHelpersKey, mock.Anything).Return(map[string]any{})

	viewCtx := MergeTemplateData(ctx, router.ViewContext{
		"title": "login",
	})

	require.Equal(t, "login", viewCtx["title"])

	helpers, ok := ctx.LocalsMock[csfmw.DefaultTemplateHelpersKey].(map[string]any)
	require.True(t, ok, "helpers should be stored in locals")
	require.Equal(t, token, helpers["csrf_token"])

	field, ok := helpers["csrf_field"].(string)
	require.True(t, ok, "csrf_field should be a string input")
	require.Contains(t, field, `value="`+token+`"`)
	require.Contains(t, field, `name="_token"`)
}

func TestMergeTemplateDataCarriesTemplateUser(t *testing.T) {
	profile := &Profile{ID: uuid.New(), Role: RoleClient}

	ctx := router.NewMockContext()
	ctx.LocalsMock[TemplateUserKey] = profile
	ctx.On("LocalsMerge", csfmw.DefaultTemplateHelpersKey, mock.Anything).Return(map[string]any{})

	viewCtx := MergeTemplateData(ctx, nil)
	assert.Equal(t, profile, viewCtx[TemplateUserKey])

	// caller supplied values win over context derived ones
	viewCtx = MergeTemplateData(ctx, router.ViewContext{TemplateUserKey: "someone-else"})
	assert.Equal(t, "someone-else", viewCtx[TemplateUserKey])
}
