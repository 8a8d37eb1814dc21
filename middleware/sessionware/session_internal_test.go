package sessionware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func stubValidator() TokenValidator {
	return TokenValidatorFunc(func(tokenString string) (SessionClaims, error) {
		return nil, ErrSessionMissingOrMalfomed
	})
}

func TestGetDefaultConfigDefaults(t *testing.T) {
	cfg := GetDefaultConfig(Config{TokenValidator: stubValidator()})

	require.Equal(t, "session", cfg.ContextKey)
	require.Equal(t, "profile", cfg.ProfileKey)
	require.Equal(t, "current_user", cfg.TemplateUserKey)
	require.Equal(t, "Bearer", cfg.AuthScheme)
	require.Equal(t, defaultTokenLookup, cfg.TokenLookup)
	require.NotNil(t, cfg.SuccessHandler)
	require.NotNil(t, cfg.ErrorHandler)
	require.NotNil(t, cfg.RoleRanker)
}

func TestGetDefaultConfigRequiresValidator(t *testing.T) {
	require.Panics(t, func() {
		GetDefaultConfig(Config{})
	})
}

func TestDefaultRoleRanker(t *testing.T) {
	require.Equal(t, 0, defaultRoleRanker("client"))
	require.Equal(t, 1, defaultRoleRanker("admin"))
	require.Equal(t, -1, defaultRoleRanker("viewer"))
	require.Equal(t, -1, defaultRoleRanker(""))
	require.Less(t, defaultRoleRanker(""), defaultRoleRanker("client"))
}

func TestGetExtractorsParsesLookup(t *testing.T) {
	extractors := GetExtractors("header:Authorization,query:auth_token,param:token,cookie:session_token")
	require.Len(t, extractors, 4)

	// whitespace and unknown sources are tolerated
	extractors = GetExtractors(" cookie : session_token , carrier:pigeon")
	require.Len(t, extractors, 1)
}
