package embedded

import (
	"fmt"
	"time"

	"github.com/goliatone/go-auth-state"
	"github.com/uptrace/bun"
)

const (
	defaultIssuer         = "go-auth-state/embedded"
	defaultAccessTokenTTL = time.Hour
)

// Config wires the embedded provider to its database and token settings.
type Config struct {
	// DB is the bun handle accounts and profiles are stored in. Required.
	DB *bun.DB

	// SigningKey signs issued access tokens (HS256). Required.
	SigningKey []byte

	// Issuer is the iss claim on issued tokens. Defaults to
	// "go-auth-state/embedded".
	Issuer string

	// Audience is the aud claim on issued tokens. Defaults to
	// ["authenticated"].
	Audience []string

	// AccessTokenTTL bounds issued access tokens. Defaults to one hour.
	AccessTokenTTL time.Duration

	// BcryptCost overrides the password hashing cost. Zero uses the build
	// default; tests lower it to bcrypt.MinCost.
	BcryptCost int

	// Logger receives provider diagnostics.
	Logger authstate.Logger
}

func (c Config) validate() error {
	if c.DB == nil {
		return fmt.Errorf("embedded: DB is required")
	}
	if len(c.SigningKey) == 0 {
		return fmt.Errorf("embedded: SigningKey is required")
	}
	return nil
}

func (c Config) issuer() string {
	if c.Issuer != "" {
		return c.Issuer
	}
	return defaultIssuer
}

func (c Config) audience() []string {
	if len(c.Audience) > 0 {
		return c.Audience
	}
	return []string{authstate.ProviderRoleAuthenticated}
}

func (c Config) accessTokenTTL() time.Duration {
	if c.AccessTokenTTL > 0 {
		return c.AccessTokenTTL
	}
	return defaultAccessTokenTTL
}
