package authstate

import (
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// JWKSValidator validates access tokens against a remote JWK Set, for
// projects whose tokens are signed with asymmetric keys instead of the
// shared HS256 secret. The key set refreshes in the background for the
// lifetime of the validator.
type JWKSValidator struct {
	keyFn    jwt.Keyfunc
	stop     func()
	issuer   string
	audience jwt.ClaimStrings
	logger   Logger
}

// Verify interface compliance
var _ TokenValidator = (*JWKSValidator)(nil)

// NewJWKSValidator fetches the key set from the given URLs and returns a
// validator backed by it. With multiple URLs the first set carrying the
// token's key id wins.
func NewJWKSValidator(urls []string, issuer string, audience jwt.ClaimStrings, logger Logger) (*JWKSValidator, error) {
	if logger == nil {
		logger = defaultLogger()
	}
	if len(urls) == 0 {
		return nil, errors.New("at least one JWK Set URL is required", errors.CategoryBadInput)
	}

	v := &JWKSValidator{
		issuer:   issuer,
		audience: audience,
		logger:   logger,
	}

	opts := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Error("failed to do a background refresh of JWK Set", "error", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}

	if len(urls) == 1 {
		jwks, err := keyfunc.Get(urls[0], opts)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to get JWK Set")
		}
		v.keyFn = jwks.Keyfunc
		v.stop = jwks.EndBackground
		return v, nil
	}

	m := make(map[string]keyfunc.Options, len(urls))
	for _, url := range urls {
		m[url] = opts
	}
	multi, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, errors.Wrap(
			fmt.Errorf("failed to get JWT URLs: %w", err),
			errors.CategoryOperation, "failed to get JWK Set",
		)
	}
	v.keyFn = multi.Keyfunc
	return v, nil
}

// Validate satisfies the TokenValidator interface.
func (v *JWKSValidator) Validate(tokenString string) (SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}
	if len(v.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(v.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, v.keyFn, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*AccessClaims); ok && token.Valid {
		return claims, nil
	}

	v.logger.Error("JWKSValidator could not decode or validate claims")
	return nil, ErrUnableToDecodeSession
}

// Close stops the background key refresh when one is running.
func (v *JWKSValidator) Close() {
	if v.stop != nil {
		v.stop()
	}
}
