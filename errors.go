package authstate

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrNotConfigured is returned when the provider credentials are missing or
// still hold recognizable placeholders. Bootstrap treats it as terminal.
var ErrNotConfigured = errors.New("auth provider is not configured", errors.CategoryOperation).
	WithTextCode("PROVIDER_NOT_CONFIGURED")

// ErrNotAuthenticated is returned by mutations that require a signed-in user.
var ErrNotAuthenticated = errors.New("no authenticated user", errors.CategoryAuth).
	WithTextCode("NOT_AUTHENTICATED").
	WithCode(errors.CodeUnauthorized)

// ErrProfileNotFound marks the valid "no profile row yet" outcome. Detect it
// with IsProfileNotFound; it is terminal for the fetch retry policy.
var ErrProfileNotFound = errors.New("profile row not found", errors.CategoryNotFound).
	WithTextCode("PROFILE_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrTokenExpired is returned when an access token is past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when an access token cannot be parsed.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession is returned when token claims cannot be mapped.
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode("SESSION_DECODE_FAILED").
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials is returned by providers when a password grant is
// rejected.
var ErrInvalidCredentials = errors.New("invalid login credentials", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrAdminRequired is returned when a non-admin session reaches an
// admin-gated operation.
var ErrAdminRequired = errors.New("admin role required", errors.CategoryAuthz).
	WithTextCode("ADMIN_REQUIRED").
	WithCode(errors.CodeForbidden)

// ErrClientCreateDisabled is returned when the client-creation feature gate
// is off.
var ErrClientCreateDisabled = errors.New("client account creation is disabled", errors.CategoryAuthz).
	WithTextCode("CLIENT_CREATE_DISABLED").
	WithCode(errors.CodeForbidden)

// IsProfileNotFound reports whether err represents the missing-profile-row
// outcome, including wrapped provider variants.
func IsProfileNotFound(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrProfileNotFound) {
		return true
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == ErrProfileNotFound.TextCode
	}

	return false
}

// IsNotConfigured reports whether err represents unusable provider
// configuration.
func IsNotConfigured(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNotConfigured) {
		return true
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == ErrNotConfigured.TextCode
	}

	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
