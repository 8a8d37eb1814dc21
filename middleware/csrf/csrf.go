package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-router"
)

var (
	ErrTokenMismatch    = errors.New("CSRF token mismatch")
	ErrTokenMissing     = errors.New("CSRF token missing")
	ErrTokenExpired     = errors.New("CSRF token expired")
	ErrSecureKeyMissing = errors.New("CSRF secure key required")
)

// DefaultTokenLength is the nonce length in bytes for generated tokens
const DefaultTokenLength = 32

// DefaultTemplateHelpersKey defines the default context key used when merging CSRF template helpers.
const DefaultTemplateHelpersKey = "template_helpers"

// DefaultContextKey is the default key for storing CSRF tokens in context
const DefaultContextKey = "csrf_token"

// DefaultFormFieldName is the default name for the CSRF token form field
const DefaultFormFieldName = "_token"

// DefaultHeaderName is the default header name for CSRF tokens
const DefaultHeaderName = "X-CSRF-Token"

// DefaultSessionKey is the context key checked for the authenticated session claims.
const DefaultSessionKey = "session"

// DefaultExpiration bounds how long an issued token verifies.
const DefaultExpiration = 24 * time.Hour

// Config defines the configuration for CSRF middleware
type Config struct {
	// Skip defines a function to skip middleware
	Skip func(router.Context) bool

	// TokenLength defines the nonce length of generated tokens
	TokenLength int

	// ContextKey defines the key for storing the token in context
	ContextKey string

	// FormFieldName defines the name of the form field containing the token
	FormFieldName string

	// HeaderName defines the header name for the token
	HeaderName string

	// TokenLookup defines where to look for the token
	// Format: "form:_token,header:X-CSRF-Token"
	TokenLookup string

	// SessionKey is the context key holding the authenticated session claims.
	// Tokens are scoped to the session found there, falling back to client IP.
	SessionKey string

	// ErrorHandler defines the error handler
	ErrorHandler router.ErrorHandler

	// SuccessHandler defines the success handler
	SuccessHandler router.HandlerFunc

	// SafeMethods defines HTTP methods that don't require CSRF protection
	SafeMethods []string

	// Expiration defines how long tokens are valid
	Expiration time.Duration

	// SecureKey signs generated tokens. Must be at least 32 bytes when set.
	// When empty a random key is generated, which invalidates outstanding
	// tokens on restart.
	SecureKey []byte

	// DisableTemplateHelpers disables automatic template helper injection when true.
	DisableTemplateHelpers bool
	// TemplateHelpersKey defines the context key used when storing helper maps via LocalsMerge.
	TemplateHelpersKey string
}

// TokenExtractor defines a function to extract token from request
type TokenExtractor func(router.Context) string

// sessionIdentity is the subset of the session claims needed to scope a token
// to its owner. The session middleware stores a value with this shape under
// its context key.
type sessionIdentity interface {
	Subject() string
	SessionID() string
}

// New creates a new CSRF middleware
func New(config ...Config) router.MiddlewareFunc {
	cfg := configDefault(config...)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			token, err := issueToken(ctx, cfg)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, token)
			ctx.Locals(cfg.ContextKey+"_field", cfg.FormFieldName)
			ctx.Locals(cfg.ContextKey+"_header", cfg.HeaderName)
			if !cfg.DisableTemplateHelpers {
				helpers := CSRFTemplateHelpersWithRouter(ctx, cfg.ContextKey)
				ctx.LocalsMerge(cfg.TemplateHelpersKey, helpers)
			}

			// safe methods don't require validation
			method := strings.ToUpper(ctx.Method())
			if slices.Contains(cfg.SafeMethods, method) {
				return cfg.SuccessHandler(ctx)
			}

			if err := validateToken(ctx, cfg); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// issueToken mints a token of the form base64(timestamp:nonce:signature),
// where the signature covers the timestamp, nonce, and request scope.
func issueToken(ctx router.Context, cfg Config) (string, error) {
	if len(cfg.SecureKey) == 0 {
		return "", ErrSecureKeyMissing
	}

	nonce := make([]byte, cfg.TokenLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	prefix := fmt.Sprintf("%d:%s", time.Now().UTC().Unix(), hex.EncodeToString(nonce))
	token := prefix + ":" + hex.EncodeToString(sign(cfg.SecureKey, prefix, tokenScope(ctx, cfg)))

	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

// validateToken checks the submitted token against the current request scope.
func validateToken(ctx router.Context, cfg Config) error {
	if len(cfg.SecureKey) == 0 {
		return ErrSecureKeyMissing
	}

	token := extractToken(ctx, cfg)
	if token == "" {
		return ErrTokenMissing
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrTokenMismatch
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 3 {
		return ErrTokenMismatch
	}

	timestampStr, nonceHex, signatureHex := parts[0], parts[1], parts[2]

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return ErrTokenMismatch
	}

	if _, err := hex.DecodeString(nonceHex); err != nil {
		return ErrTokenMismatch
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return ErrTokenMismatch
	}

	// The scope is derived from the request on both sides rather than carried
	// in the token, so a token minted under one session fails the signature
	// check when replayed under another.
	expected := sign(cfg.SecureKey, timestampStr+":"+nonceHex, tokenScope(ctx, cfg))
	if !hmac.Equal(signature, expected) {
		return ErrTokenMismatch
	}

	if cfg.Expiration > 0 {
		expiresAt := time.Unix(timestamp, 0).Add(cfg.Expiration)
		if time.Now().UTC().After(expiresAt) {
			return ErrTokenExpired
		}
	}

	return nil
}

func sign(key []byte, prefix, scope string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(prefix + ":" + scope))
	return mac.Sum(nil)
}

// tokenScope identifies the party a token is bound to, preferring the
// authenticated session over the client address.
func tokenScope(ctx router.Context, cfg Config) string {
	if claims, ok := ctx.Locals(cfg.SessionKey).(sessionIdentity); ok {
		if sid := claims.SessionID(); sid != "" {
			return "session:" + sid
		}
		if sub := claims.Subject(); sub != "" {
			return "user:" + sub
		}
	}

	// fallback to IP based scope, less strict but OK for anonymous forms
	return "ip:" + ctx.IP()
}

func extractToken(ctx router.Context, cfg Config) string {
	for _, extractor := range lookupExtractors(cfg.TokenLookup, cfg.FormFieldName, cfg.HeaderName) {
		if token := extractor(ctx); token != "" {
			return token
		}
	}

	return ""
}

// lookupExtractors returns token extractors based on configuration
func lookupExtractors(tokenLookup, formField, header string) []TokenExtractor {
	if tokenLookup == "" {
		return []TokenExtractor{
			formExtractor(formField),
			headerExtractor(header),
		}
	}

	// Parse tokenLookup: "form:_token,header:X-CSRF-Token"
	var extractors []TokenExtractor
	for _, part := range strings.Split(tokenLookup, ",") {
		part = strings.TrimSpace(part)
		if field, ok := strings.CutPrefix(part, "form:"); ok {
			extractors = append(extractors, formExtractor(field))
		} else if name, ok := strings.CutPrefix(part, "header:"); ok {
			extractors = append(extractors, headerExtractor(name))
		}
	}

	return extractors
}

func formExtractor(fieldName string) TokenExtractor {
	return func(ctx router.Context) string {
		return ctx.FormValue(fieldName)
	}
}

func headerExtractor(headerName string) TokenExtractor {
	return func(ctx router.Context) string {
		return ctx.GetString(headerName, "")
	}
}

// configDefault returns a default config
func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultTokenLength
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.FormFieldName == "" {
		cfg.FormFieldName = DefaultFormFieldName
	}

	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}

	if cfg.SessionKey == "" {
		cfg.SessionKey = DefaultSessionKey
	}

	if cfg.SafeMethods == nil {
		cfg.SafeMethods = []string{"GET", "HEAD", "OPTIONS", "TRACE"}
	}

	if cfg.Expiration == 0 {
		cfg.Expiration = DefaultExpiration
	}

	if cfg.TemplateHelpersKey == "" {
		cfg.TemplateHelpersKey = DefaultTemplateHelpersKey
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	cfg.SecureKey = initializeSecureKey(cfg.SecureKey)

	return cfg
}

func defaultErrorHandler(ctx router.Context, err error) error {
	switch err {
	case ErrTokenMissing:
		return ctx.Status(router.StatusBadRequest).SendString("CSRF token missing")
	case ErrTokenMismatch:
		return ctx.Status(router.StatusForbidden).SendString("CSRF token mismatch")
	case ErrTokenExpired:
		return ctx.Status(router.StatusForbidden).SendString("CSRF token expired")
	case ErrSecureKeyMissing:
		return ctx.Status(router.StatusInternalServerError).SendString("CSRF configuration error")
	default:
		return ctx.Status(router.StatusInternalServerError).SendString("CSRF validation error")
	}
}

func initializeSecureKey(current []byte) []byte {
	if len(current) > 0 {
		if len(current) < 32 {
			panic(fmt.Errorf("csrf: secure key must be at least 32 bytes, got %d", len(current)))
		}
		return current
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		panic(fmt.Errorf("csrf: unable to initialize secure key: %w", err))
	}

	return key
}

// CSRFTemplateHelpers returns placeholder helper values for templates rendered
// outside a request, before any token exists.
func CSRFTemplateHelpers() map[string]any {
	return map[string]any{
		"csrf_token":       "",
		"csrf_field":       `<input type="hidden" name="` + DefaultFormFieldName + `" value="">`,
		"csrf_meta":        `<meta name="csrf-token" content="">`,
		"csrf_header_name": DefaultHeaderName,
	}
}

// CSRFTemplateHelpersWithRouter returns template helpers with access to router context
func CSRFTemplateHelpersWithRouter(ctx router.Context, tokenKey string) map[string]any {
	if tokenKey == "" {
		tokenKey = DefaultContextKey
	}

	token := stringLocal(ctx, tokenKey, "")
	fieldName := stringLocal(ctx, tokenKey+"_field", DefaultFormFieldName)
	headerName := stringLocal(ctx, tokenKey+"_header", DefaultHeaderName)

	return map[string]any{
		"csrf_token":       token,
		"csrf_field":       `<input type="hidden" name="` + fieldName + `" value="` + token + `">`,
		"csrf_meta":        `<meta name="csrf-token" content="` + token + `">`,
		"csrf_header_name": headerName,
	}
}
