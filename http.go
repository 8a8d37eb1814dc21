package authstate

import (
	"net/http"
	"time"

	"github.com/goliatone/go-auth-state/middleware/sessionware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// HTTPConfig holds the options for the cookie-based session surface
type HTTPConfig interface {
	GetAccessCookieName() string
	GetRefreshCookieName() string
	GetAuthScheme() string
	GetTokenLookup() string
	GetSessionDuration() int
	GetExtendedSessionDuration() int
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
}

// RouteSession glues provider sessions to HTTP: password sign-in sets the
// session cookies, protected routes validate them, sign-out clears them.
type RouteSession struct {
	signer           SessionIssuer
	validator        TokenValidator
	profiles         ProfileAPI
	cfg              HTTPConfig
	cookieDuration   time.Duration
	extendedDuration time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error // TODO: make functions
	ErrorHandler     func(c router.Context, err error) error // TODO: make functions
}

// NewRouteSession builds the HTTP session glue. The validator checks access
// tokens on protected routes; the signer serves the login flow.
func NewRouteSession(signer SessionIssuer, validator TokenValidator, cfg HTTPConfig) (*RouteSession, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetSessionDuration() > 0 {
		cookieDuration = time.Duration(cfg.GetSessionDuration()) * time.Hour
	}

	extendedDuration := cookieDuration
	if cfg.GetExtendedSessionDuration() > 0 {
		extendedDuration = time.Duration(cfg.GetExtendedSessionDuration()) * time.Hour
	}

	a := &RouteSession{
		cfg:              cfg,
		signer:           signer,
		validator:        validator,
		Logger:           defaultLogger(),
		cookieDuration:   cookieDuration,
		extendedDuration: extendedDuration,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

// WithProfiles wires the profile row store so protected routes resolve the
// application role. Without it, role-gated routes reject everything.
func (a *RouteSession) WithProfiles(profiles ProfileAPI) *RouteSession {
	a.profiles = profiles
	return a
}

// WithLogger overrides the logger.
func (a *RouteSession) WithLogger(logger Logger) *RouteSession {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

func (a RouteSession) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

func (a RouteSession) GetExtendedCookieDuration() time.Duration {
	return a.extendedDuration
}

// ProtectedRoute validates the access token on every request and stores the
// claims plus the resolved profile in the router context.
func (a *RouteSession) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return sessionware.New(sessionware.Config{
		ErrorHandler:   errorHandler,
		TokenValidator: a.wrapValidator(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		AuthScheme:     a.cfg.GetAuthScheme(),
		RoleResolver:   a.roleResolver(),
	})
}

// AdminRoute is ProtectedRoute plus the admin role requirement.
func (a *RouteSession) AdminRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return sessionware.New(sessionware.Config{
		ErrorHandler:   errorHandler,
		TokenValidator: a.wrapValidator(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		AuthScheme:     a.cfg.GetAuthScheme(),
		RoleResolver:   a.roleResolver(),
		MinimumRole:    string(RoleAdmin),
	})
}

func (a *RouteSession) wrapValidator() sessionware.TokenValidator {
	return sessionware.TokenValidatorFunc(func(tokenString string) (sessionware.SessionClaims, error) {
		return a.validator.Validate(tokenString)
	})
}

// roleResolver maps validated claims to the application role via the
// profiles row store. The token's own role claim is provider-level
// ("authenticated") and never grants anything.
func (a *RouteSession) roleResolver() sessionware.RoleResolver {
	return func(ctx router.Context, claims sessionware.SessionClaims) (string, any, error) {
		if a.profiles == nil {
			return "", nil, nil
		}

		sc, ok := claims.(SessionClaims)
		if !ok {
			return "", nil, nil
		}

		userID, err := sc.UserUUID()
		if err != nil {
			return "", nil, errors.Wrap(err, errors.CategoryAuth, "token subject is not a user id").
				WithCode(errors.CodeUnauthorized)
		}

		profile, err := a.profiles.Get(ctx.Context(), userID)
		if err != nil {
			if IsProfileNotFound(err) {
				return "", nil, nil
			}
			return "", nil, err
		}

		return string(profile.Role), profile, nil
	}
}

// Login exchanges the payload credentials for a provider session and sets
// the session cookies.
func (a *RouteSession) Login(ctx router.Context, payload LoginPayload) error {
	sess, err := a.signer.SignInWithPassword(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error", "error", err)
		return err
	}

	duration := a.cookieDuration
	if payload.GetExtendedSession() {
		duration = a.extendedDuration
	}

	a.setSessionCookies(ctx, sess, duration)
	return nil
}

// Logout clears the session cookies. Provider-side invalidation is the
// store's job, not this layer's.
func (a *RouteSession) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetAccessCookieName())
	a.cookieDel(ctx, a.cfg.GetRefreshCookieName())
}

func (a *RouteSession) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteSession) GetRedirect(ctx router.Context, def ...string) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	r := ctx.Cookies(rejectedRoute)
	if r == "" {
		return def[0]
	}
	a.cookieDel(ctx, rejectedRoute)
	return r
}

func (a *RouteSession) GetRedirectOrDefault(ctx router.Context) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	refererHeader := string(ctx.Referer())

	r := ctx.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = a.cfg.GetRejectedRouteDefault()
	}
	a.cookieDel(ctx, rejectedRoute)
	return r
}

func (a *RouteSession) SetRedirect(ctx router.Context) {
	rejectedRoute := a.cfg.GetRejectedRouteKey()

	a.Logger.Info("Setting redirect cookie", "key", rejectedRoute, "path", ctx.OriginalURL())

	ctx.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteSession) setSessionCookies(c router.Context, sess *Session, duration time.Duration) {
	accessExpiry := sess.ExpiryTime()
	if accessExpiry.IsZero() {
		accessExpiry = time.Now().Add(duration)
	}

	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetAccessCookieName(),
		Value:    sess.AccessToken,
		Expires:  accessExpiry,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})

	if sess.RefreshToken != "" {
		c.Cookie(&router.Cookie{
			Name:     a.cfg.GetRefreshCookieName(),
			Value:    sess.RefreshToken,
			Expires:  time.Now().Add(duration),
			HTTPOnly: true,
			Secure:   true,
			SameSite: "Lax",
		})
	}
}

func (a *RouteSession) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteSession) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error, redirecting to login",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	a.SetRedirect(c)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect(RouteFor(ViewLogin), statusCode)
}

func (a *RouteSession) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.Status(richErr.Code).Render("errors/500", router.ViewContext{
			"error": richErr,
		})
	}
}
