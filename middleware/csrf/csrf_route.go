package csrf

import (
	"time"

	"github.com/goliatone/go-router"
)

// RouteConfig controls the token bootstrap endpoint that browser clients
// call before submitting protected forms or AJAX requests.
type RouteConfig struct {
	// Path is the route registered for retrieving the CSRF token.
	Path string
	// ContextKey is the context key where the middleware stored the token.
	// Must match the middleware Config when that was customized.
	ContextKey string
	// RouteName is the name assigned to the registered route.
	RouteName string
	// Expiration is reported to clients as expires_in so they know when to
	// request a fresh token. Keep it in sync with the middleware Config.
	Expiration time.Duration
}

const (
	defaultRoutePath = "/csrf"
	defaultRouteName = "csrf.get"
)

// RegisterRoutes registers a GET endpoint that hands out the current CSRF
// token along with the form field name, header name, and token lifetime.
// The CSRF middleware must run before it so a token exists in the request
// context.
func RegisterRoutes[T any](app router.Router[T], cfg ...RouteConfig) {
	conf := routeConfigDefault(cfg...)
	app.Get(conf.Path, tokenHandler(conf)).SetName(conf.RouteName)
}

func routeConfigDefault(cfg ...RouteConfig) RouteConfig {
	var conf RouteConfig
	if len(cfg) > 0 {
		conf = cfg[0]
	}

	if conf.Path == "" {
		conf.Path = defaultRoutePath
	}

	if conf.ContextKey == "" {
		conf.ContextKey = DefaultContextKey
	}

	if conf.RouteName == "" {
		conf.RouteName = defaultRouteName
	}

	if conf.Expiration == 0 {
		conf.Expiration = DefaultExpiration
	}

	return conf
}

func tokenHandler(cfg RouteConfig) router.HandlerFunc {
	return func(ctx router.Context) error {
		token, _ := ctx.Locals(cfg.ContextKey).(string)
		if token == "" {
			return ctx.JSON(router.StatusUnauthorized, map[string]any{
				"error": ErrTokenMissing.Error(),
			})
		}

		// each response carries a fresh signed token, caching one would
		// serve clients a stale timestamp
		ctx.SetHeader("Cache-Control", "no-store, max-age=0")
		ctx.SetHeader("Pragma", "no-cache")
		ctx.SetHeader("Expires", "0")

		return ctx.JSON(router.StatusOK, map[string]any{
			"token":       token,
			"field_name":  stringLocal(ctx, cfg.ContextKey+"_field", DefaultFormFieldName),
			"header_name": stringLocal(ctx, cfg.ContextKey+"_header", DefaultHeaderName),
			"expires_in":  int64(cfg.Expiration / time.Second),
		})
	}
}

func stringLocal(ctx router.Context, key, fallback string) string {
	if v, ok := ctx.Locals(key).(string); ok && v != "" {
		return v
	}
	return fallback
}
