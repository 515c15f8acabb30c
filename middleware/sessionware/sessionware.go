// Package sessionware gates routes on the resolved client session. Unlike
// token middleware, it never inspects the request: the session store already
// knows who the user is, the middleware only decides between loading view,
// redirect, and pass-through.
package sessionware

import (
	"errors"
	"net/http"

	"github.com/goliatone/go-router"
)

var (
	ErrNotAuthenticated = errors.New("authentication required")
	ErrInsufficientRole = errors.New("insufficient role")
)

// Session mirrors the session store API the guard needs, without an import
// cycle back into the root package.
type Session interface {
	Resolved() bool
	IsAuthenticated() bool
	HasRole(role string) bool
}

type Config struct {
	// Session is required.
	Session Session

	// Filter skips the guard for matching requests.
	Filter func(router.Context) bool

	// RequiredRole, when set, also rejects authenticated users lacking
	// the role. An empty value gates on authentication only.
	RequiredRole string

	// RedirectTo receives rejected users. Defaults to /login.
	RedirectTo string

	// LoadingView renders while the session is still unresolved, so a
	// page refresh never flashes a redirect at a user who is actually
	// signed in. Defaults to the "loading" template.
	LoadingView string

	// LoadingViewData is merged into the loading render.
	LoadingViewData router.ViewContext

	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
}

// New creates the guard middleware.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			if !cfg.Session.Resolved() {
				return ctx.Render(cfg.LoadingView, cfg.LoadingViewData)
			}

			if !cfg.Session.IsAuthenticated() {
				return cfg.ErrorHandler(ctx, ErrNotAuthenticated)
			}

			if cfg.RequiredRole != "" && !cfg.Session.HasRole(cfg.RequiredRole) {
				return cfg.ErrorHandler(ctx, ErrInsufficientRole)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Session == nil {
		panic("AUTH: session middleware configuration: Session is required.")
	}

	if cfg.RedirectTo == "" {
		cfg.RedirectTo = "/login"
	}

	if cfg.LoadingView == "" {
		cfg.LoadingView = "loading"
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		redirectTo := cfg.RedirectTo
		cfg.ErrorHandler = func(c router.Context, err error) error {
			statusCode := http.StatusSeeOther
			if c.Method() == string(router.GET) {
				statusCode = http.StatusFound
			}
			return c.Redirect(redirectTo, statusCode)
		}
	}

	return cfg
}
