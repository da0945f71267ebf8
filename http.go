package access

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteGuards adapts the guard variants to go-router middleware. Denied
// navigation guards redirect; the AdminOnly render gate responds with an
// empty not-found so the fragment's existence is not revealed.
type RouteGuards struct {
	session      *SessionStore
	resolver     *Resolver
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

// NewRouteGuards builds the middleware factory.
func NewRouteGuards(session *SessionStore, resolver *Resolver, cfg Config) *RouteGuards {
	rg := &RouteGuards{
		session:  session,
		resolver: resolver,
		cfg:      cfg,
		Logger:   defLogger{},
	}
	rg.ErrorHandler = rg.defaultErrHandler
	return rg
}

// RequireAuth protects a route for signed-in visitors.
func (rg *RouteGuards) RequireAuth() router.MiddlewareFunc {
	return rg.middleware(func() *Guard {
		return RequireAuth(rg.session, rg.cfg)
	})
}

// RequireAdmin protects a route for administrators.
func (rg *RouteGuards) RequireAdmin() router.MiddlewareFunc {
	return rg.middleware(func() *Guard {
		return RequireAdmin(rg.session, rg.resolver, rg.cfg)
	})
}

// RedirectIfAuthenticated keeps signed-in visitors away from login/register
// style pages.
func (rg *RouteGuards) RedirectIfAuthenticated() router.MiddlewareFunc {
	return rg.middleware(func() *Guard {
		return RedirectIfAuthenticated(rg.session, rg.cfg)
	})
}

// AdminOnly gates a fragment route without navigation.
func (rg *RouteGuards) AdminOnly() router.MiddlewareFunc {
	return rg.middleware(func() *Guard {
		return AdminOnly(rg.session, rg.resolver)
	})
}

func (rg *RouteGuards) middleware(build func() *Guard) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		guard := build()
		return func(c router.Context) error {
			decision := guard.Evaluate(c.Context())

			switch decision.State {
			case GuardAllowed:
				if profile := rg.resolver.CurrentProfile(c.Context()); profile != nil {
					c.SetContext(WithProfileContext(c.Context(), profile))
				}
				return next(c)
			case GuardLoading:
				// Only reachable while the store resolves at boot; fail
				// closed rather than flash protected content.
				return c.NoContent(fiber.StatusServiceUnavailable)
			default:
				return rg.deny(c, decision)
			}
		}
	}
}

func (rg *RouteGuards) deny(c router.Context, decision GuardDecision) error {
	if decision.RedirectTo == "" {
		return c.NoContent(fiber.StatusNotFound)
	}

	if decision.RememberLocation {
		rg.SetRedirect(c)
	}

	statusCode := fiber.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = fiber.StatusFound
	}
	return c.Redirect(decision.RedirectTo, statusCode)
}

// SetRedirect remembers the originally requested location in a short-lived
// cookie so the visitor returns there after signing in.
func (rg *RouteGuards) SetRedirect(c router.Context) {
	rejectedRoute := rg.cfg.GetRejectedRouteKey()

	rg.Logger.Info("Setting redirect cookie %s: %s", rejectedRoute, c.OriginalURL())

	c.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    c.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// GetRedirect pops the remembered location, falling back to def.
func (rg *RouteGuards) GetRedirect(c router.Context, def ...string) string {
	rejectedRoute := rg.cfg.GetRejectedRouteKey()
	r := c.Cookies(rejectedRoute)
	if r == "" {
		if len(def) > 0 {
			return def[0]
		}
		return rg.cfg.GetRejectedRouteDefault()
	}
	rg.cookieDel(c, rejectedRoute)
	return r
}

// GetRedirectOrDefault pops the remembered location, trying the referer
// header before the configured default.
func (rg *RouteGuards) GetRedirectOrDefault(c router.Context) string {
	rejectedRoute := rg.cfg.GetRejectedRouteKey()
	refererHeader := string(c.Referer())

	r := c.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = rg.cfg.GetRejectedRouteDefault()
	}
	rg.cookieDel(c, rejectedRoute)
	return r
}

func (rg *RouteGuards) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (rg *RouteGuards) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	rg.Logger.Info(
		"Guard middleware error handler %s category %s: %s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return c.Redirect(rg.cfg.GetLoginRoute(), fiber.StatusSeeOther)
	default:
		return c.JSON(richErr.Code, router.ViewContext{
			"error": richErr.Message,
		})
	}
}
