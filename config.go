package access

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// DefaultDeleteConfirmationPhrase must be typed verbatim before an account
// deletion is attempted.
const DefaultDeleteConfirmationPhrase = "delete my account"

// EnvConfig is the environment backed Config implementation.
type EnvConfig struct {
	AdminAllowlist           []string      `env:"PANELPULSE_ADMIN_EMAILS" envSeparator:","`
	ResolveTimeout           time.Duration `env:"PANELPULSE_RESOLVE_TIMEOUT" envDefault:"5s"`
	LoginRoute               string        `env:"PANELPULSE_LOGIN_ROUTE" envDefault:"/login"`
	MemberHomeRoute          string        `env:"PANELPULSE_MEMBER_HOME" envDefault:"/dashboard"`
	AppHomeRoute             string        `env:"PANELPULSE_APP_HOME" envDefault:"/dashboard"`
	RejectedRouteKey         string        `env:"PANELPULSE_REJECTED_ROUTE_KEY" envDefault:"rejected_route"`
	RejectedRouteDefault     string        `env:"PANELPULSE_REJECTED_ROUTE_DEFAULT" envDefault:"/"`
	DeleteConfirmationPhrase string        `env:"PANELPULSE_DELETE_PHRASE" envDefault:"delete my account"`
}

// LoadConfig parses the configuration from the environment.
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to parse access configuration")
	}
	return cfg, nil
}

// DefaultConfig returns the built-in defaults without touching the
// environment, mostly for tests and examples.
func DefaultConfig() *EnvConfig {
	return &EnvConfig{
		ResolveTimeout:           5 * time.Second,
		LoginRoute:               "/login",
		MemberHomeRoute:          "/dashboard",
		AppHomeRoute:             "/dashboard",
		RejectedRouteKey:         "rejected_route",
		RejectedRouteDefault:     "/",
		DeleteConfirmationPhrase: DefaultDeleteConfirmationPhrase,
	}
}

func (c *EnvConfig) GetAdminAllowlist() []string { return c.AdminAllowlist }

func (c *EnvConfig) GetResolveTimeout() time.Duration {
	if c.ResolveTimeout <= 0 {
		return 5 * time.Second
	}
	return c.ResolveTimeout
}

func (c *EnvConfig) GetLoginRoute() string {
	if c.LoginRoute == "" {
		return "/login"
	}
	return c.LoginRoute
}

func (c *EnvConfig) GetMemberHomeRoute() string {
	if c.MemberHomeRoute == "" {
		return "/dashboard"
	}
	return c.MemberHomeRoute
}

func (c *EnvConfig) GetAppHomeRoute() string {
	if c.AppHomeRoute == "" {
		return "/dashboard"
	}
	return c.AppHomeRoute
}

func (c *EnvConfig) GetRejectedRouteKey() string {
	if c.RejectedRouteKey == "" {
		return "rejected_route"
	}
	return c.RejectedRouteKey
}

func (c *EnvConfig) GetRejectedRouteDefault() string {
	if c.RejectedRouteDefault == "" {
		return "/"
	}
	return c.RejectedRouteDefault
}

func (c *EnvConfig) GetDeleteConfirmationPhrase() string {
	if c.DeleteConfirmationPhrase == "" {
		return DefaultDeleteConfirmationPhrase
	}
	return c.DeleteConfirmationPhrase
}

var _ Config = (*EnvConfig)(nil)
