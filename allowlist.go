package access

import (
	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// AdminAllowlist is the bootstrap fallback for administrator resolution,
// used only while the profiles.is_admin migration has not run. Matching is a
// case-sensitive exact string comparison.
type AdminAllowlist struct {
	emails map[string]struct{}
}

// NewAdminAllowlist builds an allowlist from the given emails. Empty entries
// are dropped.
func NewAdminAllowlist(emails ...string) *AdminAllowlist {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		if email == "" {
			continue
		}
		set[email] = struct{}{}
	}
	return &AdminAllowlist{emails: set}
}

// Contains reports allowlist membership. A missing or empty email is never
// a member.
func (a *AdminAllowlist) Contains(email string) bool {
	if a == nil || email == "" {
		return false
	}
	_, ok := a.emails[email]
	return ok
}

// Size returns the number of configured emails.
func (a *AdminAllowlist) Size() int {
	if a == nil {
		return 0
	}
	return len(a.emails)
}

type allowlistEnv struct {
	Emails []string `env:"PANELPULSE_ADMIN_EMAILS" envSeparator:","`
}

// AllowlistFromEnv reads PANELPULSE_ADMIN_EMAILS (comma separated) so the
// bootstrap list is deploy-time configuration rather than compiled in.
func AllowlistFromEnv() (*AdminAllowlist, error) {
	cfg := allowlistEnv{}
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to parse admin allowlist from environment")
	}
	return NewAdminAllowlist(cfg.Emails...), nil
}
