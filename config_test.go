package access_test

import (
	"testing"
	"time"

	"github.com/panelpulse/go-access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := access.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.GetResolveTimeout())
	assert.Equal(t, "/login", cfg.GetLoginRoute())
	assert.Equal(t, "/dashboard", cfg.GetMemberHomeRoute())
	assert.Equal(t, "rejected_route", cfg.GetRejectedRouteKey())
	assert.Equal(t, access.DefaultDeleteConfirmationPhrase, cfg.GetDeleteConfirmationPhrase())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PANELPULSE_RESOLVE_TIMEOUT", "2s")
	t.Setenv("PANELPULSE_LOGIN_ROUTE", "/signin")
	t.Setenv("PANELPULSE_ADMIN_EMAILS", "root@example.com")
	t.Setenv("PANELPULSE_DELETE_PHRASE", "borrar mi cuenta")

	cfg, err := access.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.GetResolveTimeout())
	assert.Equal(t, "/signin", cfg.GetLoginRoute())
	assert.Equal(t, []string{"root@example.com"}, cfg.GetAdminAllowlist())
	assert.Equal(t, "borrar mi cuenta", cfg.GetDeleteConfirmationPhrase())
}

func TestDefaultConfigNeedsNoEnvironment(t *testing.T) {
	cfg := access.DefaultConfig()
	assert.Equal(t, 5*time.Second, cfg.GetResolveTimeout())
	assert.Equal(t, "/", cfg.GetRejectedRouteDefault())
}

func TestZeroValueConfigFallsBack(t *testing.T) {
	cfg := &access.EnvConfig{}
	assert.Equal(t, 5*time.Second, cfg.GetResolveTimeout())
	assert.Equal(t, "/login", cfg.GetLoginRoute())
	assert.Equal(t, access.DefaultDeleteConfirmationPhrase, cfg.GetDeleteConfirmationPhrase())
}
