package access_test

import (
	"context"
	"testing"

	"github.com/panelpulse/go-access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := access.IdentityFromContext(ctx)
	assert.False(t, ok)

	identity := access.NewIdentity("usr-1", "ana@example.com", "Ana", "")
	ctx = access.WithIdentityContext(ctx, identity)

	got, ok := access.IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "usr-1", got.ID())
}

func TestProfileContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := access.ProfileFromContext(ctx)
	assert.False(t, ok)

	ctx = access.WithProfileContext(ctx, &access.Profile{Email: "ana@example.com"})

	profile, ok := access.ProfileFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", profile.Email)
}

func TestIsAdminFromContext(t *testing.T) {
	ctx := context.Background()
	assert.False(t, access.IsAdminFromContext(ctx))

	ctx = access.WithProfileContext(ctx, &access.Profile{Email: "ana@example.com"})
	assert.False(t, access.IsAdminFromContext(ctx))

	ctx = access.WithProfileContext(context.Background(), &access.Profile{IsAdmin: boolPtr(true)})
	assert.True(t, access.IsAdminFromContext(ctx))
}
