package access

import (
	"context"
)

var identityCtxKey = &contextKey{"identity"}
var profileCtxKey = &contextKey{"profile"}

type contextKey struct {
	name string
}

// WithIdentityContext sets the Identity in the given context
func WithIdentityContext(r context.Context, identity Identity) context.Context {
	return context.WithValue(r, identityCtxKey, identity)
}

// IdentityFromContext finds the identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(Identity)
	return raw, ok
}

// WithProfileContext sets the resolved Profile in the given context
func WithProfileContext(r context.Context, profile *Profile) context.Context {
	return context.WithValue(r, profileCtxKey, profile)
}

// ProfileFromContext finds the resolved profile from the context.
func ProfileFromContext(ctx context.Context) (*Profile, bool) {
	raw, ok := ctx.Value(profileCtxKey).(*Profile)
	return raw, ok
}

// IsAdminFromContext reads the admin flag off the resolved profile in the
// context. Absence resolves to false.
func IsAdminFromContext(ctx context.Context) bool {
	profile, ok := ProfileFromContext(ctx)
	return ok && profile.AdminFlag()
}
