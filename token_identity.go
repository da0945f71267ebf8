package access

import (
	stderrors "errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// IdentityVerifier turns a hosted-backend access token into an Identity.
type IdentityVerifier interface {
	Verify(tokenString string) (Identity, error)
}

// IdentityVerifierFunc adapts a function into an IdentityVerifier.
type IdentityVerifierFunc func(tokenString string) (Identity, error)

// Verify satisfies the IdentityVerifier interface.
func (f IdentityVerifierFunc) Verify(tokenString string) (Identity, error) {
	if f == nil {
		return nil, ErrTokenMalformed
	}
	return f(tokenString)
}

type identityClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// RemoteIdentityVerifier validates hosted-backend JWTs against the service's
// JWK set and maps their claims onto an Identity.
type RemoteIdentityVerifier struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience string
}

// RemoteVerifierOption customizes verifier construction.
type RemoteVerifierOption func(*RemoteIdentityVerifier)

// WithExpectedIssuer requires the iss claim to match.
func WithExpectedIssuer(issuer string) RemoteVerifierOption {
	return func(v *RemoteIdentityVerifier) {
		v.issuer = issuer
	}
}

// WithExpectedAudience requires the aud claim to contain the value.
func WithExpectedAudience(audience string) RemoteVerifierOption {
	return func(v *RemoteIdentityVerifier) {
		v.audience = audience
	}
}

// NewRemoteIdentityVerifier fetches the JWK set from jwksURL and keeps it
// refreshed in the background until Close is called.
func NewRemoteIdentityVerifier(jwksURL string, opts ...RemoteVerifierOption) (*RemoteIdentityVerifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWK set from %s: %w", jwksURL, err)
	}

	v := &RemoteIdentityVerifier{jwks: jwks}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}

	return v, nil
}

// Verify parses and validates the token, returning the identity carried in
// its claims.
func (v *RemoteIdentityVerifier) Verify(tokenString string) (Identity, error) {
	parserOpts := []jwt.ParserOption{}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}

	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.jwks.Keyfunc, parserOpts...)
	if err != nil {
		return nil, normalizeTokenError(err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	return claims.identity(), nil
}

// Close stops the background JWK set refresh.
func (v *RemoteIdentityVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

func (c *identityClaims) identity() Identity {
	displayName, _ := c.UserMetadata["display_name"].(string)
	avatarURL, _ := c.UserMetadata["avatar_url"].(string)
	return NewIdentity(c.Subject, c.Email, displayName, avatarURL)
}

func normalizeTokenError(err error) error {
	if err == nil {
		return nil
	}

	clone := ErrTokenMalformed.Clone()
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		clone = ErrTokenExpired.Clone()
	}

	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"cause": err.Error(),
	})
}
