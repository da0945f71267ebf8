package access_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/panelpulse/go-access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyID = "test-key"

func newJWKSServer(t *testing.T) (*httptest.Server, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	n := base64.RawURLEncoding.EncodeToString(key.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes())
	body := fmt.Sprintf(`{"keys":[{"kty":"RSA","use":"sig","alg":"RS256","kid":%q,"n":%q,"e":%q}]}`,
		testKeyID, n, e)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv, key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID

	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func textCode(t *testing.T, err error) string {
	t.Helper()

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	return richErr.TextCode
}

func TestRemoteVerifierMapsClaims(t *testing.T) {
	srv, key := newJWKSServer(t)

	verifier, err := access.NewRemoteIdentityVerifier(srv.URL)
	require.NoError(t, err)
	defer verifier.Close()

	tokenString := signToken(t, key, jwt.MapClaims{
		"sub":   "usr-1",
		"email": "ana@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]any{
			"display_name": "Ana",
			"avatar_url":   "https://cdn.example.com/ana.png",
		},
	})

	identity, err := verifier.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", identity.ID())
	assert.Equal(t, "ana@example.com", identity.Email())
	assert.Equal(t, "Ana", identity.DisplayName())
	assert.Equal(t, "https://cdn.example.com/ana.png", identity.AvatarURL())
}

func TestRemoteVerifierRejectsExpiredToken(t *testing.T) {
	srv, key := newJWKSServer(t)

	verifier, err := access.NewRemoteIdentityVerifier(srv.URL)
	require.NoError(t, err)
	defer verifier.Close()

	tokenString := signToken(t, key, jwt.MapClaims{
		"sub":   "usr-1",
		"email": "ana@example.com",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})

	_, err = verifier.Verify(tokenString)
	require.Error(t, err)
	assert.Equal(t, access.TextCodeTokenExpired, textCode(t, err))
}

func TestRemoteVerifierEnforcesIssuerAndAudience(t *testing.T) {
	srv, key := newJWKSServer(t)

	verifier, err := access.NewRemoteIdentityVerifier(srv.URL,
		access.WithExpectedIssuer("https://auth.panelpulse.test"),
		access.WithExpectedAudience("panelpulse"))
	require.NoError(t, err)
	defer verifier.Close()

	good := signToken(t, key, jwt.MapClaims{
		"sub": "usr-1",
		"iss": "https://auth.panelpulse.test",
		"aud": "panelpulse",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err = verifier.Verify(good)
	require.NoError(t, err)

	wrongIssuer := signToken(t, key, jwt.MapClaims{
		"sub": "usr-1",
		"iss": "https://evil.example.com",
		"aud": "panelpulse",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err = verifier.Verify(wrongIssuer)
	require.Error(t, err)
	assert.Equal(t, access.TextCodeTokenMalformed, textCode(t, err))
}

func TestRemoteVerifierRejectsMissingSubject(t *testing.T) {
	srv, key := newJWKSServer(t)

	verifier, err := access.NewRemoteIdentityVerifier(srv.URL)
	require.NoError(t, err)
	defer verifier.Close()

	tokenString := signToken(t, key, jwt.MapClaims{
		"email": "ana@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	_, err = verifier.Verify(tokenString)
	require.Error(t, err)
	assert.Equal(t, access.TextCodeTokenMalformed, textCode(t, err))
}

func TestRemoteVerifierRejectsGarbage(t *testing.T) {
	srv, _ := newJWKSServer(t)

	verifier, err := access.NewRemoteIdentityVerifier(srv.URL)
	require.NoError(t, err)
	defer verifier.Close()

	_, err = verifier.Verify("not-a-token")
	require.Error(t, err)
	assert.Equal(t, access.TextCodeTokenMalformed, textCode(t, err))
}

func TestIdentityVerifierFuncNilFailsClosed(t *testing.T) {
	var fn access.IdentityVerifierFunc
	_, err := fn.Verify("anything")
	require.Error(t, err)
}
