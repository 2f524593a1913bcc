package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClaims(iss string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": int64(42),
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
		"nbf": time.Now().Unix(),
		"iss": iss,
		"aud": iss,
	}
}

func TestJWTAuthenticatorRoundTrip(t *testing.T) {
	a := NewJWTAuth("secret", "its", "its")

	token, err := a.GenerateToken(testClaims("its"))
	require.NoError(t, err)

	parsed, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.EqualValues(t, 42, claims["sub"])
}

func TestJWTAuthenticatorRejectsWrongIssuer(t *testing.T) {
	a := NewJWTAuth("secret", "its", "its")

	token, err := a.GenerateToken(testClaims("someone-else"))
	require.NoError(t, err)

	_, err = a.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTAuthenticatorRejectsWrongSecret(t *testing.T) {
	a := NewJWTAuth("secret", "its", "its")
	b := NewJWTAuth("other-secret", "its", "its")

	token, err := a.GenerateToken(testClaims("its"))
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.Error(t, err)
}
