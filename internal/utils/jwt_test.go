package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	at, err := NewAccessToken(testSecret, 42, "nurse01", "staff", 15)
	require.NoError(t, err)
	assert.NotEmpty(t, at.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 5*time.Second)

	c, err := ParseAccessToken(testSecret, at.Token)
	require.NoError(t, err)
	assert.Equal(t, Claims{UserID: 42, Username: "nurse01", Role: "staff"}, c)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	at, err := NewAccessToken(testSecret, 1, "a", "admin", 15)
	require.NoError(t, err)

	_, err = ParseAccessToken("other-secret", at.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAccessToken(testSecret, 1, "a", "admin", -5)
	require.NoError(t, err)
	_, err = ParseAccessToken(testSecret, expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken(testSecret, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	raw, err := noSub.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseAccessToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(time.Hour).Unix()})
	raw, err = hs512.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseAccessToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), a.Exp, 5*time.Second)

	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
	assert.NotEqual(t, a.Raw, HashRefreshRaw(a.Raw))
}

func TestNewQRCodeID(t *testing.T) {
	id, err := NewQRCodeID()
	require.NoError(t, err)
	assert.Len(t, id, 32)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "secret1"))
	assert.False(t, VerifyPassword(hash, "secret2"))
	assert.False(t, VerifyPassword("not-a-hash", "secret1"))

	_, err = HashPassword("12345", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordLength)
	_, err = HashPassword(strings.Repeat("長", 25), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordLength)
}
