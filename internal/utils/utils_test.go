package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("secret", "3f9c1f2e-user", "ORGANIZER", 15)
	require.NoError(t, err)

	tok, err := jwt.Parse(at.Token, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "3f9c1f2e-user", claims["sub"])
	assert.Equal(t, "ORGANIZER", claims["role"])
	assert.Equal(t, float64(at.Exp.Unix()), claims["exp"])
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	h := HashRefreshRaw(rt.Raw)
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashRefreshRaw(rt.Raw))
	assert.NotEqual(t, h, rt.Raw)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("karibu-nairobi", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "karibu-nairobi"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
