package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)

	tokenString, err := m.GenerateToken(7, "alice", "USER")
	require.NoError(t, err)

	claims, err := m.VerifyToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "USER", claims.Role)
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)

	access, err := m.GenerateToken(7, "alice", "USER")
	require.NoError(t, err)
	refresh, err := m.GenerateRefreshToken(7, "alice", "USER")
	require.NoError(t, err)

	accessClaims, err := m.VerifyToken(access)
	require.NoError(t, err)
	refreshClaims, err := m.VerifyToken(refresh)
	require.NoError(t, err)
	assert.True(t, refreshClaims.ExpiresAt.After(accessClaims.ExpiresAt.Time))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-a", 1, 7)
	verifier := NewJWTManager("secret-b", 1, 7)

	tokenString, err := issuer.GenerateToken(7, "alice", "USER")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(tokenString)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", -1, 7)

	tokenString, err := m.GenerateToken(7, "alice", "USER")
	require.NoError(t, err)

	_, err = m.VerifyToken(tokenString)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)

	_, err := m.VerifyToken("not.a.jwt")
	assert.Error(t, err)
}
