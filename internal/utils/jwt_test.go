package utils

import (
	"testing"
	"time"

	"github.com/mijwel-dev/chatter-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-for-tests-0123456789abcdef"
	testRefreshSecret = "refresh-secret-for-tests-0123456789abcdef"
)

func newTestManager(accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return NewTokenManager(testAccessSecret, testRefreshSecret, accessExpiry, refreshExpiry)
}

func testSnapshot() domain.Snapshot {
	name := "Test User"
	username := "testuser"
	return domain.Snapshot{
		ID:       "user-1",
		Name:     &name,
		Email:    "test@example.com",
		Username: &username,
		Gender:   domain.GenderOther,
		Setup:    true,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager(15*time.Minute, 7*24*time.Hour)

	token, err := m.GenerateAccessToken(testSnapshot())
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.User.ID)
	assert.Equal(t, "test@example.com", claims.User.Email)
	assert.True(t, claims.User.Setup)
}

func TestAccessTokenExpired(t *testing.T) {
	m := newTestManager(-time.Minute, 7*24*time.Hour)

	token, err := m.GenerateAccessToken(testSnapshot())
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	m := newTestManager(15*time.Minute, 7*24*time.Hour)
	other := NewTokenManager("another-access-secret-0123456789abcdef", testRefreshSecret, 15*time.Minute, 7*24*time.Hour)

	token, err := other.GenerateAccessToken(testSnapshot())
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessTokenRejectsRefreshToken(t *testing.T) {
	// A refresh token must never pass access verification even if signed by
	// the same installation: the algorithms and secrets differ
	m := newTestManager(15*time.Minute, 7*24*time.Hour)

	refresh, err := m.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := newTestManager(15*time.Minute, 7*24*time.Hour)

	token, err := m.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	claims, err := m.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestRefreshTokenExpiredStillVerifies(t *testing.T) {
	// Expiry is a business decision of the refresh flow, not a verification
	// failure: the session entry of an expired token still has to be revoked
	m := newTestManager(15*time.Minute, -time.Hour)

	token, err := m.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	claims, err := m.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UID)
	assert.True(t, claims.ExpiresAt.Time.Before(time.Now()))
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	m := newTestManager(15*time.Minute, 7*24*time.Hour)

	access, err := m.GenerateAccessToken(testSnapshot())
	require.NoError(t, err)

	_, err = m.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokenMalformed(t *testing.T) {
	m := newTestManager(15*time.Minute, 7*24*time.Hour)

	_, err := m.VerifyRefreshToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
