package auth_test

import (
	"testing"
	"time"

	"github.com/flexpro/backend/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_NewPair(t *testing.T) {
	ts := auth.NewTokenService("test-secret", time.Hour, 24*time.Hour)

	pair, err := ts.NewPair(42)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := ts.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, auth.TokenTypeAccess, claims.Type)

	refreshClaims, err := ts.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 42, refreshClaims.UserID)
	assert.Equal(t, auth.TokenTypeRefresh, refreshClaims.Type)
}

func TestTokenService_WrongTokenType(t *testing.T) {
	ts := auth.NewTokenService("test-secret", time.Hour, 24*time.Hour)

	pair, err := ts.NewPair(7)
	require.NoError(t, err)

	// a refresh token must not pass as an access token, and vice versa
	_, err = ts.VerifyAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrWrongTokenType)
	_, err = ts.VerifyRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrWrongTokenType)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	ts := auth.NewTokenService("test-secret", -time.Minute, -time.Minute)

	pair, err := ts.NewPair(7)
	require.NoError(t, err)

	_, err = ts.VerifyAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	ts := auth.NewTokenService("test-secret", time.Hour, 24*time.Hour)
	otherTs := auth.NewTokenService("other-secret", time.Hour, 24*time.Hour)

	pair, err := ts.NewPair(7)
	require.NoError(t, err)

	_, err = otherTs.VerifyAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_Garbage(t *testing.T) {
	ts := auth.NewTokenService("test-secret", time.Hour, 24*time.Hour)

	_, err := ts.VerifyAccessToken("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	_, err = ts.VerifyAccessToken("")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
