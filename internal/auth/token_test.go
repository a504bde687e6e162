package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"go-doc-lifecycle/internal/model"
)

func TestTokenValidatorRoundTrip(t *testing.T) {
	t.Parallel()

	validator, err := NewTokenValidator("test-secret")
	require.NoError(t, err)

	token, err := validator.IssueToken(model.AuthClaims{
		UserID:         "u1",
		Username:       "alice",
		Role:           "admin",
		OrganizationID: "org-1",
	}, time.Hour)
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token, TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "org-1", claims.OrganizationID)
	require.NotEmpty(t, claims.TokenID)
}

func TestTokenValidatorRejects(t *testing.T) {
	t.Parallel()

	validator, err := NewTokenValidator("test-secret")
	require.NoError(t, err)
	other, err := NewTokenValidator("other-secret")
	require.NoError(t, err)

	expired, err := validator.IssueToken(model.AuthClaims{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)
	foreign, err := other.IssueToken(model.AuthClaims{UserID: "u1"}, time.Hour)
	require.NoError(t, err)
	refresh, err := validator.IssueToken(model.AuthClaims{UserID: "u1", Type: "refresh"}, time.Hour)
	require.NoError(t, err)
	noSubject, err := validator.IssueToken(model.AuthClaims{}, time.Hour)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "typ": "access"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":     expired,
		"foreign key": foreign,
		"wrong type":  refresh,
		"no subject":  noSubject,
		"no expiry":   noExpiry,
		"garbage":     "not.a.token",
	}

	for name, token := range tests {
		_, err := validator.ValidateToken(token, TokenTypeAccess)
		require.ErrorIs(t, err, model.ErrUnauthorized, name)
	}
}

func TestNewTokenValidatorRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenValidator("  ")
	require.Error(t, err)
}
