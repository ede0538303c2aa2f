package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xela07ax/reservahub/internal/domain"
)

var testUser = &domain.User{
	ID:       "user-1",
	Email:    "student@campus.test",
	Role:     domain.RoleStudent,
	TenantID: "tenant-1",
}

func signedToken(t *testing.T, secret []byte, ttl time.Duration) string {
	t.Helper()
	token, err := SignToken(secret, NewClaims(testUser, ttl))
	require.NoError(t, err)
	return token
}

func TestVerifyToken(t *testing.T) {
	secret := []byte("shared-test-secret")
	v := NewValidator(secret)

	t.Run("round trip", func(t *testing.T) {
		claims, err := v.VerifyToken(signedToken(t, secret, time.Hour))
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.UserID)
		require.Equal(t, domain.RoleStudent, claims.Role)
		require.Equal(t, "tenant-1", claims.TenantID)
		require.Equal(t, "reservahub", claims.Issuer)
	})

	t.Run("strips bearer prefix", func(t *testing.T) {
		claims, err := v.VerifyToken("Bearer " + signedToken(t, secret, time.Hour))
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.UserID)
	})

	t.Run("wrong secret is invalid, not expired", func(t *testing.T) {
		_, err := v.VerifyToken(signedToken(t, []byte("another-secret"), time.Hour))
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired token is distinguishable", func(t *testing.T) {
		_, err := v.VerifyToken(signedToken(t, secret, -time.Minute))
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.VerifyToken("not.a.jwt")
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := v.VerifyToken("")
		require.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestRequireRole(t *testing.T) {
	claims := &domain.Claims{Role: domain.RoleStudent}

	require.NoError(t, RequireRole(claims, domain.RoleStudent))
	require.NoError(t, RequireRole(claims, domain.RoleProfessor, domain.RoleStudent))
	require.ErrorIs(t, RequireRole(claims, domain.RoleAdmin), ErrForbidden)
	require.ErrorIs(t, RequireRole(claims), ErrForbidden)
}
