package httpd

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTProviderResolve(t *testing.T) {
	provider := NewJWTProvider("test-secret")

	t.Run("resolves a valid teacher token", func(t *testing.T) {
		token := signToken(t, "test-secret", jwt.MapClaims{"sub": "t-1", "role": "teacher"})

		identity, err := provider.Resolve(token)
		require.NoError(t, err)
		require.Equal(t, "t-1", identity.SubjectID)
		require.Equal(t, RoleTeacher, identity.Role)
	})

	t.Run("resolves a valid admin token", func(t *testing.T) {
		token := signToken(t, "test-secret", jwt.MapClaims{"sub": "admin-1", "role": "admin"})

		identity, err := provider.Resolve(token)
		require.NoError(t, err)
		require.Equal(t, RoleAdmin, identity.Role)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		token := signToken(t, "wrong-secret", jwt.MapClaims{"sub": "t-1", "role": "teacher"})

		_, err := provider.Resolve(token)
		require.Error(t, err)
	})

	t.Run("rejects a token without a subject", func(t *testing.T) {
		token := signToken(t, "test-secret", jwt.MapClaims{"role": "teacher"})

		_, err := provider.Resolve(token)
		require.Error(t, err)
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		token := signToken(t, "test-secret", jwt.MapClaims{"sub": "t-1", "role": "superuser"})

		_, err := provider.Resolve(token)
		require.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := provider.Resolve("not-a-token")
		require.Error(t, err)
	})
}
