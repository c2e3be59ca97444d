package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	auth "github.com/zentro-eats/zentro-auth"
)

func TestNewEnvConfig(t *testing.T) {
	t.Run("falls back to the development key", func(t *testing.T) {
		t.Setenv(auth.SigningKeyEnvVar, "")

		cfg, err := auth.NewEnvConfig()
		require.NoError(t, err)
		assert.Equal(t, auth.DevSigningKey, cfg.GetSigningKey())
		assert.Equal(t, auth.DefaultTokenExpiration, cfg.GetTokenExpiration())
		assert.Equal(t, auth.DefaultCookieName, cfg.GetCookieName())
		assert.Equal(t, []string{"/auth/"}, cfg.GetPublicRoutePrefixes())
	})

	t.Run("environment key wins", func(t *testing.T) {
		t.Setenv(auth.SigningKeyEnvVar, "environment-provided-key-0123456789abcdef")

		cfg, err := auth.NewEnvConfig()
		require.NoError(t, err)
		assert.Equal(t, "environment-provided-key-0123456789abcdef", cfg.GetSigningKey())
	})

	t.Run("weak key is rejected", func(t *testing.T) {
		t.Setenv(auth.SigningKeyEnvVar, "")

		_, err := auth.NewEnvConfig(auth.WithSigningKey("too-short"))
		assert.ErrorIs(t, err, auth.ErrSigningKeyTooWeak)
	})

	t.Run("option overrides", func(t *testing.T) {
		t.Setenv(auth.SigningKeyEnvVar, "")

		cfg, err := auth.NewEnvConfig(
			auth.WithSigningKey(string(testSigningKey)),
			auth.WithTokenExpiration(48),
			auth.WithPublicRoutePrefixes("/public/", "/health"),
			auth.WithCrossOriginCookies(),
		)
		require.NoError(t, err)

		assert.Equal(t, 48, cfg.GetTokenExpiration())
		assert.Equal(t, []string{"/public/", "/health"}, cfg.GetPublicRoutePrefixes())
		assert.Equal(t, auth.CrossOriginCookiePolicy(), cfg.GetCookiePolicy())
	})

	t.Run("non positive expiration keeps the default", func(t *testing.T) {
		t.Setenv(auth.SigningKeyEnvVar, "")

		cfg, err := auth.NewEnvConfig(auth.WithTokenExpiration(0))
		require.NoError(t, err)
		assert.Equal(t, auth.DefaultTokenExpiration, cfg.GetTokenExpiration())
	})

	t.Run("token lookup tracks the cookie name", func(t *testing.T) {
		t.Setenv(auth.SigningKeyEnvVar, "")

		cfg, err := auth.NewEnvConfig()
		require.NoError(t, err)
		assert.Equal(t, "header:Authorization,cookie:zentro_jwt", cfg.GetTokenLookup())
	})
}
