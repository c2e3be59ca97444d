package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	auth "github.com/zentro-eats/zentro-auth"
)

var testSigningKey = []byte("test-signing-key-0123456789abcdef")

func newTestTokenService(t *testing.T) auth.TokenService {
	t.Helper()
	return auth.NewTokenService(testSigningKey, 24, nil)
}

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	principal := auth.NewPrincipal("ana@example.com", auth.RoleCustomer)

	token, err := svc.Sign(principal, now)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token, now.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", claims.Email())
	assert.Equal(t, []auth.Role{auth.RoleCustomer}, claims.Roles())
	assert.True(t, claims.HasAuthority("ROLE_CUSTOMER"))
	assert.False(t, claims.HasAuthority("ROLE_ADMIN"))
	assert.Equal(t, now.Add(24*time.Hour).Unix(), claims.Expires().Unix())
	assert.Equal(t, now.Unix(), claims.IssuedAt().Unix())
}

func TestTokenServiceSignDeterministic(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	a, err := svc.Sign(auth.NewPrincipal("ops@example.com", auth.RoleAdmin, auth.RoleRestaurantOwner), now)
	require.NoError(t, err)

	b, err := svc.Sign(auth.NewPrincipal("ops@example.com", auth.RoleRestaurantOwner, auth.RoleAdmin), now)
	require.NoError(t, err)

	c, err := svc.Sign(auth.NewPrincipal("ops@example.com", auth.RoleAdmin, auth.RoleAdmin, auth.RoleRestaurantOwner), now)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestTokenServiceSignRequiresPrincipal(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Now()

	_, err := svc.Sign(nil, now)
	assert.Error(t, err)

	_, err = svc.Sign(&auth.Principal{}, now)
	assert.Error(t, err)
}

func TestTokenServiceExpiry(t *testing.T) {
	svc := newTestTokenService(t)
	issued := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	token, err := svc.Sign(auth.NewPrincipal("ana@example.com", auth.RoleCustomer), issued)
	require.NoError(t, err)

	t.Run("valid just before expiry", func(t *testing.T) {
		_, err := svc.Validate(token, issued.Add(24*time.Hour-time.Minute))
		assert.NoError(t, err)
	})

	t.Run("expired past the window", func(t *testing.T) {
		_, err := svc.Validate(token, issued.Add(24*time.Hour+time.Minute))
		require.Error(t, err)
		assert.True(t, auth.IsTokenExpiredError(err))
	})
}

func TestTokenServiceSignatureIntegrity(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	token, err := svc.Sign(auth.NewPrincipal("ana@example.com", auth.RoleCustomer), now)
	require.NoError(t, err)

	t.Run("tampered signature", func(t *testing.T) {
		tampered := tamperSignature(t, token)
		_, err := svc.Validate(tampered, now)
		require.Error(t, err)
		assert.True(t, auth.IsInvalidSignatureError(err))
	})

	t.Run("wrong key", func(t *testing.T) {
		other := auth.NewTokenService([]byte("another-signing-key-fedcba98765432"), 24, nil)
		_, err := other.Validate(token, now)
		require.Error(t, err)
		assert.True(t, auth.IsInvalidSignatureError(err))
	})

	t.Run("signature checked before expiry", func(t *testing.T) {
		tampered := tamperSignature(t, token)
		_, err := svc.Validate(tampered, now.Add(48*time.Hour))
		require.Error(t, err)
		assert.True(t, auth.IsInvalidSignatureError(err))
	})
}

func TestTokenServiceMalformedInput(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Now()

	for _, candidate := range []string{
		"not-a-token",
		"a.b",
		"....",
	} {
		_, err := svc.Validate(candidate, now)
		require.Error(t, err, candidate)
		assert.True(t, auth.IsMalformedError(err), candidate)
	}

	_, err := svc.Validate("", now)
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))
}

func TestTokenServiceLegacyEncodings(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	token, err := svc.Sign(auth.NewPrincipal("ana@example.com", auth.RoleCustomer), now)
	require.NoError(t, err)

	cases := map[string]string{
		"canonical":              token,
		"bearer prefixed":        "Bearer " + token,
		"percent encoded bearer": "Bearer%20" + token,
		"surrounding whitespace": "  " + token + "  ",
	}

	for name, candidate := range cases {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.Validate(candidate, now)
			require.NoError(t, err)
			assert.Equal(t, "ana@example.com", claims.Email())
		})
	}

	t.Run("double encoding decodes only one layer", func(t *testing.T) {
		_, err := svc.Validate("Bearer%2520"+token, now)
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})
}

// tamperSignature flips the first character of the signature segment.
func tamperSignature(t *testing.T, token string) string {
	t.Helper()

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	sig := parts[2]
	replacement := byte('A')
	if sig[0] == replacement {
		replacement = 'B'
	}
	parts[2] = string(replacement) + sig[1:]

	return strings.Join(parts, ".")
}
