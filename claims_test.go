package auth_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	auth "github.com/zentro-eats/zentro-auth"
)

// The payload field names are the wire contract with already issued tokens
// and the frontend; they must not drift.
func TestSessionClaimsWireFormat(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	token, err := svc.Sign(auth.NewPrincipal("ana@example.com", auth.RoleAdmin, auth.RoleCustomer), now)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var claims map[string]any
	require.NoError(t, json.Unmarshal(payload, &claims))

	assert.Equal(t, "ana@example.com", claims["email"])
	assert.Equal(t, "ROLE_ADMIN,ROLE_CUSTOMER", claims["authorities"])
	assert.Equal(t, float64(now.Unix()), claims["iat"])
	assert.Equal(t, float64(now.Add(24*time.Hour).Unix()), claims["exp"])
}

func TestSessionClaimsAccessors(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	token, err := svc.Sign(auth.NewPrincipal("ops@example.com", auth.RoleRestaurantOwner), now)
	require.NoError(t, err)

	claims, err := svc.Validate(token, now)
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", claims.Email())
	assert.Equal(t, []auth.Role{auth.RoleRestaurantOwner}, claims.Roles())
	assert.True(t, claims.HasAuthority(string(auth.RoleRestaurantOwner)))
	assert.False(t, claims.HasAuthority("not-a-role"))
}
