package auth_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	auth "github.com/zentro-eats/zentro-auth"
)

func newTestCarrier(t *testing.T, opts ...auth.EnvConfigOption) *auth.TokenCarrier {
	t.Helper()

	cfg, err := auth.NewEnvConfig(append([]auth.EnvConfigOption{
		auth.WithSigningKey(string(testSigningKey)),
	}, opts...)...)
	require.NoError(t, err)

	carrier, err := auth.NewTokenCarrier(cfg, nil)
	require.NoError(t, err)
	return carrier
}

func TestTokenCarrierExtractToken(t *testing.T) {
	carrier := newTestCarrier(t)

	t.Run("authorization header", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer aaa.bbb.ccc")

		token, ok := carrier.ExtractToken(ctx)
		require.True(t, ok)
		assert.Equal(t, "aaa.bbb.ccc", token)
	})

	t.Run("legacy percent encoded cookie", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")
		ctx.CookiesM[auth.DefaultCookieName] = "Bearer%20aaa.bbb.ccc"

		token, ok := carrier.ExtractToken(ctx)
		require.True(t, ok)
		assert.Equal(t, "aaa.bbb.ccc", token)
	})

	t.Run("canonical cookie", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")
		ctx.CookiesM[auth.DefaultCookieName] = "aaa.bbb.ccc"

		token, ok := carrier.ExtractToken(ctx)
		require.True(t, ok)
		assert.Equal(t, "aaa.bbb.ccc", token)
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer from.header.token")
		ctx.CookiesM[auth.DefaultCookieName] = "from.cookie.token"

		token, ok := carrier.ExtractToken(ctx)
		require.True(t, ok)
		assert.Equal(t, "from.header.token", token)
	})

	t.Run("no carrier", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")

		_, ok := carrier.ExtractToken(ctx)
		assert.False(t, ok)
	})

	t.Run("header without bearer scheme is ignored", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Basic dXNlcjpwYXNz")

		_, ok := carrier.ExtractToken(ctx)
		assert.False(t, ok)
	})
}

func TestTokenCarrierWriteAndClear(t *testing.T) {
	carrier := newTestCarrier(t)

	var written []*router.Cookie
	ctx := router.NewMockContext()
	ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
		written = append(written, args.Get(0).(*router.Cookie))
	}).Return()

	carrier.WriteToken(ctx, "aaa.bbb.ccc")
	carrier.ClearToken(ctx)

	require.Len(t, written, 2)
	set, cleared := written[0], written[1]

	assert.Equal(t, auth.DefaultCookieName, set.Name)
	assert.Equal(t, "aaa.bbb.ccc", set.Value)
	assert.Equal(t, "/", set.Path)
	assert.True(t, set.HTTPOnly)
	assert.True(t, set.Expires.After(time.Now()))

	// The deletion cookie must mirror the set cookie's identity attributes
	// or browsers keep the original.
	assert.Equal(t, set.Name, cleared.Name)
	assert.Equal(t, set.Path, cleared.Path)
	assert.Equal(t, set.Secure, cleared.Secure)
	assert.Equal(t, set.SameSite, cleared.SameSite)
	assert.Equal(t, set.HTTPOnly, cleared.HTTPOnly)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.Expires.Before(time.Now()))
}

func TestTokenCarrierCrossOriginPolicy(t *testing.T) {
	carrier := newTestCarrier(t, auth.WithCrossOriginCookies())

	var written *router.Cookie
	ctx := router.NewMockContext()
	ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
		written = args.Get(0).(*router.Cookie)
	}).Return()

	carrier.WriteToken(ctx, "aaa.bbb.ccc")

	require.NotNil(t, written)
	assert.True(t, written.Secure)
	assert.Equal(t, "None", written.SameSite)
}

func TestCookiePolicyValidate(t *testing.T) {
	assert.NoError(t, auth.CrossOriginCookiePolicy().Validate())
	assert.NoError(t, auth.LocalCookiePolicy().Validate())

	err := auth.CookiePolicy{Secure: false, SameSite: "None"}.Validate()
	assert.Error(t, err)
}

func TestNewTokenCarrierRejectsInvalidPolicy(t *testing.T) {
	cfg, err := auth.NewEnvConfig(
		auth.WithSigningKey(string(testSigningKey)),
		auth.WithCookiePolicy(auth.CookiePolicy{Secure: true, SameSite: "None"}),
	)
	require.NoError(t, err)

	_, err = auth.NewTokenCarrier(cfg, nil)
	assert.NoError(t, err)

	_, err = auth.NewEnvConfig(
		auth.WithSigningKey(string(testSigningKey)),
		auth.WithCookiePolicy(auth.CookiePolicy{Secure: false, SameSite: "None"}),
	)
	assert.Error(t, err)
}
