package tokenware_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zentro-eats/zentro-auth/middleware/tokenware"
)

type stubClaims struct {
	email       string
	authorities map[string]bool
}

func (c stubClaims) Email() string { return c.email }

func (c stubClaims) HasAuthority(authority string) bool { return c.authorities[authority] }

// stubValidator accepts exactly one token value.
type stubValidator struct {
	token  string
	claims tokenware.AuthClaims
	err    error
}

func (v stubValidator) Validate(raw string, _ time.Time) (tokenware.AuthClaims, error) {
	if v.err != nil {
		return nil, v.err
	}
	if raw != v.token {
		return nil, errors.New("token is malformed")
	}
	return v.claims, nil
}

func passThroughError(_ router.Context, err error) error {
	return err
}

func customerClaims() stubClaims {
	return stubClaims{
		email:       "ana@example.com",
		authorities: map[string]bool{"ROLE_CUSTOMER": true},
	}
}

func TestTokenwareHeaderExtraction(t *testing.T) {
	cfg := tokenware.Config{
		TokenValidator: stubValidator{token: "valid.token", claims: customerClaims()},
		ErrorHandler:   passThroughError,
	}
	middleware := tokenware.New(cfg)
	next := func(ctx router.Context) error { return nil }

	t.Run("valid bearer token", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer valid.token")
		ctx.On("Locals", "claims", mock.Anything).Return(nil)

		err := middleware(next)(ctx)
		require.NoError(t, err)
		assert.True(t, ctx.NextCalled)
	})

	t.Run("missing token", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")

		err := middleware(next)(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, tokenware.ErrTokenMissing)
		assert.False(t, ctx.NextCalled)
	})

	t.Run("rejected token", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer other.token")

		err := middleware(next)(ctx)
		require.Error(t, err)
		assert.False(t, ctx.NextCalled)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Basic dXNlcjpwYXNz")
		ctx.CookiesM["zentro_jwt"] = ""

		err := middleware(next)(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, tokenware.ErrTokenMissing)
	})
}

func TestTokenwareCookieExtraction(t *testing.T) {
	cfg := tokenware.Config{
		TokenValidator: stubValidator{token: "valid.token", claims: customerClaims()},
		ErrorHandler:   passThroughError,
	}
	middleware := tokenware.New(cfg)
	next := func(ctx router.Context) error { return nil }

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")
	ctx.CookiesM["zentro_jwt"] = "valid.token"
	ctx.On("Locals", "claims", mock.Anything).Return(nil)

	err := middleware(next)(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)
}

func TestTokenwareOptional(t *testing.T) {
	cfg := tokenware.Config{
		TokenValidator: stubValidator{token: "valid.token", claims: customerClaims()},
		ErrorHandler:   passThroughError,
		Optional:       true,
	}
	middleware := tokenware.New(cfg)
	next := func(ctx router.Context) error { return nil }

	t.Run("missing token passes through anonymously", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")

		err := middleware(next)(ctx)
		require.NoError(t, err)
		assert.True(t, ctx.NextCalled)
	})

	t.Run("present but invalid token still fails", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer bad.token")

		err := middleware(next)(ctx)
		assert.Error(t, err)
	})
}

func TestTokenwareRequiredAuthorities(t *testing.T) {
	next := func(ctx router.Context) error { return nil }

	t.Run("held authority admits", func(t *testing.T) {
		cfg := tokenware.Config{
			TokenValidator:      stubValidator{token: "valid.token", claims: customerClaims()},
			ErrorHandler:        passThroughError,
			RequiredAuthorities: []string{"ROLE_ADMIN", "ROLE_CUSTOMER"},
		}
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer valid.token")
		ctx.On("Locals", "claims", mock.Anything).Return(nil)

		err := tokenware.New(cfg)(next)(ctx)
		require.NoError(t, err)
		assert.True(t, ctx.NextCalled)
	})

	t.Run("missing authority denies", func(t *testing.T) {
		cfg := tokenware.Config{
			TokenValidator:      stubValidator{token: "valid.token", claims: customerClaims()},
			ErrorHandler:        passThroughError,
			RequiredAuthorities: []string{"ROLE_ADMIN"},
		}
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer valid.token")

		err := tokenware.New(cfg)(next)(ctx)
		require.Error(t, err)
		assert.False(t, ctx.NextCalled)
	})
}

// pathContext overrides Path() from the base mock.
type pathContext struct {
	*router.MockContext
	path string
}

func (m *pathContext) Path() string { return m.path }

func TestTokenwarePublicPrefixes(t *testing.T) {
	cfg := tokenware.Config{
		TokenValidator: stubValidator{token: "valid.token", claims: customerClaims()},
		ErrorHandler:   passThroughError,
		PublicPrefixes: []string{"/auth/"},
	}
	middleware := tokenware.New(cfg)
	next := func(ctx router.Context) error { return nil }

	t.Run("matching prefix bypasses authentication", func(t *testing.T) {
		ctx := &pathContext{MockContext: router.NewMockContext(), path: "/auth/signin"}

		err := middleware(next)(ctx)
		require.NoError(t, err)
		assert.True(t, ctx.NextCalled)
	})

	t.Run("other paths stay guarded", func(t *testing.T) {
		ctx := &pathContext{MockContext: router.NewMockContext(), path: "/orders"}
		ctx.On("GetString", "Authorization", "").Return("")

		err := middleware(next)(ctx)
		assert.Error(t, err)
	})
}

func TestTokenwareFilter(t *testing.T) {
	cfg := tokenware.Config{
		TokenValidator: stubValidator{token: "valid.token", claims: customerClaims()},
		ErrorHandler:   passThroughError,
		Filter: func(ctx router.Context) bool {
			return true
		},
	}

	ctx := router.NewMockContext()
	err := tokenware.New(cfg)(func(ctx router.Context) error { return nil })(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)
}

func TestTokenwareContextEnricher(t *testing.T) {
	var enrichedEmail string

	cfg := tokenware.Config{
		TokenValidator: stubValidator{token: "valid.token", claims: customerClaims()},
		ErrorHandler:   passThroughError,
		ContextEnricher: func(c context.Context, claims tokenware.AuthClaims) context.Context {
			enrichedEmail = claims.Email()
			return c
		},
	}

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer valid.token")
	ctx.On("Locals", "claims", mock.Anything).Return(nil)
	ctx.On("Context").Return(context.Background()).Maybe()
	ctx.On("SetContext", mock.Anything).Return().Maybe()

	err := tokenware.New(cfg)(func(ctx router.Context) error { return nil })(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", enrichedEmail)
}

func TestTokenwareValidationListeners(t *testing.T) {
	next := func(ctx router.Context) error { return nil }

	t.Run("listeners observe validated claims", func(t *testing.T) {
		var seen []string
		cfg := tokenware.Config{
			TokenValidator: stubValidator{token: "valid.token", claims: customerClaims()},
			ErrorHandler:   passThroughError,
			ValidationListeners: []tokenware.ValidationListener{
				func(_ router.Context, claims tokenware.AuthClaims) error {
					seen = append(seen, claims.Email())
					return nil
				},
			},
		}

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer valid.token")
		ctx.On("Locals", "claims", mock.Anything).Return(nil)

		err := tokenware.New(cfg)(next)(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"ana@example.com"}, seen)
	})

	t.Run("listener error stops the request", func(t *testing.T) {
		cfg := tokenware.Config{
			TokenValidator: stubValidator{token: "valid.token", claims: customerClaims()},
			ErrorHandler:   passThroughError,
			ValidationListeners: []tokenware.ValidationListener{
				func(_ router.Context, _ tokenware.AuthClaims) error {
					return errors.New("session revoked")
				},
			},
		}

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer valid.token")

		err := tokenware.New(cfg)(next)(ctx)
		require.Error(t, err)
		assert.False(t, ctx.NextCalled)
	})
}

func TestGetExtractors(t *testing.T) {
	t.Run("lookup order is declaration order", func(t *testing.T) {
		extractors := tokenware.GetExtractors("header:Authorization,cookie:zentro_jwt", "Bearer")
		assert.Len(t, extractors, 2)
	})

	t.Run("malformed entries are skipped", func(t *testing.T) {
		extractors := tokenware.GetExtractors("header,query:token")
		assert.Len(t, extractors, 1)
	})

	t.Run("query extraction", func(t *testing.T) {
		extractors := tokenware.GetExtractors("query:token")
		require.Len(t, extractors, 1)

		ctx := router.NewMockContext()
		ctx.QueriesM["token"] = "valid.token"

		raw, err := extractors[0](ctx)
		require.NoError(t, err)
		assert.Equal(t, "valid.token", raw)
	})
}
