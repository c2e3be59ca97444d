package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/zentro-eats/zentro-auth/middleware/tokenware"
)

// RouteAuthenticator binds the sign in flows and the token middleware to the
// HTTP layer: it writes and clears the session cookie and shapes auth errors
// into JSON responses.
type RouteAuthenticator struct {
	auth             Authenticator
	cfg              Config
	carrier          *TokenCarrier
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	carrier, err := NewTokenCarrier(cfg, defLogger{})
	if err != nil {
		return nil, err
	}

	a := &RouteAuthenticator{
		cfg:     cfg,
		auth:    auther,
		carrier: carrier,
		Logger:  defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

// Carrier exposes the cookie helper for controllers.
func (a *RouteAuthenticator) Carrier() *TokenCarrier {
	return a.carrier
}

// middlewareValidator adapts the auth TokenService to the middleware's
// mirror interface.
type middlewareValidator struct {
	svc TokenService
}

func (m middlewareValidator) Validate(raw string, now time.Time) (tokenware.AuthClaims, error) {
	claims, err := m.svc.Validate(raw, now)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ContextEnricherAdapter rebuilds the principal from validated claims and
// stores it in the standard context for downstream handlers.
func ContextEnricherAdapter(c context.Context, claims tokenware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}

	principal, err := principalFromClaims(authClaims)
	if err != nil {
		return c
	}

	return WithPrincipal(c, principal)
}

// ProtectedRoute guards everything outside the public prefixes: extract,
// validate, and stash the principal. Pass authorities to additionally gate
// the route on role membership.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error, authorities ...Role) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.AuthErrorHandler
	}

	required := make([]string, 0, len(authorities))
	for _, role := range authorities {
		required = append(required, string(role))
	}

	svc := NewTokenService([]byte(a.cfg.GetSigningKey()), a.cfg.GetTokenExpiration(), a.Logger)

	return tokenware.New(tokenware.Config{
		ErrorHandler:        errorHandler,
		TokenValidator:      middlewareValidator{svc: svc},
		AuthScheme:          a.cfg.GetAuthScheme(),
		TokenLookup:         a.cfg.GetTokenLookup(),
		PublicPrefixes:      a.cfg.GetPublicRoutePrefixes(),
		RequiredAuthorities: required,
		ContextEnricher:     ContextEnricherAdapter,
	})
}

// Login runs the local credential flow and sets the session cookie.
func (a *RouteAuthenticator) Login(ctx router.Context, email, password string) (string, *Principal, error) {
	token, principal, err := a.auth.Login(ctx.Context(), email, password)
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return "", nil, err
	}

	a.carrier.WriteToken(ctx, token)
	return token, principal, nil
}

// AdminLogin runs the admin surface flow and sets the session cookie.
func (a *RouteAuthenticator) AdminLogin(ctx router.Context, email, password string) (string, *Principal, error) {
	token, principal, err := a.auth.AdminLogin(ctx.Context(), email, password)
	if err != nil {
		a.Logger.Error("AdminLogin error: %s", err)
		return "", nil, err
	}

	a.carrier.WriteToken(ctx, token)
	return token, principal, nil
}

// LoginFederated exchanges a verified assertion for a session and sets the
// cookie.
func (a *RouteAuthenticator) LoginFederated(ctx router.Context, assertion IdentityAssertion) (string, *Principal, error) {
	token, principal, err := a.auth.LoginFederated(ctx.Context(), assertion)
	if err != nil {
		a.Logger.Error("LoginFederated error: %s", err)
		return "", nil, err
	}

	a.carrier.WriteToken(ctx, token)
	return token, principal, nil
}

// Logout clears the session cookie. The token itself stays valid until its
// expiry; stateless sessions have no server side revocation.
func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.carrier.ClearToken(ctx)
}

// MakeClientRouteAuthErrorHandler shapes middleware failures. With optional
// set, an invalid or absent token lets the request continue anonymously.
func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsInvalidSignatureError(err) {
			richErr = ErrInvalidSignature
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding: %s", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

type errorResponse struct {
	Message  string `json:"message"`
	TextCode string `json:"code,omitempty"`
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error: %s text_code=%s path=%s",
		richErr.Message, richErr.TextCode, c.OriginalURL(),
	)

	return c.JSON(richErr.Code, errorResponse{
		Message:  richErr.Message,
		TextCode: richErr.TextCode,
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler: %s category=%s details=%s",
		richErr.Message, richErr.Category, print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.JSON(richErr.Code, errorResponse{
			Message: "An unexpected server error occurred",
		})
	}
}
