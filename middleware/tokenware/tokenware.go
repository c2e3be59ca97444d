package tokenware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "header:" + router.HeaderAuthorization + ",cookie:zentro_jwt"

	// ErrTokenMissing is returned when no carrier held a token at all.
	ErrTokenMissing = errors.New("missing or malformed session token")
)

// TokenValidator validates raw tokens without import cycles.
// This mirrors the TokenService.Validate method from the auth package.
type TokenValidator interface {
	Validate(raw string, now time.Time) (AuthClaims, error)
}

// AuthClaims is the subset of verified claims the middleware needs.
// This mirrors the AuthClaims interface from the auth package.
type AuthClaims interface {
	Email() string
	HasAuthority(authority string) bool
}

// ValidationListener is invoked after a token has been validated but before
// authorization checks.
type ValidationListener func(ctx router.Context, claims AuthClaims) error

type Config struct {
	// Filter skips the middleware entirely when it returns true.
	Filter func(router.Context) bool

	// PublicPrefixes short circuits authentication for matching request
	// paths. Prefix match, same as the upstream gateway rules.
	PublicPrefixes []string

	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler

	// TokenValidator is required for token validation
	TokenValidator TokenValidator

	// Clock supplies the verification instant. Defaults to time.Now.
	Clock func() time.Time

	ContextKey  string
	TokenLookup string
	AuthScheme  string

	// RequiredAuthorities admits the request when the verified claims hold
	// at least one of the listed authorities. Empty means any authenticated
	// caller passes.
	RequiredAuthorities []string

	// Optional lets unauthenticated requests through without claims in
	// scope. A present but invalid token still fails.
	Optional bool

	// ContextEnricher propagates claims to the standard Go context. If
	// provided, it will be called after successful token validation.
	ContextEnricher func(c context.Context, claims AuthClaims) context.Context

	// ValidationListeners are invoked after token validation succeeds. Use
	// them to emit events or perform bookkeeping before the request proceeds.
	ValidationListeners []ValidationListener
}

// New builds the authentication middleware: extract the token from its
// carriers, validate it, check authorities, and stash the claims in scope.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.isPublic(ctx) {
				return ctx.Next()
			}

			raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
			if err != nil {
				if cfg.Optional {
					return ctx.Next()
				}
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.TokenValidator.Validate(raw, cfg.Clock())
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := cfg.runValidationListeners(ctx, claims); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := performAuthorizationChecks(claims, cfg); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, claims)

			if cfg.ContextEnricher != nil {
				stdCtx := ctx.Context()
				ctx.SetContext(cfg.ContextEnricher(stdCtx, claims))
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// performAuthorizationChecks admits the request when the claims hold any of
// the required authorities.
func performAuthorizationChecks(claims AuthClaims, cfg Config) error {
	if len(cfg.RequiredAuthorities) == 0 {
		return nil
	}

	for _, authority := range cfg.RequiredAuthorities {
		if claims.HasAuthority(authority) {
			return nil
		}
	}

	return errors.New("access denied: required authority not held")
}

func ExtractRawTokenFromContext(ctx router.Context, extractors []TokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			if errors.Is(err, ErrTokenMissing) {
				return c.Status(router.StatusUnauthorized).SendString(ErrTokenMissing.Error())
			}
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: token middleware configuration: TokenValidator is required.")
	}

	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "claims"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config) isPublic(ctx router.Context) bool {
	if cfg.Filter != nil && cfg.Filter(ctx) {
		return true
	}

	if len(cfg.PublicPrefixes) > 0 {
		path := ctx.Path()
		for _, prefix := range cfg.PublicPrefixes {
			if prefix != "" && strings.HasPrefix(path, prefix) {
				return true
			}
		}
	}

	return false
}

func (cfg *Config) getExtractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func (cfg *Config) runValidationListeners(ctx router.Context, claims AuthClaims) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(ctx, claims); err != nil {
			return err
		}
	}
	return nil
}

// GetExtractors parses a lookup string such as
// "header:Authorization,cookie:zentro_jwt" into carrier extractors, tried in
// declaration order.
func GetExtractors(tokenLookup string, authSchemes ...string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) < 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, tokenFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(parts[1]))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(parts[1]))
		}
	}

	return extractors
}

type TokenExtractor func(c router.Context) (string, error)

// tokenFromHeader returns a function that extracts the token from the request
// header, stripping the auth scheme.
func tokenFromHeader(header string, authScheme string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		authScheme = strings.TrimSpace(authScheme)
		l := len(authScheme)
		if l == 0 {
			return "", ErrTokenMissing
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMissing
	}
}

// tokenFromQuery returns a function that extracts the token from the query
// string.
func tokenFromQuery(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrTokenMissing
		}
		return token, nil
	}
}

// tokenFromCookie returns a function that extracts the raw token from the
// named cookie. Legacy cookie encodings are left for the validator's
// normalization chain to resolve.
func tokenFromCookie(name string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissing
		}
		return token, nil
	}
}
