package auth

import (
	"os"
)

const (
	// SigningKeyEnvVar overrides the compiled in development key.
	SigningKeyEnvVar = "JWT_SECRET"

	// DevSigningKey is the development fallback. Acceptable only outside
	// production; deployments must set JWT_SECRET.
	DevSigningKey = "ZentroRestaurantSecureSecretKeyForJWT2025MinimumLengthRequired"

	// minSigningKeyBytes is the HMAC-SHA256 key size floor.
	minSigningKeyBytes = 32

	// DefaultTokenExpiration is hours of token validity.
	DefaultTokenExpiration = 24

	// DefaultTokenLookup is the carrier search order: header first, cookie second.
	DefaultTokenLookup = "header:Authorization,cookie:" + DefaultCookieName
)

// DefaultPublicRoutePrefixes bypass authentication entirely. Everything under
// the auth entry points must stay reachable without a session.
func DefaultPublicRoutePrefixes() []string {
	return []string{"/auth/"}
}

// EnvConfig is the process wide auth configuration. The signing key is read
// once at construction and never mutated afterwards; every consumer receives
// it explicitly rather than reading ambient state.
type EnvConfig struct {
	signingKey     string
	tokenHours     int
	cookieName     string
	publicPrefixes []string
	cookiePolicy   CookiePolicy
}

var _ Config = (*EnvConfig)(nil)

// EnvConfigOption mutates an EnvConfig during construction.
type EnvConfigOption func(*EnvConfig)

// NewEnvConfig loads the signing key from JWT_SECRET, falling back to the
// development default, and fails if the effective key is below the HS256
// minimum. Defaults are the local development policy; production wiring
// passes WithCrossOriginCookies.
func NewEnvConfig(opts ...EnvConfigOption) (*EnvConfig, error) {
	key := os.Getenv(SigningKeyEnvVar)
	if key == "" {
		key = DevSigningKey
	}

	cfg := &EnvConfig{
		signingKey:     key,
		tokenHours:     DefaultTokenExpiration,
		cookieName:     DefaultCookieName,
		publicPrefixes: DefaultPublicRoutePrefixes(),
		cookiePolicy:   LocalCookiePolicy(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	if len(cfg.signingKey) < minSigningKeyBytes {
		return nil, ErrSigningKeyTooWeak
	}

	if err := cfg.cookiePolicy.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithSigningKey overrides the environment lookup, mainly for tests.
func WithSigningKey(key string) EnvConfigOption {
	return func(c *EnvConfig) { c.signingKey = key }
}

// WithCrossOriginCookies switches to the Secure + SameSite=None policy
// required when the frontend is served from a different origin.
func WithCrossOriginCookies() EnvConfigOption {
	return func(c *EnvConfig) { c.cookiePolicy = CrossOriginCookiePolicy() }
}

// WithCookiePolicy sets an explicit policy.
func WithCookiePolicy(policy CookiePolicy) EnvConfigOption {
	return func(c *EnvConfig) { c.cookiePolicy = policy }
}

// WithTokenExpiration overrides the validity window in hours.
func WithTokenExpiration(hours int) EnvConfigOption {
	return func(c *EnvConfig) {
		if hours > 0 {
			c.tokenHours = hours
		}
	}
}

// WithPublicRoutePrefixes replaces the public path prefix allow list.
func WithPublicRoutePrefixes(prefixes ...string) EnvConfigOption {
	return func(c *EnvConfig) { c.publicPrefixes = prefixes }
}

func (c *EnvConfig) GetSigningKey() string { return c.signingKey }

func (c *EnvConfig) GetSigningMethod() string { return "HS256" }

func (c *EnvConfig) GetTokenExpiration() int { return c.tokenHours }

func (c *EnvConfig) GetCookieName() string { return c.cookieName }

func (c *EnvConfig) GetAuthScheme() string { return DefaultAuthScheme }

func (c *EnvConfig) GetTokenLookup() string {
	return "header:Authorization,cookie:" + c.cookieName
}

func (c *EnvConfig) GetPublicRoutePrefixes() []string { return c.publicPrefixes }

func (c *EnvConfig) GetCookiePolicy() CookiePolicy { return c.cookiePolicy }
