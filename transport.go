package auth

import (
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// DefaultCookieName is the session cookie shared with the frontend.
const DefaultCookieName = "zentro_jwt"

// DefaultAuthScheme is the Authorization header scheme.
const DefaultAuthScheme = "Bearer"

// CookiePolicy carries the deployment dependent cookie attributes. Browsers
// silently drop SameSite=None cookies without Secure, so the pairing is
// validated at construction instead of trusted at write time.
type CookiePolicy struct {
	Secure   bool
	SameSite string
}

// CrossOriginCookiePolicy is the production policy: the frontend is served
// from a different origin than the API.
func CrossOriginCookiePolicy() CookiePolicy {
	return CookiePolicy{Secure: true, SameSite: "None"}
}

// LocalCookiePolicy is the same origin / local development policy.
func LocalCookiePolicy() CookiePolicy {
	return CookiePolicy{Secure: false, SameSite: "Lax"}
}

// Validate rejects attribute combinations browsers will not honor.
func (p CookiePolicy) Validate() error {
	if strings.EqualFold(p.SameSite, "None") && !p.Secure {
		return errors.New("SameSite=None cookie requires Secure", errors.CategoryValidation).
			WithTextCode("cookie_policy_invalid")
	}
	return nil
}

// TokenCarrier moves session tokens between the HTTP layer and the codec:
// extraction from the Authorization header or the session cookie, and the
// single canonical outbound cookie form.
type TokenCarrier struct {
	cookieName string
	authScheme string
	duration   time.Duration
	policy     CookiePolicy
	logger     Logger
}

// NewTokenCarrier builds a carrier from config, validating the cookie policy.
func NewTokenCarrier(cfg Config, logger Logger) (*TokenCarrier, error) {
	if logger == nil {
		logger = defLogger{}
	}

	policy := cfg.GetCookiePolicy()
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	cookieName := cfg.GetCookieName()
	if cookieName == "" {
		cookieName = DefaultCookieName
	}

	authScheme := cfg.GetAuthScheme()
	if authScheme == "" {
		authScheme = DefaultAuthScheme
	}

	duration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		duration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	return &TokenCarrier{
		cookieName: cookieName,
		authScheme: authScheme,
		duration:   duration,
		policy:     policy,
		logger:     logger,
	}, nil
}

// ExtractToken searches the header first, then the cookie, and returns the
// canonical token string. Cookie values are percent decoded exactly once and
// a legacy "Bearer " prefix is stripped, so both carriers yield the same
// canonical form for the same token.
func (t *TokenCarrier) ExtractToken(c router.Context) (string, bool) {
	if raw := t.tokenFromHeader(c); raw != "" {
		return raw, true
	}
	if raw := t.tokenFromCookie(c); raw != "" {
		return raw, true
	}
	return "", false
}

func (t *TokenCarrier) tokenFromHeader(c router.Context) string {
	header := c.GetString(router.HeaderAuthorization, "")
	scheme := strings.TrimSpace(t.authScheme)
	l := len(scheme)
	if l == 0 || len(header) <= l+1 {
		return ""
	}
	if !strings.EqualFold(header[:l], scheme) {
		return ""
	}
	return strings.TrimSpace(header[l:])
}

func (t *TokenCarrier) tokenFromCookie(c router.Context) string {
	value := c.Cookies(t.cookieName)
	if value == "" {
		return ""
	}

	if decoded, err := url.QueryUnescape(value); err == nil {
		value = decoded
	}
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, bearerPrefix)

	return strings.TrimSpace(value)
}

// WriteToken emits the canonical outbound cookie. The compact token alphabet
// is cookie safe, so the canonical encoding is the token itself; no prefix,
// no extra percent encoding layer.
func (t *TokenCarrier) WriteToken(c router.Context, token string) {
	c.Cookie(t.buildSetCookie(token, time.Now()))
}

// ClearToken emits a deletion cookie. Name, path and attributes must match
// the set cookie exactly or browsers keep the original.
func (t *TokenCarrier) ClearToken(c router.Context) {
	c.Cookie(t.buildClearCookie(time.Now()))
}

// CookieName exposes the configured cookie name for middleware lookup config.
func (t *TokenCarrier) CookieName() string {
	return t.cookieName
}

func (t *TokenCarrier) buildSetCookie(token string, now time.Time) *router.Cookie {
	return &router.Cookie{
		Name:     t.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(t.duration),
		HTTPOnly: true,
		Secure:   t.policy.Secure,
		SameSite: t.policy.SameSite,
	}
}

func (t *TokenCarrier) buildClearCookie(now time.Time) *router.Cookie {
	return &router.Cookie{
		Name:     t.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  now.Add(-time.Hour * 24 * 365),
		HTTPOnly: true,
		Secure:   t.policy.Secure,
		SameSite: t.policy.SameSite,
	}
}
