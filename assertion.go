package auth

import (
	"context"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"
)

// IdentityAssertion is the provider neutral result of verifying a federated
// ID token: who the provider says the caller is.
type IdentityAssertion struct {
	Provider      ProviderKind
	ProviderID    string
	Email         string
	EmailVerified bool
	Name          string
	ProfileImage  string
}

// AssertionVerifier checks an opaque federated credential and extracts the
// asserted identity. Implementations must reject unverifiable input with an
// auth category error.
type AssertionVerifier interface {
	VerifyAssertion(ctx context.Context, rawIDToken string) (IdentityAssertion, error)
}

const (
	googleJWKSEndpoint = "https://www.googleapis.com/oauth2/v3/certs"
	googleIssuer       = "https://accounts.google.com"
	googleIssuerLegacy = "accounts.google.com"
)

type googleIDClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
}

// GoogleVerifier validates Google issued ID tokens against the public JWK
// set, refreshed in the background for key rotation.
type GoogleVerifier struct {
	jwks     *keyfunc.JWKS
	audience string
	logger   Logger
}

var _ AssertionVerifier = (*GoogleVerifier)(nil)

// NewGoogleVerifier fetches the Google JWK set and returns a verifier bound
// to the given OAuth client ID. An empty client ID skips audience checks,
// which is only acceptable in development.
func NewGoogleVerifier(clientID string) (*GoogleVerifier, error) {
	g := &GoogleVerifier{
		audience: clientID,
		logger:   defLogger{},
	}

	jwks, err := keyfunc.Get(googleJWKSEndpoint, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			g.logger.Error("failed to do a background refresh of JWK set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "failed to fetch Google JWK set")
	}

	g.jwks = jwks
	return g, nil
}

func (g *GoogleVerifier) WithLogger(l Logger) *GoogleVerifier {
	if l != nil {
		g.logger = l
	}
	return g
}

// VerifyAssertion parses and verifies a Google ID token, returning the
// asserted identity on success.
func (g *GoogleVerifier) VerifyAssertion(ctx context.Context, rawIDToken string) (IdentityAssertion, error) {
	claims := &googleIDClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
	}
	if g.audience != "" {
		opts = append(opts, jwt.WithAudience(g.audience))
	}

	token, err := jwt.ParseWithClaims(rawIDToken, claims, g.jwks.Keyfunc, opts...)
	if err != nil {
		return IdentityAssertion{}, errors.Wrap(err, errors.CategoryAuth, "invalid identity assertion").
			WithTextCode(TextCodeInvalidCredentials).
			WithCode(errors.CodeUnauthorized)
	}

	if !token.Valid {
		return IdentityAssertion{}, ErrInvalidCredentials
	}

	// Google signs with either issuer form depending on token vintage
	if claims.Issuer != googleIssuer && claims.Issuer != googleIssuerLegacy {
		return IdentityAssertion{}, errors.New("identity assertion from unexpected issuer", errors.CategoryAuth).
			WithTextCode(TextCodeInvalidCredentials).
			WithCode(errors.CodeUnauthorized)
	}

	if claims.Email == "" {
		return IdentityAssertion{}, errors.New("identity assertion missing email claim", errors.CategoryAuth).
			WithTextCode(TextCodeInvalidCredentials).
			WithCode(errors.CodeUnauthorized)
	}

	return IdentityAssertion{
		Provider:      ProviderGoogle,
		ProviderID:    claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		ProfileImage:  claims.Picture,
	}, nil
}
