package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *Principal, error)
	AdminLogin(ctx context.Context, email, password string) (string, *Principal, error)
	LoginFederated(ctx context.Context, assertion IdentityAssertion) (string, *Principal, error)
	PrincipalFromToken(token string) (*Principal, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetTokenExpiration() int
	GetCookieName() string
	GetAuthScheme() string
	GetTokenLookup() string
	GetPublicRoutePrefixes() []string
	GetCookiePolicy() CookiePolicy
}

// CredentialVerifier checks presented credentials against stored ones,
// producing the verified principal with its authority set.
type CredentialVerifier interface {
	VerifyIdentity(ctx context.Context, email, password string) (*Principal, error)
}

// FederatedVerifier resolves a federated identity assertion to a principal,
// provisioning the account on first sign in.
type FederatedVerifier interface {
	VerifyFederated(ctx context.Context, assertion IdentityAssertion) (*Principal, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Clock supplies the current time. Token issuance reads it once per call;
// verification receives an explicit instant instead.
type Clock func() time.Time

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
