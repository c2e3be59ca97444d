package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the read side of a verified token payload.
type AuthClaims interface {
	Email() string
	Roles() []Role
	HasAuthority(authority string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// SessionClaims is the concrete claims payload carried by a signed session
// token. The wire names (email, authorities) are the historical contract and
// must not change while issued tokens are still in flight.
type SessionClaims struct {
	jwt.RegisteredClaims
	AccountEmail string `json:"email,omitempty"`
	Authorities  string `json:"authorities,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*SessionClaims)(nil)

// Email returns the account email the token was issued to
func (c *SessionClaims) Email() string {
	return c.AccountEmail
}

// Roles parses the authorities claim back into the closed role set
func (c *SessionClaims) Roles() []Role {
	return SplitAuthorities(c.Authorities)
}

// HasAuthority checks the authorities claim for a specific role tag
func (c *SessionClaims) HasAuthority(authority string) bool {
	role, ok := ParseRole(authority)
	if !ok {
		return false
	}
	for _, r := range c.Roles() {
		if r == role {
			return true
		}
	}
	return false
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
