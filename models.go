package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProviderKind tells how an account's credential was established.
type ProviderKind string

const (
	// ProviderLocal accounts sign in with an email/password pair
	ProviderLocal ProviderKind = "LOCAL"
	// ProviderGoogle accounts were established by Google sign in and never
	// hold a usable local password
	ProviderGoogle ProviderKind = "GOOGLE"
)

// User is the account model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          Role         `bun:"user_role,notnull" json:"role,omitempty"`
	FullName      string       `bun:"full_name,notnull" json:"full_name,omitempty"`
	Email         string       `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string       `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string       `bun:"password_hash" json:"-"`
	Provider      ProviderKind `bun:"provider,notnull" json:"provider,omitempty"`
	ProviderID    string       `bun:"provider_id" json:"provider_id,omitempty"`
	ProfileImage  string       `bun:"profile_image" json:"profile_image,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time   `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsFederated reports whether the credential lives with an external provider.
func (u *User) IsFederated() bool {
	return u.Provider != "" && u.Provider != ProviderLocal
}

// EnsureDefaults fills the columns every row must carry.
func (u *User) EnsureDefaults() {
	if u.Provider == "" {
		u.Provider = ProviderLocal
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
}

// AsPrincipal derives the request scoped identity from the account row. The
// account holds a single role; the principal's set form keeps the token
// format forward compatible.
func (u *User) AsPrincipal() *Principal {
	return NewPrincipal(u.Email, u.Role)
}

// Cart is the per customer cart shell, provisioned atomically with every new
// account.
type Cart struct {
	bun.BaseModel `bun:"table:carts,alias:crt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	CustomerID    uuid.UUID  `bun:"customer_id,notnull,unique,type:uuid" json:"customer_id,omitempty"`
	Customer      *User      `bun:"rel:belongs-to,join:customer_id=id" json:"customer,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// PasswordResetToken is the separate time boxed token store backing the
// forgot/reset password flow. Opaque value, short TTL, single use.
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"-"`
	UserID        *uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	ConsumedAt    *time.Time `bun:"consumed_at,nullzero" json:"consumed_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// IsExpired checks the token window against the given instant.
func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsConsumed reports single use exhaustion.
func (t *PasswordResetToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}
