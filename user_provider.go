package auth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserStore is the lookup-by-email capability the credential check needs.
// The bun backed Users repository satisfies it; tests provide fakes.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// UserProvider checks presented credentials against stored accounts.
type UserProvider struct {
	store  UserStore
	logger Logger
}

var _ CredentialVerifier = (*UserProvider)(nil)

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity finds the account, compares the password, and returns the
// verified principal. An unknown email and a wrong password both surface as
// ErrInvalidCredentials: the sign in path must not prove account existence.
// A federated account is rejected with the distinguishable method error,
// which reveals provider metadata but not existence of a local credential.
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (*Principal, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if user.IsFederated() {
		return nil, ErrWrongAuthMethod
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, err
	}

	return user.AsPrincipal(), nil
}

// FindAccountByEmail exposes the account record for response shaping after a
// successful credential check.
func (u *UserProvider) FindAccountByEmail(ctx context.Context, email string) (*User, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return user, nil
}
