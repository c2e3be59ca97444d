package auth

import (
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances hash strength against sign in latency. Cost 12 keeps a
// single compare under ~300ms on current hardware.
const bcryptCost = 12

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty", errors.CategoryValidation)
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext password against
// the stored hash. bcrypt's comparison is constant time; a mismatch maps to
// the generic credential error so callers cannot tell it apart from an
// unknown account.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to compare password hash")
	}
	return nil
}

// RandomPasswordHash fills the password column for accounts that must never
// authenticate locally.
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
