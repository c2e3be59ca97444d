package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidSignature   = "token_signature_invalid"
	TextCodeTokenExpired       = "token_expired"
	TextCodeTokenMalformed     = "token_malformed"
	TextCodeInvalidCredentials = "invalid_credentials"
	TextCodeWrongAuthMethod    = "wrong_auth_method"
	TextCodeProviderConflict   = "provider_conflict"
	TextCodeForbidden          = "forbidden"
	TextCodeMissingPrincipal   = "missing_principal"
	TextCodeEmailTaken         = "email_taken"
	TextCodeSigningKeyTooWeak  = "signing_key_too_weak"
	TextCodeResetTokenInvalid  = "reset_token_invalid"
	TextCodeResetTokenExpired  = "reset_token_expired"
	TextCodeResetTokenConsumed = "reset_token_consumed"
)

// ErrInvalidSignature is returned when a token's HMAC does not verify. The
// signature is always checked before expiry.
var ErrInvalidSignature = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidSignature).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for a well signed token past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for input no normalization strategy parses.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials covers both an unknown email and a wrong password.
// The two cases are deliberately indistinguishable so the sign in endpoint
// cannot be used to enumerate registered accounts.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrWrongAuthMethod is returned when a federated account attempts a local
// password sign in. Unlike ErrInvalidCredentials this reveals provider
// metadata, not account existence, and stays distinguishable on purpose.
var ErrWrongAuthMethod = errors.New("this account uses Google sign in", errors.CategoryAuth).
	WithTextCode(TextCodeWrongAuthMethod).
	WithCode(errors.CodeUnauthorized)

// ErrProviderConflict is returned when a federated sign in asserts an email
// already claimed by a password based account.
var ErrProviderConflict = errors.New("email already registered with email/password sign in", errors.CategoryConflict).
	WithTextCode(TextCodeProviderConflict).
	WithCode(errors.CodeConflict)

// ErrForbidden is the role gate rejection. No further detail is attached.
var ErrForbidden = errors.New("access denied", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrMissingPrincipal is returned when a protected handler runs without an
// authenticated principal in scope.
var ErrMissingPrincipal = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeMissingPrincipal).
	WithCode(errors.CodeUnauthorized)

// ErrEmailTaken is returned on registration with an already used email.
var ErrEmailTaken = errors.New("email is already used with another account", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrSigningKeyTooWeak rejects signing keys below the HMAC-SHA256 minimum.
var ErrSigningKeyTooWeak = errors.New("signing key shorter than 32 bytes", errors.CategoryValidation).
	WithTextCode(TextCodeSigningKeyTooWeak).
	WithCode(errors.CodeBadRequest)

// ErrResetTokenInvalid is returned for unknown password reset tokens.
var ErrResetTokenInvalid = errors.New("password reset token is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeResetTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrResetTokenExpired is returned for reset tokens past their window.
var ErrResetTokenExpired = errors.New("password reset token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeResetTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrResetTokenConsumed is returned for reset tokens already used once.
var ErrResetTokenConsumed = errors.New("password reset token was already used", errors.CategoryAuth).
	WithTextCode(TextCodeResetTokenConsumed).
	WithCode(errors.CodeUnauthorized)

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsInvalidSignatureError will check for signature mismatches
func IsInvalidSignatureError(err error) bool {
	return hasTextCode(err, TextCodeInvalidSignature)
}

// IsMalformedError will check for unparseable tokens
func IsMalformedError(err error) bool {
	return hasTextCode(err, TextCodeTokenMalformed)
}

// IsForbiddenError will check for role gate rejections
func IsForbiddenError(err error) bool {
	return hasTextCode(err, TextCodeForbidden)
}

// IsCredentialError reports any failure of the credential check path that
// should surface to the client as a sign in failure.
func IsCredentialError(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials) ||
		hasTextCode(err, TextCodeWrongAuthMethod)
}
