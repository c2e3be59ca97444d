package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService signs and verifies session tokens. Both operations take the
// reference instant explicitly; the service never reads a global clock, which
// keeps verification pure and the round trip law testable.
type TokenService interface {
	Sign(principal *Principal, now time.Time) (string, error)
	Validate(candidate string, now time.Time) (AuthClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	ttl        time.Duration
	normalizer *TokenNormalizer
	logger     Logger
}

// NewTokenService creates a new TokenService instance. tokenExpiration is in
// hours; the production value is 24.
func NewTokenService(signingKey []byte, tokenExpiration int, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		ttl:        time.Duration(tokenExpiration) * time.Hour,
		normalizer: NewTokenNormalizer(),
		logger:     logger,
	}
}

// Sign builds the claims payload for the principal at the given instant and
// returns the compact signed representation. The authorities claim is
// de-duplicated and lexicographically ordered, so signing the same principal
// at the same instant yields byte identical tokens.
func (ts *TokenServiceImpl) Sign(principal *Principal, now time.Time) (string, error) {
	if principal == nil || principal.Email == "" {
		return "", errors.New("principal must carry an email", errors.CategoryInternal)
	}

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		AccountEmail: principal.Email,
		Authorities:  JoinAuthorities(principal.Roles),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// Validate normalizes the candidate through the legacy encoding chain and
// verifies the first form that parses. Signature integrity is checked before
// expiry; every failure maps to a typed error, never a panic.
func (ts *TokenServiceImpl) Validate(candidate string, now time.Time) (AuthClaims, error) {
	candidates := ts.normalizer.Candidates(candidate)
	if len(candidates) == 0 {
		return nil, ErrTokenMalformed
	}

	var lastErr error
	for _, raw := range candidates {
		claims, err := ts.parse(raw, now)
		if err == nil {
			return claims, nil
		}
		if IsMalformedError(err) {
			lastErr = err
			continue
		}
		return nil, err
	}

	return nil, lastErr
}

func (ts *TokenServiceImpl) parse(raw string, now time.Time) (AuthClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
				WithTextCode(ErrTokenMalformed.TextCode)
		}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
