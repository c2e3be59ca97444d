package auth

import (
	"context"
	"time"
)

// Auther orchestrates the sign in flows: verify a credential, gate roles
// where the surface demands it, and mint the session token.
type Auther struct {
	verifier        CredentialVerifier
	federated       FederatedVerifier
	signingKey      []byte
	tokenExpiration int
	clock           Clock
	logger          Logger
	tokenService    TokenService
	activitySink    ActivitySink
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(verifier CredentialVerifier, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		defLogger{},
	)

	return &Auther{
		verifier:        verifier,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		clock:           time.Now,
		logger:          defLogger{},
		tokenService:    tokenService,
		activitySink:    noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
		s.tokenService = NewTokenService(
			s.signingKey,
			s.tokenExpiration,
			logger,
		)
	}
	return s
}

// WithFederatedVerifier enables the federated sign in flow.
func (s *Auther) WithFederatedVerifier(verifier FederatedVerifier) *Auther {
	s.federated = verifier
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClock overrides the time source, mostly for tests.
func (s *Auther) WithClock(clock Clock) *Auther {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies an email/password pair and issues a session token for the
// resulting principal.
func (s *Auther) Login(ctx context.Context, email, password string) (string, *Principal, error) {
	principal, err := s.verifier.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %s", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, email, map[string]any{
			"error": err.Error(),
		})
		return "", nil, err
	}

	if principal == nil || principal.Email == "" {
		s.logger.Error("Login principal is nil or zero value")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, email, map[string]any{
			"error": ErrInvalidCredentials.Error(),
		})
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, principal)
	if err != nil {
		return "", nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, actorFromPrincipal(principal), principal.Email, nil)

	return token, principal, nil
}

// AdminLogin runs the same credential check as Login and then requires the
// verified principal to hold an admin surface role. The gate runs after
// verification so an unauthorized caller still pays the full credential
// check, and before issuance so no token exists for a refused sign in.
func (s *Auther) AdminLogin(ctx context.Context, email, password string) (string, *Principal, error) {
	principal, err := s.verifier.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("AdminLogin verify identity error: %s", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, email, map[string]any{
			"error":   err.Error(),
			"surface": "admin",
		})
		return "", nil, err
	}

	if err := AuthorizeRoles(principal, AdminSurfaceRoles()...); err != nil {
		s.logger.Warn("AdminLogin refused for %s: role not permitted", email)
		s.emitAuthEvent(ctx, ActivityEventAdminDenied, actorFromPrincipal(principal), email, map[string]any{
			"role": string(principal.PrimaryRole()),
		})
		return "", nil, err
	}

	token, err := s.issueToken(ctx, principal)
	if err != nil {
		return "", nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, actorFromPrincipal(principal), principal.Email, map[string]any{
		"surface": "admin",
	})

	return token, principal, nil
}

// LoginFederated resolves a verified identity assertion to an account and
// issues a session token for it.
func (s *Auther) LoginFederated(ctx context.Context, assertion IdentityAssertion) (string, *Principal, error) {
	if s.federated == nil {
		return "", nil, ErrWrongAuthMethod
	}

	principal, err := s.federated.VerifyFederated(ctx, assertion)
	if err != nil {
		s.logger.Error("LoginFederated verify error: %s", err)
		return "", nil, err
	}

	token, err := s.issueToken(ctx, principal)
	if err != nil {
		return "", nil, err
	}

	return token, principal, nil
}

// PrincipalFromToken validates a raw token and rebuilds its principal.
func (s *Auther) PrincipalFromToken(raw string) (*Principal, error) {
	claims, err := s.tokenService.Validate(raw, s.clock())
	if err != nil {
		s.logger.Error("PrincipalFromToken validation failed: %s", err)
		return nil, err
	}

	return principalFromClaims(claims)
}

func (s *Auther) issueToken(ctx context.Context, principal *Principal) (string, error) {
	token, err := s.tokenService.Sign(principal, s.clock())
	if err != nil {
		s.logger.Error("failed to sign session token: %s", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, actorFromPrincipal(principal), principal.Email, map[string]any{
			"error": "token_issuance_failed",
		})
		return "", err
	}
	return token, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, email string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		Email:     email,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func actorFromPrincipal(principal *Principal) ActorRef {
	if principal == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   principal.Email,
		Type: "user",
	}
}
