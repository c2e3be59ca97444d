package auth_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	auth "github.com/zentro-eats/zentro-auth"
)

// MockCredentialVerifier implements auth.CredentialVerifier
type MockCredentialVerifier struct {
	mock.Mock
}

func (m *MockCredentialVerifier) VerifyIdentity(ctx context.Context, email, password string) (*auth.Principal, error) {
	args := m.Called(ctx, email, password)
	var principal *auth.Principal
	if v := args.Get(0); v != nil {
		principal = v.(*auth.Principal)
	}
	return principal, args.Error(1)
}

// MockFederatedVerifier implements auth.FederatedVerifier
type MockFederatedVerifier struct {
	mock.Mock
}

func (m *MockFederatedVerifier) VerifyFederated(ctx context.Context, assertion auth.IdentityAssertion) (*auth.Principal, error) {
	args := m.Called(ctx, assertion)
	var principal *auth.Principal
	if v := args.Get(0); v != nil {
		principal = v.(*auth.Principal)
	}
	return principal, args.Error(1)
}

// recordingSink captures emitted activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) byType(eventType auth.ActivityEventType) []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []auth.ActivityEvent
	for _, event := range s.events {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}
