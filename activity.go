package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess     ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure     ActivityEventType = "auth.login.failure"
	ActivityEventFederatedLogin   ActivityEventType = "auth.federated.login"
	ActivityEventFederatedSignup  ActivityEventType = "auth.federated.signup"
	ActivityEventAdminDenied      ActivityEventType = "auth.admin.denied"
	ActivityEventUserRegistered   ActivityEventType = "auth.user.registered"
	ActivityEventPasswordReset    ActivityEventType = "auth.password.reset"
	ActivityEventSessionRejected  ActivityEventType = "auth.session.rejected"
)

// ActorRef identifies who triggered an event.
type ActorRef struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
}

// ActivityEvent captures audit friendly information about an action. Metadata
// must never carry raw tokens or passwords; error kinds and routes only.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	Email      string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best effort: errors are logged and never block authentication.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
