package access

import (
	"context"
	"time"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSignIn              ActivityEventType = "auth.sign_in"
	ActivityEventSignOut             ActivityEventType = "auth.sign_out"
	ActivityEventAdminPromoted       ActivityEventType = "admin.promoted"
	ActivityEventAdminRevoked        ActivityEventType = "admin.revoked"
	ActivityEventInvitationAccepted  ActivityEventType = "invitation.accepted"
	ActivityEventInvitationRejected  ActivityEventType = "invitation.rejected"
	ActivityEventAccountDeleted      ActivityEventType = "account.deleted"
	ActivityEventSessionsInvalidated ActivityEventType = "account.sessions_invalidated"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	ProfileID  string
	FromStatus InvitationStatus
	ToStatus   InvitationStatus
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
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
