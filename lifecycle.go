package access

import (
	"context"
	"strings"
)

// AccountLifecycle performs session-wide destructive operations. Both
// actions return an ActionResult and never propagate errors: the message is
// meant for direct user display.
type AccountLifecycle struct {
	backend  Backend
	session  *SessionStore
	cfg      Config
	logger   Logger
	activity ActivitySink
}

// LifecycleOption customizes AccountLifecycle construction.
type LifecycleOption func(*AccountLifecycle)

// WithLifecycleLogger overrides the lifecycle logger.
func WithLifecycleLogger(logger Logger) LifecycleOption {
	return func(l *AccountLifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLifecycleActivitySink sets the sink for account-wide events.
func WithLifecycleActivitySink(sink ActivitySink) LifecycleOption {
	return func(l *AccountLifecycle) {
		l.activity = normalizeActivitySink(sink)
	}
}

// NewAccountLifecycle builds the lifecycle action handler.
func NewAccountLifecycle(backend Backend, session *SessionStore, cfg Config, opts ...LifecycleOption) *AccountLifecycle {
	l := &AccountLifecycle{
		backend:  backend,
		session:  session,
		cfg:      cfg,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// DeleteAccount verifies the password and the typed confirmation phrase,
// then deletes the account server-side. On success the session store is
// invalidated and the caller must navigate away. On failure the identity is
// left untouched.
func (l *AccountLifecycle) DeleteAccount(ctx context.Context, password, confirmation string) ActionResult {
	if strings.TrimSpace(password) == "" {
		return ActionResult{Message: "password is required"}
	}

	phrase := l.cfg.GetDeleteConfirmationPhrase()
	if confirmation != phrase {
		return ActionResult{Message: "type \"" + phrase + "\" to confirm"}
	}

	identity, ok := l.session.CurrentIdentity()
	if !ok {
		return ActionResult{Message: "no signed-in account to delete"}
	}

	if err := l.backend.DeleteAccount(ctx, password); err != nil {
		l.logger.Warn("account deletion for %s rejected: %v", identity.ID(), err)
		return ActionResult{Message: UserMessage(err)}
	}

	l.recordEvent(ctx, ActivityEventAccountDeleted, identity)
	l.session.Invalidate()

	return ActionResult{Success: true, Message: "account deleted"}
}

// SignOutAllDevices invalidates every active session tied to the identity,
// including the caller's own.
func (l *AccountLifecycle) SignOutAllDevices(ctx context.Context) ActionResult {
	identity, ok := l.session.CurrentIdentity()
	if !ok {
		return ActionResult{Message: "no signed-in account"}
	}

	if err := l.backend.InvalidateAllSessions(ctx); err != nil {
		l.logger.Warn("session invalidation for %s failed: %v", identity.ID(), err)
		return ActionResult{Message: UserMessage(err)}
	}

	l.recordEvent(ctx, ActivityEventSessionsInvalidated, identity)
	l.session.Invalidate()

	return ActionResult{Success: true, Message: "signed out everywhere"}
}

func (l *AccountLifecycle) recordEvent(ctx context.Context, event ActivityEventType, identity Identity) {
	if err := l.activity.Record(ctx, ActivityEvent{
		EventType: event,
		Actor:     ActorRef{ID: identity.ID(), Type: "user"},
		ProfileID: identity.ID(),
	}); err != nil {
		l.logger.Warn("activity sink record error: %v", err)
	}
}
