package access

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ResponseMetadata captures extra context for an invitation response.
type ResponseMetadata struct {
	Reason   string
	Metadata map[string]any
}

// ResponseContext is the full picture of one response.
type ResponseContext struct {
	Actor      ActorRef
	Invitation *Invitation
	From       InvitationStatus
	To         InvitationStatus
	Meta       ResponseMetadata
}

// ResponseOption customizes one response.
type ResponseOption func(*responseOptions)

// WithResponseReason sets a human-readable reason for the response.
func WithResponseReason(reason string) ResponseOption {
	return func(opts *responseOptions) {
		opts.metadata.Reason = reason
	}
}

// WithResponseMetadata merges metadata into the response context.
func WithResponseMetadata(metadata map[string]any) ResponseOption {
	return func(opts *responseOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// InvitationResponder persists status transitions.
type InvitationResponder interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status InvitationStatus, opts ...InvitationUpdateOption) (*Invitation, error)
}

// InvitationStateMachine drives invitation responses: pending transitions to
// accepted or rejected exactly once, terminal statuses are immutable.
type InvitationStateMachine interface {
	Respond(ctx context.Context, actor ActorRef, inv *Invitation, target InvitationStatus, opts ...ResponseOption) (*Invitation, error)
	CurrentStatus(inv *Invitation) InvitationStatus
}

// InvitationMachineOption customizes machine construction.
type InvitationMachineOption func(*invitationStateMachine)

// WithInvitationClock injects a custom clock (useful for tests).
func WithInvitationClock(clock func() time.Time) InvitationMachineOption {
	return func(sm *invitationStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithInvitationActivitySink sets the sink used to publish response events.
func WithInvitationActivitySink(sink ActivitySink) InvitationMachineOption {
	return func(sm *invitationStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithInvitationLogger overrides the logger used for sink failures.
func WithInvitationLogger(logger Logger) InvitationMachineOption {
	return func(sm *invitationStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// NewInvitationStateMachine returns the default implementation backed by the
// provided responder.
func NewInvitationStateMachine(store InvitationResponder, opts ...InvitationMachineOption) InvitationStateMachine {
	sm := &invitationStateMachine{
		store: store,
		transitions: map[InvitationStatus]map[InvitationStatus]struct{}{
			InvitationPending: {
				InvitationAccepted: {},
				InvitationRejected: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type invitationStateMachine struct {
	store        InvitationResponder
	transitions  map[InvitationStatus]map[InvitationStatus]struct{}
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

type responseOptions struct {
	metadata ResponseMetadata
}

func (sm *invitationStateMachine) Respond(ctx context.Context, actor ActorRef, inv *Invitation, target InvitationStatus, opts ...ResponseOption) (*Invitation, error) {
	if inv == nil {
		return nil, ErrInvalidInvitationResponse.WithMetadata(map[string]any{
			"target": target,
			"reason": "invitation is nil",
		})
	}

	inv.EnsureStatus()
	from := inv.Status

	if !ValidInvitationStatus(target) || target == InvitationPending {
		return nil, ErrInvalidInvitationResponse.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	if from == target {
		return inv, nil
	}

	if TerminalInvitationStatus(from) {
		return nil, ErrInvitationClosed.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	if !sm.canTransition(from, target) {
		return nil, ErrInvalidInvitationResponse.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	options := &responseOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	respondedAt := sm.now()
	updated, err := sm.store.UpdateStatus(ctx, inv.ID, target, WithRespondedAt(&respondedAt))
	if err != nil {
		return nil, err
	}

	sm.applyUpdates(inv, updated, target, respondedAt)

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  responseEventType(target),
		Actor:      actor,
		ProfileID:  actor.ID,
		FromStatus: from,
		ToStatus:   target,
		Metadata:   sm.responseMetadata(options.metadata, inv),
	})

	return inv, nil
}

func (sm *invitationStateMachine) CurrentStatus(inv *Invitation) InvitationStatus {
	if inv == nil {
		return ""
	}
	inv.EnsureStatus()
	return inv.Status
}

func (sm *invitationStateMachine) canTransition(from, to InvitationStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *invitationStateMachine) applyUpdates(inv, updated *Invitation, target InvitationStatus, respondedAt time.Time) {
	if updated != nil {
		if updated.Status != "" {
			inv.Status = updated.Status
		} else {
			inv.Status = target
		}
		inv.RespondedAt = updated.RespondedAt
		return
	}

	inv.Status = target
	inv.RespondedAt = &respondedAt
}

func (sm *invitationStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("invitation activity sink error: %v", err)
	}
}

func (sm *invitationStateMachine) responseMetadata(meta ResponseMetadata, inv *Invitation) map[string]any {
	result := map[string]any{
		"panel_id":    inv.PanelID.String(),
		"panel_title": inv.PanelTitle,
		"role":        inv.RoleLabel,
	}
	if meta.Reason != "" {
		result["reason"] = meta.Reason
	}
	for k, v := range meta.Metadata {
		result[k] = v
	}
	return result
}

func responseEventType(target InvitationStatus) ActivityEventType {
	if target == InvitationAccepted {
		return ActivityEventInvitationAccepted
	}
	return ActivityEventInvitationRejected
}

// InvitationUpdateOption mutates the invitation record before persisting a
// status change.
type InvitationUpdateOption func(*Invitation)

// WithRespondedAt sets the RespondedAt timestamp during a status change.
func WithRespondedAt(at *time.Time) InvitationUpdateOption {
	return func(i *Invitation) {
		i.RespondedAt = at
	}
}
