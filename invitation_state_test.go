package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/panelpulse/go-access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponder struct {
	calls   int
	lastID  uuid.UUID
	failure error
}

func (f *fakeResponder) UpdateStatus(ctx context.Context, id uuid.UUID, status access.InvitationStatus, opts ...access.InvitationUpdateOption) (*access.Invitation, error) {
	f.calls++
	f.lastID = id

	if f.failure != nil {
		return nil, f.failure
	}

	record := &access.Invitation{ID: id, Status: status}
	for _, opt := range opts {
		if opt != nil {
			opt(record)
		}
	}
	return record, nil
}

func TestInvitationMachineAcceptsPending(t *testing.T) {
	store := &fakeResponder{}
	frozen := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	machine := access.NewInvitationStateMachine(store,
		access.WithInvitationClock(func() time.Time { return frozen }))

	inv := &access.Invitation{ID: uuid.New(), PanelID: uuid.New(), PanelTitle: "Future of Go"}

	updated, err := machine.Respond(context.Background(), access.ActorRef{ID: "usr-1", Type: "user"}, inv, access.InvitationAccepted)
	require.NoError(t, err)
	assert.Equal(t, access.InvitationAccepted, updated.Status)
	require.NotNil(t, updated.RespondedAt)
	assert.Equal(t, frozen, *updated.RespondedAt)
	assert.Equal(t, inv.ID, store.lastID)
}

func TestInvitationMachineSameStatusIsNoop(t *testing.T) {
	store := &fakeResponder{}
	machine := access.NewInvitationStateMachine(store)

	inv := &access.Invitation{ID: uuid.New(), Status: access.InvitationAccepted}

	updated, err := machine.Respond(context.Background(), access.ActorRef{}, inv, access.InvitationAccepted)
	require.NoError(t, err)
	assert.Equal(t, access.InvitationAccepted, updated.Status)
	assert.Zero(t, store.calls, "idempotent responses never hit the store")
}

func TestInvitationMachineTerminalIsImmutable(t *testing.T) {
	store := &fakeResponder{}
	machine := access.NewInvitationStateMachine(store)

	inv := &access.Invitation{ID: uuid.New(), Status: access.InvitationRejected}

	_, err := machine.Respond(context.Background(), access.ActorRef{}, inv, access.InvitationAccepted)
	require.ErrorIs(t, err, access.ErrInvitationClosed)
	assert.Zero(t, store.calls)
}

func TestInvitationMachineRejectsInvalidTargets(t *testing.T) {
	store := &fakeResponder{}
	machine := access.NewInvitationStateMachine(store)

	inv := &access.Invitation{ID: uuid.New()}

	_, err := machine.Respond(context.Background(), access.ActorRef{}, inv, access.InvitationPending)
	require.ErrorIs(t, err, access.ErrInvalidInvitationResponse)

	_, err = machine.Respond(context.Background(), access.ActorRef{}, inv, "expired")
	require.ErrorIs(t, err, access.ErrInvalidInvitationResponse)

	_, err = machine.Respond(context.Background(), access.ActorRef{}, nil, access.InvitationAccepted)
	require.ErrorIs(t, err, access.ErrInvalidInvitationResponse)

	assert.Zero(t, store.calls)
}

func TestInvitationMachineBlankStatusDefaultsToPending(t *testing.T) {
	store := &fakeResponder{}
	machine := access.NewInvitationStateMachine(store)

	inv := &access.Invitation{ID: uuid.New()}
	assert.Equal(t, access.InvitationPending, machine.CurrentStatus(inv))

	_, err := machine.Respond(context.Background(), access.ActorRef{}, inv, access.InvitationRejected)
	require.NoError(t, err)
	assert.Equal(t, access.InvitationRejected, inv.Status)
}

func TestInvitationMachineStoreFailureSurfaces(t *testing.T) {
	store := &fakeResponder{failure: assert.AnError}
	machine := access.NewInvitationStateMachine(store)

	inv := &access.Invitation{ID: uuid.New()}

	_, err := machine.Respond(context.Background(), access.ActorRef{}, inv, access.InvitationAccepted)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, access.InvitationPending, inv.Status, "failed persistence leaves the record untouched")
}

func TestInvitationMachinePublishesEvents(t *testing.T) {
	store := &fakeResponder{}
	sink := &capturingSink{}
	machine := access.NewInvitationStateMachine(store,
		access.WithInvitationActivitySink(sink))

	inv := &access.Invitation{
		ID:         uuid.New(),
		PanelID:    uuid.New(),
		PanelTitle: "Future of Go",
		RoleLabel:  "panelist",
	}

	_, err := machine.Respond(context.Background(), access.ActorRef{ID: "usr-1", Type: "user"}, inv, access.InvitationAccepted,
		access.WithResponseMetadata(map[string]any{"source": "email"}))
	require.NoError(t, err)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, access.ActivityEventInvitationAccepted, events[0].EventType)
	assert.Equal(t, "usr-1", events[0].ProfileID)
	assert.Equal(t, "Future of Go", events[0].Metadata["panel_title"])
	assert.Equal(t, "email", events[0].Metadata["source"])
	assert.False(t, events[0].OccurredAt.IsZero())
}
