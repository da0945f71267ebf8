package access_test

import (
	"context"
	"testing"

	"github.com/panelpulse/go-access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDeleteAccountRequiresPassword(t *testing.T) {
	backend := new(MockBackend)
	backend.identity = access.NewIdentity("usr-1", "ana@example.com", "", "")
	store := startedStore(backend)
	lifecycle := access.NewAccountLifecycle(backend, store, testConfig{})

	result := lifecycle.DeleteAccount(context.Background(), "  ", access.DefaultDeleteConfirmationPhrase)
	assert.False(t, result.Success)
	assert.Equal(t, "password is required", result.Message)

	backend.AssertNotCalled(t, "DeleteAccount", mock.Anything, mock.Anything)
}

func TestDeleteAccountRequiresExactConfirmationPhrase(t *testing.T) {
	backend := new(MockBackend)
	backend.identity = access.NewIdentity("usr-1", "ana@example.com", "", "")
	store := startedStore(backend)
	lifecycle := access.NewAccountLifecycle(backend, store, testConfig{})

	result := lifecycle.DeleteAccount(context.Background(), "secret", "Delete My Account")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, access.DefaultDeleteConfirmationPhrase)

	backend.AssertNotCalled(t, "DeleteAccount", mock.Anything, mock.Anything)

	_, ok := store.CurrentIdentity()
	assert.True(t, ok, "a failed attempt must leave the session untouched")
}

func TestDeleteAccountWrongPasswordKeepsSession(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	backend.identity = access.NewIdentity("usr-1", "ana@example.com", "", "")
	store := startedStore(backend)
	lifecycle := access.NewAccountLifecycle(backend, store, testConfig{})

	backend.On("DeleteAccount", mock.Anything, "wrong").
		Return(access.ErrPasswordMismatch).Once()

	result := lifecycle.DeleteAccount(ctx, "wrong", access.DefaultDeleteConfirmationPhrase)
	assert.False(t, result.Success)
	assert.Equal(t, "password does not match", result.Message)

	_, ok := store.CurrentIdentity()
	assert.True(t, ok)
}

func TestDeleteAccountSuccess(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	backend.identity = access.NewIdentity("usr-1", "ana@example.com", "", "")
	store := startedStore(backend)
	sink := &capturingSink{}
	lifecycle := access.NewAccountLifecycle(backend, store, testConfig{},
		access.WithLifecycleActivitySink(sink))

	backend.On("DeleteAccount", mock.Anything, "secret").
		Return(nil).Once()

	result := lifecycle.DeleteAccount(ctx, "secret", access.DefaultDeleteConfirmationPhrase)
	assert.True(t, result.Success)

	_, ok := store.CurrentIdentity()
	assert.False(t, ok, "deletion must clear the session")

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, access.ActivityEventAccountDeleted, events[0].EventType)
	assert.Equal(t, "usr-1", events[0].ProfileID)
}

func TestDeleteAccountWithCustomPhrase(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	backend.identity = access.NewIdentity("usr-1", "ana@example.com", "", "")
	store := startedStore(backend)
	lifecycle := access.NewAccountLifecycle(backend, store, testConfig{phrase: "borrar mi cuenta"})

	backend.On("DeleteAccount", mock.Anything, "secret").Return(nil).Once()

	result := lifecycle.DeleteAccount(ctx, "secret", access.DefaultDeleteConfirmationPhrase)
	assert.False(t, result.Success)

	result = lifecycle.DeleteAccount(ctx, "secret", "borrar mi cuenta")
	assert.True(t, result.Success)
}

func TestDeleteAccountRequiresSession(t *testing.T) {
	backend := new(MockBackend)
	store := startedStore(backend)
	lifecycle := access.NewAccountLifecycle(backend, store, testConfig{})

	result := lifecycle.DeleteAccount(context.Background(), "secret", access.DefaultDeleteConfirmationPhrase)
	assert.False(t, result.Success)

	backend.AssertNotCalled(t, "DeleteAccount", mock.Anything, mock.Anything)
}

func TestSignOutAllDevicesSuccess(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	backend.identity = access.NewIdentity("usr-1", "ana@example.com", "", "")
	store := startedStore(backend)
	sink := &capturingSink{}
	lifecycle := access.NewAccountLifecycle(backend, store, testConfig{},
		access.WithLifecycleActivitySink(sink))

	backend.On("InvalidateAllSessions", mock.Anything).Return(nil).Once()

	result := lifecycle.SignOutAllDevices(ctx)
	assert.True(t, result.Success)

	_, ok := store.CurrentIdentity()
	assert.False(t, ok, "the caller's own session is invalidated too")

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, access.ActivityEventSessionsInvalidated, events[0].EventType)
}

func TestSignOutAllDevicesFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	backend.identity = access.NewIdentity("usr-1", "ana@example.com", "", "")
	store := startedStore(backend)
	lifecycle := access.NewAccountLifecycle(backend, store, testConfig{})

	backend.On("InvalidateAllSessions", mock.Anything).
		Return(access.ErrRemoteFailure).Once()

	result := lifecycle.SignOutAllDevices(ctx)
	assert.False(t, result.Success)
	assert.Equal(t, "backend call failed", result.Message)

	_, ok := store.CurrentIdentity()
	assert.True(t, ok)
}
