package access_test

import (
	"context"
	"sync"
	"time"

	"github.com/panelpulse/go-access"
	"github.com/stretchr/testify/mock"
)

// fakeSource is a controllable IdentitySource. It publishes auth changes the
// way the real backend does: after state is committed.
type fakeSource struct {
	mu          sync.Mutex
	identity    access.Identity
	fetchErr    error
	fetchCount  int
	subscribers []func(access.Identity)
}

func (f *fakeSource) CurrentIdentity(ctx context.Context) (access.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCount++
	return f.identity, f.fetchErr
}

func (f *fakeSource) OnAuthChange(fn func(access.Identity)) func() {
	f.mu.Lock()
	f.subscribers = append(f.subscribers, fn)
	idx := len(f.subscribers) - 1
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		f.subscribers[idx] = nil
		f.mu.Unlock()
	}
}

func (f *fakeSource) publish(identity access.Identity) {
	f.mu.Lock()
	f.identity = identity
	subs := make([]func(access.Identity), 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		if fn != nil {
			subs = append(subs, fn)
		}
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(identity)
	}
}

// MockBackend implements access.Backend
type MockBackend struct {
	mock.Mock
	fakeSource
}

func (m *MockBackend) FetchProfile(ctx context.Context, id string) (*access.Profile, error) {
	args := m.Called(ctx, id)
	profile, _ := args.Get(0).(*access.Profile)
	return profile, args.Error(1)
}

func (m *MockBackend) UpdateProfile(ctx context.Context, id string, patch access.ProfilePatch) (*access.Profile, error) {
	args := m.Called(ctx, id, patch)
	profile, _ := args.Get(0).(*access.Profile)
	return profile, args.Error(1)
}

func (m *MockBackend) SchemaHasColumn(ctx context.Context, table, column string) (bool, error) {
	args := m.Called(ctx, table, column)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) CallProcedure(ctx context.Context, name string, procArgs map[string]any) (map[string]any, error) {
	args := m.Called(ctx, name, procArgs)
	result, _ := args.Get(0).(map[string]any)
	return result, args.Error(1)
}

func (m *MockBackend) DeleteAccount(ctx context.Context, password string) error {
	args := m.Called(ctx, password)
	return args.Error(0)
}

func (m *MockBackend) InvalidateAllSessions(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type capturingSink struct {
	mu     sync.Mutex
	events []access.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt access.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) all() []access.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]access.ActivityEvent, len(c.events))
	copy(out, c.events)
	return out
}

type testConfig struct {
	allowlist []string
	timeout   time.Duration
	phrase    string
}

func (c testConfig) GetAdminAllowlist() []string {
	return c.allowlist
}

func (c testConfig) GetResolveTimeout() time.Duration {
	if c.timeout > 0 {
		return c.timeout
	}
	return 5 * time.Second
}

func (c testConfig) GetLoginRoute() string        { return "/login" }
func (c testConfig) GetMemberHomeRoute() string   { return "/dashboard" }
func (c testConfig) GetAppHomeRoute() string      { return "/app" }
func (c testConfig) GetRejectedRouteKey() string  { return "rejected_route" }
func (c testConfig) GetRejectedRouteDefault() string { return "/" }

func (c testConfig) GetDeleteConfirmationPhrase() string {
	if c.phrase != "" {
		return c.phrase
	}
	return access.DefaultDeleteConfirmationPhrase
}

// startedStore builds a session store over the source and runs the initial
// resolution so tests start in a settled state.
func startedStore(source access.IdentitySource) *access.SessionStore {
	store := access.NewSessionStore(source)
	store.Start(context.Background())
	return store
}
