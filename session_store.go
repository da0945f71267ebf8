package access

import (
	"context"
	"sync"
	"time"
)

// SessionStore is the single source of truth for the current identity. It is
// populated once at Start and on every auth-state-change notification from
// the backend. Guards subscribe to it rather than polling.
//
// The store always reaches a non-loading state: a failed identity fetch is
// treated as "no identity", never as an error the caller has to handle.
type SessionStore struct {
	source         IdentitySource
	logger         Logger
	initialTimeout time.Duration

	mu         sync.RWMutex
	identity   Identity
	loading    bool
	generation uint64
	listeners  map[int]func()
	nextListen int
	unsub      func()
	started    bool
}

// SessionStoreOption customizes store construction.
type SessionStoreOption func(*SessionStore)

// WithSessionLogger overrides the store logger.
func WithSessionLogger(logger Logger) SessionStoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInitialResolveTimeout bounds the identity fetch at Start.
func WithInitialResolveTimeout(d time.Duration) SessionStoreOption {
	return func(s *SessionStore) {
		if d > 0 {
			s.initialTimeout = d
		}
	}
}

// NewSessionStore builds a store bound to the given identity source. The
// store starts in the loading state until Start completes the first
// resolution.
func NewSessionStore(source IdentitySource, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		source:         source,
		logger:         defLogger{},
		initialTimeout: 5 * time.Second,
		loading:        true,
		listeners:      map[int]func(){},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Start performs the initial identity resolution and subscribes to
// auth-state changes for the lifetime of the store. Safe to call once;
// subsequent calls are no-ops.
func (s *SessionStore) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	// Subscribe before the initial fetch so a sign-in racing Start is not
	// lost between the two steps.
	s.unsub = s.source.OnAuthChange(func(identity Identity) {
		s.setIdentity(identity)
	})

	fetchCtx, cancel := context.WithTimeout(ctx, s.initialTimeout)
	defer cancel()

	identity, err := s.source.CurrentIdentity(fetchCtx)
	if err != nil {
		s.logger.Warn("initial identity fetch failed, treating as signed out: %v", err)
		identity = nil
	}

	s.mu.Lock()
	alreadyUpdated := s.generation > 0
	s.mu.Unlock()
	if alreadyUpdated {
		// An auth-change callback beat the initial fetch; its value wins.
		s.markLoaded()
		return
	}

	s.setIdentity(identity)
}

// Stop unsubscribes from auth-state changes.
func (s *SessionStore) Stop() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

// CurrentIdentity returns the latest known identity. It never blocks and
// never fails; absence is reported through the boolean.
func (s *SessionStore) CurrentIdentity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.identity != nil
}

// IsLoading is true until the first resolution completes.
func (s *SessionStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Generation increases every time the identity changes. Resolutions capture
// it before a network call and discard their result if it moved.
func (s *SessionStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Subscribe registers a listener invoked after every identity change, once
// the new state is visible to readers. Returns an unsubscribe function.
func (s *SessionStore) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextListen
	s.nextListen++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Invalidate clears the current identity, e.g. after account deletion or
// sign-out-everywhere.
func (s *SessionStore) Invalidate() {
	s.setIdentity(nil)
}

// Reset returns the store to its initial state. Test isolation hook; the
// auth-change subscription stays active.
func (s *SessionStore) Reset() {
	s.mu.Lock()
	s.identity = nil
	s.loading = true
	s.generation++
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (s *SessionStore) setIdentity(identity Identity) {
	s.mu.Lock()
	s.identity = identity
	s.loading = false
	s.generation++
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	// Listeners run after the state is committed so a guard re-evaluation
	// always reads the identity that triggered it.
	for _, fn := range listeners {
		fn()
	}
}

func (s *SessionStore) markLoaded() {
	s.mu.Lock()
	changed := s.loading
	s.loading = false
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn()
	}
}

// snapshotListeners must be called with the lock held.
func (s *SessionStore) snapshotListeners() []func() {
	out := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}
