package access

import (
	"context"
	"sync"
)

// GuardState is the render decision of a guard.
type GuardState int

const (
	// GuardLoading means neither children nor a redirect may be emitted yet.
	GuardLoading GuardState = iota
	// GuardAllowed means the guarded content may render.
	GuardAllowed
	// GuardDenied means the visitor is redirected (or shown nothing for
	// render gates).
	GuardDenied
)

func (s GuardState) String() string {
	switch s {
	case GuardAllowed:
		return "allowed"
	case GuardDenied:
		return "denied"
	default:
		return "loading"
	}
}

// GuardDecision is a guard state plus where to send a denied visitor.
type GuardDecision struct {
	State GuardState
	// RedirectTo is empty for render gates, which deny by rendering nothing.
	RedirectTo string
	// RememberLocation asks the caller to stash the originally requested
	// location so a later sign-in can return to it.
	RememberLocation bool
}

type guardSnapshot struct {
	identity Identity
	signedIn bool
	admin    bool
}

// Guard is a three-state route guard: LOADING until the session store and,
// for admin-aware variants, the resolver have answered; then ALLOWED or
// DENIED. Re-evaluation is subscription driven, never polled, and content
// is never optimistically allowed while loading.
type Guard struct {
	name       string
	session    *SessionStore
	resolver   *Resolver
	needsAdmin bool
	decide     func(guardSnapshot) GuardDecision
	logger     Logger

	mu       sync.Mutex
	decision GuardDecision
	onChange func(GuardDecision)
	unsub    func()
}

// RequireAuth allows signed-in visitors and redirects everyone else to the
// login route, remembering the requested location.
func RequireAuth(session *SessionStore, cfg Config) *Guard {
	return newGuard("require-auth", session, nil, false, func(snap guardSnapshot) GuardDecision {
		if snap.signedIn {
			return GuardDecision{State: GuardAllowed}
		}
		return GuardDecision{
			State:            GuardDenied,
			RedirectTo:       cfg.GetLoginRoute(),
			RememberLocation: true,
		}
	})
}

// RequireAdmin allows administrators. Anonymous visitors go to login with
// the location remembered; signed-in non-admins go to the member home, not
// login.
func RequireAdmin(session *SessionStore, resolver *Resolver, cfg Config) *Guard {
	return newGuard("require-admin", session, resolver, true, func(snap guardSnapshot) GuardDecision {
		if !snap.signedIn {
			return GuardDecision{
				State:            GuardDenied,
				RedirectTo:       cfg.GetLoginRoute(),
				RememberLocation: true,
			}
		}
		if !snap.admin {
			return GuardDecision{
				State:      GuardDenied,
				RedirectTo: cfg.GetMemberHomeRoute(),
			}
		}
		return GuardDecision{State: GuardAllowed}
	})
}

// RedirectIfAuthenticated allows anonymous visitors (login/register pages)
// and sends signed-in ones to the authenticated home.
func RedirectIfAuthenticated(session *SessionStore, cfg Config) *Guard {
	return newGuard("redirect-if-authenticated", session, nil, false, func(snap guardSnapshot) GuardDecision {
		if !snap.signedIn {
			return GuardDecision{State: GuardAllowed}
		}
		return GuardDecision{
			State:      GuardDenied,
			RedirectTo: cfg.GetAppHomeRoute(),
		}
	})
}

// AdminOnly is the render gate variant: non-admins get nothing rendered and
// no navigation happens.
func AdminOnly(session *SessionStore, resolver *Resolver) *Guard {
	return newGuard("admin-only", session, resolver, true, func(snap guardSnapshot) GuardDecision {
		if snap.signedIn && snap.admin {
			return GuardDecision{State: GuardAllowed}
		}
		return GuardDecision{State: GuardDenied}
	})
}

func newGuard(name string, session *SessionStore, resolver *Resolver, needsAdmin bool, decide func(guardSnapshot) GuardDecision) *Guard {
	return &Guard{
		name:       name,
		session:    session,
		resolver:   resolver,
		needsAdmin: needsAdmin,
		decide:     decide,
		logger:     defLogger{},
		decision:   GuardDecision{State: GuardLoading},
	}
}

// Evaluate computes the decision for the current session state. Admin-aware
// guards block on the (coalesced, bounded) resolver call; a timeout there
// fails closed to DENIED through the resolver's not-admin fallback.
func (g *Guard) Evaluate(ctx context.Context) GuardDecision {
	for {
		if g.session.IsLoading() {
			return GuardDecision{State: GuardLoading}
		}

		gen := g.session.Generation()
		identity, signedIn := g.session.CurrentIdentity()

		snap := guardSnapshot{identity: identity, signedIn: signedIn}
		if g.needsAdmin && signedIn {
			snap.admin = g.resolver.IsAdmin(ctx)
		}

		// The identity moved while we were resolving; the stale answer must
		// not decide for the new identity.
		if g.session.Generation() != gen {
			continue
		}

		return g.decide(snap)
	}
}

// Mount evaluates once and subscribes to session changes so the guard
// re-evaluates on every identity or loading transition.
func (g *Guard) Mount(ctx context.Context) GuardDecision {
	g.unsub = g.session.Subscribe(func() {
		g.refresh(context.Background())
	})
	return g.refresh(ctx)
}

// Unmount drops the session subscription.
func (g *Guard) Unmount() {
	if g.unsub != nil {
		g.unsub()
		g.unsub = nil
	}
}

// State returns the last computed decision state.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision.State
}

// Decision returns the last computed decision.
func (g *Guard) Decision() GuardDecision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// OnChange registers a callback invoked after every re-evaluation.
func (g *Guard) OnChange(fn func(GuardDecision)) {
	g.mu.Lock()
	g.onChange = fn
	g.mu.Unlock()
}

func (g *Guard) refresh(ctx context.Context) GuardDecision {
	decision := g.Evaluate(ctx)

	g.mu.Lock()
	g.decision = decision
	cb := g.onChange
	g.mu.Unlock()

	if cb != nil {
		cb(decision)
	}
	return decision
}
