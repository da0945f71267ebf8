package access

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
)

// ProfilesTable and AdminColumn locate the admin flag in the backend schema.
const (
	ProfilesTable = "profiles"
	AdminColumn   = "is_admin"
)

// Resolution is the answer the resolver produces for one identity. The zero
// value is the universal safe fallback: empty profile, not admin.
type Resolution struct {
	Profile *Profile
	Admin   bool
}

// Resolver answers "is the current identity an administrator?" and supplies
// the full profile.
//
// Precedence, each step only reached when the prior one produced no answer:
//
//  1. no identity, or the profile fetch fails → not admin, empty profile
//  2. admin column not migrated yet → allowlist membership of the profile
//     email, case sensitive
//  3. admin column exists → its boolean value; null is false, never true
//
// Read errors are swallowed at each step: authorization resolution degrades
// to least privilege instead of failing the caller.
type Resolver struct {
	backend   Backend
	session   *SessionStore
	allowlist *AdminAllowlist
	logger    Logger
	activity  ActivitySink
	timeout   time.Duration

	mu             sync.Mutex
	probed         bool
	hasAdminColumn bool
	cache          map[string]*Resolution
	inflight       map[string]*inflightResolution
}

type inflightResolution struct {
	done chan struct{}
	res  *Resolution
}

// ResolverOption customizes resolver construction.
type ResolverOption func(*Resolver)

// WithResolverLogger overrides the resolver logger.
func WithResolverLogger(logger Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResolverActivitySink sets the sink used for promote/revoke events.
func WithResolverActivitySink(sink ActivitySink) ResolverOption {
	return func(r *Resolver) {
		r.activity = normalizeActivitySink(sink)
	}
}

// WithResolveTimeout bounds every backend call made during resolution. When
// the bound is hit the resolver fails closed to not-admin rather than
// keeping guards in LOADING forever.
func WithResolveTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewResolver builds a resolver bound to the session store.
func NewResolver(backend Backend, session *SessionStore, allowlist *AdminAllowlist, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		backend:   backend,
		session:   session,
		allowlist: allowlist,
		logger:    defLogger{},
		activity:  noopActivitySink{},
		timeout:   5 * time.Second,
		cache:     map[string]*Resolution{},
		inflight:  map[string]*inflightResolution{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Resolve returns the resolution for the current identity. It never returns
// nil and never fails: all error paths collapse into the least-privileged
// answer.
func (r *Resolver) Resolve(ctx context.Context) *Resolution {
	identity, ok := r.session.CurrentIdentity()
	if !ok {
		return &Resolution{}
	}
	return r.resolveIdentity(ctx, identity)
}

// IsAdmin is the boolean shortcut over Resolve.
func (r *Resolver) IsAdmin(ctx context.Context) bool {
	return r.Resolve(ctx).Admin
}

// CurrentProfile returns the resolved profile, which may be nil when the
// identity has no profile row.
func (r *Resolver) CurrentProfile(ctx context.Context) *Profile {
	return r.Resolve(ctx).Profile
}

// InvalidateIdentity drops the memoized resolution for one identity, e.g.
// after a profile update or an admin grant.
func (r *Resolver) InvalidateIdentity(id string) {
	r.mu.Lock()
	delete(r.cache, id)
	r.mu.Unlock()
}

// Reset clears memoized resolutions and the schema probe. Test isolation
// hook.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.cache = map[string]*Resolution{}
	r.probed = false
	r.hasAdminColumn = false
	r.mu.Unlock()
}

// resolveIdentity memoizes per identity id and coalesces concurrent callers
// so a burst of guard mounts issues a single profile fetch.
func (r *Resolver) resolveIdentity(ctx context.Context, identity Identity) *Resolution {
	id := identity.ID()

	r.mu.Lock()
	if res, ok := r.cache[id]; ok {
		r.mu.Unlock()
		return res
	}
	if fl, ok := r.inflight[id]; ok {
		r.mu.Unlock()
		<-fl.done
		return fl.res
	}
	fl := &inflightResolution{done: make(chan struct{})}
	r.inflight[id] = fl
	r.mu.Unlock()

	res := r.fetchResolution(ctx, identity)

	r.mu.Lock()
	delete(r.inflight, id)
	// Memoize only if the identity is still current: a result arriving after
	// sign-out must not resurrect admin status for a later session.
	if cur, ok := r.session.CurrentIdentity(); ok && cur.ID() == id {
		r.cache[id] = res
	}
	r.mu.Unlock()

	fl.res = res
	close(fl.done)
	return res
}

func (r *Resolver) fetchResolution(ctx context.Context, identity Identity) *Resolution {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	profile, err := r.backend.FetchProfile(ctx, identity.ID())
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			r.logger.Warn("profile fetch for %s failed, resolving to not-admin: %v", identity.ID(), err)
		}
		return &Resolution{}
	}

	hasColumn, known := r.adminColumnPresent(ctx)
	if !known || !hasColumn {
		return &Resolution{
			Profile: profile,
			Admin:   r.allowlist.Contains(profile.Email),
		}
	}

	return &Resolution{
		Profile: profile,
		Admin:   profile.AdminFlag(),
	}
}

// adminColumnPresent probes the schema once per process. Probe failures are
// not cached so a transient backend hiccup does not pin the fallback for the
// process lifetime.
func (r *Resolver) adminColumnPresent(ctx context.Context) (present, known bool) {
	r.mu.Lock()
	if r.probed {
		present := r.hasAdminColumn
		r.mu.Unlock()
		return present, true
	}
	r.mu.Unlock()

	has, err := r.backend.SchemaHasColumn(ctx, ProfilesTable, AdminColumn)
	if err != nil {
		r.logger.Warn("schema probe failed, using allowlist fallback: %v", err)
		return false, false
	}

	r.mu.Lock()
	r.probed = true
	r.hasAdminColumn = has
	r.mu.Unlock()
	return has, true
}

// UpdateProfile merges the provided fields into the current identity's
// profile. Unlike reads, write failures surface to the caller. No retry;
// re-invoke on failure.
func (r *Resolver) UpdateProfile(ctx context.Context, patch ProfilePatch) (*Profile, error) {
	identity, ok := r.session.CurrentIdentity()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	// Privilege changes only travel through PromoteToAdmin/RevokeAdmin.
	patch.IsAdmin = nil

	if err := patch.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid profile fields")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	updated, err := r.backend.UpdateProfile(ctx, identity.ID(), patch)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "profile update rejected by backend")
	}

	r.InvalidateIdentity(identity.ID())
	return updated, nil
}

// PromoteToAdmin grants administrator rights to targetID. Fails closed:
// returns false when the caller is not an admin, when the admin column does
// not exist yet, or when every write path fails. No write is issued for an
// unauthorized caller.
func (r *Resolver) PromoteToAdmin(ctx context.Context, targetID string) bool {
	return r.setAdminFlag(ctx, targetID, true)
}

// RevokeAdmin removes administrator rights from targetID under the same
// fail-closed rules as PromoteToAdmin.
func (r *Resolver) RevokeAdmin(ctx context.Context, targetID string) bool {
	return r.setAdminFlag(ctx, targetID, false)
}

func (r *Resolver) setAdminFlag(ctx context.Context, targetID string, admin bool) bool {
	caller, ok := r.session.CurrentIdentity()
	if !ok || !r.IsAdmin(ctx) {
		r.logger.Warn("admin flag change for %s rejected, caller is not an administrator", targetID)
		return false
	}

	if present, known := r.adminColumnPresent(ctx); !known || !present {
		r.logger.Warn("admin flag change for %s rejected, admin column not migrated", targetID)
		return false
	}

	procedure := "promote_to_admin"
	event := ActivityEventAdminPromoted
	if !admin {
		procedure = "revoke_admin"
		event = ActivityEventAdminRevoked
	}

	flag := admin
	strategies := []writeStrategy{
		{
			name: "procedure:" + procedure,
			apply: func(ctx context.Context) error {
				_, err := r.backend.CallProcedure(ctx, procedure, map[string]any{
					"user_id": targetID,
				})
				return err
			},
		},
		{
			name: "direct:" + AdminColumn,
			apply: func(ctx context.Context) error {
				_, err := r.backend.UpdateProfile(ctx, targetID, ProfilePatch{IsAdmin: &flag})
				return err
			},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if !runWriteStrategies(ctx, r.logger, strategies) {
		return false
	}

	r.InvalidateIdentity(targetID)

	if err := r.activity.Record(ctx, ActivityEvent{
		EventType: event,
		Actor:     ActorRef{ID: caller.ID(), Type: "user"},
		ProfileID: targetID,
	}); err != nil {
		r.logger.Warn("activity sink record error: %v", err)
	}

	return true
}
