package access

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProcedureFunc is a deployed remote procedure. The registry stands in for
// the hosted backend's RPC surface; a name with no registration behaves like
// an undeployed procedure.
type ProcedureFunc func(ctx context.Context, tx bun.IDB, args map[string]any) (map[string]any, error)

// BunBackend implements Backend on top of a bun database. It keeps the
// signed-in identity in memory and notifies subscribers on every sign-in and
// sign-out, which is what drives the SessionStore.
type BunBackend struct {
	db         *bun.DB
	repos      RepositoryManager
	logger     Logger
	procedures map[string]ProcedureFunc
	now        func() time.Time

	mu          sync.RWMutex
	current     Identity
	lastSeen    time.Time
	subscribers map[int]func(Identity)
	nextSub     int
}

var _ Backend = (*BunBackend)(nil)

// BackendOption customizes backend construction.
type BackendOption func(*BunBackend)

// WithBackendLogger overrides the backend logger.
func WithBackendLogger(logger Logger) BackendOption {
	return func(b *BunBackend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBackendClock injects a custom clock (useful for tests).
func WithBackendClock(clock func() time.Time) BackendOption {
	return func(b *BunBackend) {
		if clock != nil {
			b.now = clock
		}
	}
}

// WithProcedure deploys a named procedure into the registry.
func WithProcedure(name string, fn ProcedureFunc) BackendOption {
	return func(b *BunBackend) {
		if fn != nil {
			b.procedures[name] = fn
		}
	}
}

// WithoutProcedures starts the backend with an empty procedure registry, the
// state of a deployment where no RPC has shipped yet.
func WithoutProcedures() BackendOption {
	return func(b *BunBackend) {
		b.procedures = map[string]ProcedureFunc{}
	}
}

// NewBunBackend builds the backend. The admin procedures ship deployed by
// default; use WithoutProcedures to model an environment without them.
func NewBunBackend(db *bun.DB, repos RepositoryManager, opts ...BackendOption) *BunBackend {
	b := &BunBackend{
		db:          db,
		repos:       repos,
		logger:      defLogger{},
		procedures:  map[string]ProcedureFunc{},
		now:         time.Now,
		subscribers: map[int]func(Identity){},
	}

	b.procedures["promote_to_admin"] = b.adminFlagProcedure(true)
	b.procedures["revoke_admin"] = b.adminFlagProcedure(false)

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	return b
}

// CurrentIdentity returns the signed-in identity, or nil with no error when
// nobody is signed in. An idle timeout configured in the profile's settings
// signs the identity out on read.
func (b *BunBackend) CurrentIdentity(ctx context.Context) (Identity, error) {
	b.mu.RLock()
	identity := b.current
	lastSeen := b.lastSeen
	b.mu.RUnlock()

	if identity == nil {
		return nil, nil
	}

	if b.idleTimedOut(ctx, identity, lastSeen) {
		b.logger.Info("session for %s idle timed out, signing out", identity.ID())
		b.setCurrent(nil)
		return nil, nil
	}

	b.mu.Lock()
	b.lastSeen = b.now()
	b.mu.Unlock()

	return identity, nil
}

// OnAuthChange registers fn to run after every sign-in and sign-out. The
// identity argument is nil on sign-out.
func (b *BunBackend) OnAuthChange(fn func(Identity)) func() {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subscribers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

// SignIn verifies the password against the stored hash, records a device
// session and publishes the new identity.
func (b *BunBackend) SignIn(ctx context.Context, email, password string) (Identity, error) {
	profile, err := b.repos.Profiles().GetByIdentifier(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrProfileNotFound.WithMetadata(map[string]any{
				"identifier": email,
			})
		}
		return nil, err
	}

	if err := ComparePasswordAndHash(password, profile.PasswordHash); err != nil {
		return nil, err
	}

	session := &SessionRecord{
		ID:        uuid.New(),
		ProfileID: profile.ID,
	}
	if _, err := b.repos.Sessions().Create(ctx, session); err != nil {
		return nil, err
	}

	identity := identityFromProfile(profile)
	b.setCurrent(identity)

	return identity, nil
}

// SignOut clears the signed-in identity and publishes the change.
func (b *BunBackend) SignOut(ctx context.Context) error {
	b.setCurrent(nil)
	return nil
}

func (b *BunBackend) FetchProfile(ctx context.Context, id string) (*Profile, error) {
	profile, err := b.repos.Profiles().GetByIdentifier(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrProfileNotFound.WithMetadata(map[string]any{
				"identifier": id,
			})
		}
		return nil, err
	}
	return profile, nil
}

func (b *BunBackend) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*Profile, error) {
	profileID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrProfileNotFound.WithMetadata(map[string]any{
			"identifier": id,
		})
	}

	if patch.IsAdmin != nil {
		if has, err := b.SchemaHasColumn(ctx, ProfilesTable, AdminColumn); err == nil && !has {
			return nil, ErrSchemaNotMigrated
		}
	}

	updated, err := b.repos.Profiles().ApplyPatch(ctx, profileID, patch)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrProfileNotFound.WithMetadata(map[string]any{
				"identifier": id,
			})
		}
		return nil, err
	}

	return updated, nil
}

// SchemaHasColumn probes the live schema through sqlite's table_info pragma.
func (b *BunBackend) SchemaHasColumn(ctx context.Context, table, column string) (bool, error) {
	return schemaHasColumnTx(ctx, b.db, table, column)
}

// schemaHasColumnTx probes through the given handle. Callers already inside a
// transaction must pass it here; probing through the pool while a transaction
// holds its connection blocks on pools as small as one connection.
func schemaHasColumnTx(ctx context.Context, idb bun.IDB, table, column string) (bool, error) {
	var count int
	err := idb.NewSelect().
		ColumnExpr("COUNT(*)").
		TableExpr("pragma_table_info(?)", table).
		Where("name = ?", column).
		Scan(ctx, &count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CallProcedure runs a deployed procedure inside a transaction. Unknown names
// return ErrProcedureNotFound so callers can fall back to another write path.
func (b *BunBackend) CallProcedure(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	b.mu.RLock()
	fn, ok := b.procedures[name]
	b.mu.RUnlock()

	if !ok {
		return nil, ErrProcedureNotFound.WithMetadata(map[string]any{
			"procedure": name,
		})
	}

	var result map[string]any
	err := b.repos.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		out, err := fn(ctx, tx, args)
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteAccount verifies the password, soft deletes the profile and revokes
// every session, all in one transaction. The identity is published as signed
// out only after the transaction commits.
func (b *BunBackend) DeleteAccount(ctx context.Context, password string) error {
	b.mu.RLock()
	identity := b.current
	b.mu.RUnlock()

	if identity == nil {
		return ErrNotAuthenticated
	}

	profile, err := b.FetchProfile(ctx, identity.ID())
	if err != nil {
		return err
	}

	if err := ComparePasswordAndHash(password, profile.PasswordHash); err != nil {
		return err
	}

	err = b.repos.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model(profile).
			WherePK().
			Exec(ctx); err != nil {
			return err
		}

		return b.revokeSessionsTx(ctx, tx, profile.ID)
	})
	if err != nil {
		return err
	}

	b.setCurrent(nil)
	return nil
}

// InvalidateAllSessions revokes every active session for the signed-in
// identity, including the one making the call.
func (b *BunBackend) InvalidateAllSessions(ctx context.Context) error {
	b.mu.RLock()
	identity := b.current
	b.mu.RUnlock()

	if identity == nil {
		return ErrNotAuthenticated
	}

	profileID, err := uuid.Parse(identity.ID())
	if err != nil {
		return ErrProfileNotFound.WithMetadata(map[string]any{
			"identifier": identity.ID(),
		})
	}

	if err := b.revokeSessionsTx(ctx, b.db, profileID); err != nil {
		return err
	}

	// the caller's own session is revoked too; sign out and notify
	b.setCurrent(nil)
	return nil
}

func (b *BunBackend) revokeSessionsTx(ctx context.Context, tx bun.IDB, profileID uuid.UUID) error {
	revokedAt := b.now()
	_, err := tx.NewUpdate().
		Model((*SessionRecord)(nil)).
		Set("revoked_at = ?", revokedAt).
		Where("profile_id = ?", profileID).
		Where("revoked_at IS NULL").
		Exec(ctx)
	return err
}

func (b *BunBackend) adminFlagProcedure(admin bool) ProcedureFunc {
	return func(ctx context.Context, tx bun.IDB, args map[string]any) (map[string]any, error) {
		raw, ok := args["user_id"].(string)
		if !ok {
			return nil, ErrProfileNotFound.WithMetadata(map[string]any{
				"argument": "user_id",
			})
		}

		profileID, err := uuid.Parse(raw)
		if err != nil {
			return nil, ErrProfileNotFound.WithMetadata(map[string]any{
				"identifier": raw,
			})
		}

		if has, err := schemaHasColumnTx(ctx, tx, ProfilesTable, AdminColumn); err != nil {
			return nil, err
		} else if !has {
			return nil, ErrSchemaNotMigrated
		}

		if err := b.repos.Profiles().SetAdminFlagTx(ctx, tx, profileID, admin); err != nil {
			return nil, err
		}

		return map[string]any{
			"user_id":  raw,
			"is_admin": admin,
		}, nil
	}
}

func (b *BunBackend) idleTimedOut(ctx context.Context, identity Identity, lastSeen time.Time) bool {
	if lastSeen.IsZero() {
		return false
	}

	profileID, err := uuid.Parse(identity.ID())
	if err != nil {
		return false
	}

	settings, err := b.repos.Settings().GetForProfile(ctx, profileID)
	if err != nil {
		return false
	}

	return settings.IdleTimeoutExceeded(lastSeen, b.now())
}

func (b *BunBackend) setCurrent(identity Identity) {
	b.mu.Lock()
	b.current = identity
	b.lastSeen = b.now()
	subs := make([]func(Identity), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(identity)
	}
}

func identityFromProfile(p *Profile) Identity {
	if p == nil {
		return nil
	}
	return NewIdentity(p.ID.String(), p.Email, p.DisplayName, p.AvatarURL)
}
