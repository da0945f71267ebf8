package access

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of the authenticated principal
type Identity interface {
	ID() string
	Email() string
	DisplayName() string
	AvatarURL() string
}

// IdentitySource is the slice of the backend the SessionStore needs: the
// current principal and a way to hear about sign-in/sign-out events.
type IdentitySource interface {
	CurrentIdentity(ctx context.Context) (Identity, error)
	OnAuthChange(fn func(Identity)) (unsubscribe func())
}

// Backend is the hosted database-as-a-service collaborator. The access core
// consumes this interface; BunBackend is the bundled implementation.
type Backend interface {
	IdentitySource

	FetchProfile(ctx context.Context, id string) (*Profile, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*Profile, error)

	// SchemaHasColumn probes migration state, e.g. whether profiles.is_admin
	// exists yet in this deployment.
	SchemaHasColumn(ctx context.Context, table, column string) (bool, error)

	// CallProcedure invokes a named remote procedure. An undeployed procedure
	// returns ErrProcedureNotFound, distinct from authorization or data errors.
	CallProcedure(ctx context.Context, name string, args map[string]any) (map[string]any, error)

	DeleteAccount(ctx context.Context, password string) error
	InvalidateAllSessions(ctx context.Context) error
}

// ActionResult is the structured outcome of account-wide write operations.
// Lifecycle actions never panic or propagate errors past this shape.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Config holds access options
type Config interface {
	GetAdminAllowlist() []string
	GetResolveTimeout() time.Duration
	GetLoginRoute() string
	GetMemberHomeRoute() string
	GetAppHomeRoute() string
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
	GetDeleteConfirmationPhrase() string
}

// NewIdentity builds a plain Identity value.
func NewIdentity(id, email, displayName, avatarURL string) Identity {
	return identityRecord{
		id:          id,
		email:       email,
		displayName: displayName,
		avatarURL:   avatarURL,
	}
}

type identityRecord struct {
	id          string
	email       string
	displayName string
	avatarURL   string
}

func (i identityRecord) ID() string          { return i.id }
func (i identityRecord) Email() string       { return i.email }
func (i identityRecord) DisplayName() string { return i.displayName }
func (i identityRecord) AvatarURL() string   { return i.avatarURL }

var _ Identity = identityRecord{}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCESS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCESS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCESS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCESS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
