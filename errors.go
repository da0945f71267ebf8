package access

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeNotAuthenticated  = "access_not_authenticated"
	TextCodeProfileNotFound   = "access_profile_not_found"
	TextCodeProcedureNotFound = "access_procedure_not_found"
	TextCodeSchemaNotMigrated = "access_schema_not_migrated"
	TextCodeNotAdmin          = "access_not_admin"
	TextCodeRemoteFailure     = "access_remote_failure"
	TextCodePasswordMismatch  = "access_password_mismatch"
	TextCodeInvalidResponse   = "access_invalid_invitation_response"
	TextCodeInvitationClosed  = "access_invitation_closed"
	TextCodeTokenExpired      = "access_token_expired"
	TextCodeTokenMalformed    = "access_token_malformed"
)

// ErrNotAuthenticated is returned when an operation requires a current
// identity and none is present.
var ErrNotAuthenticated = errors.New("no authenticated identity", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrProfileNotFound is returned when no profile row exists for an identity.
var ErrProfileNotFound = errors.New("profile not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProfileNotFound).
	WithCode(errors.CodeNotFound)

// ErrProcedureNotFound is returned when a remote procedure is not deployed
// in this environment. Write strategies treat it as "try the next path".
var ErrProcedureNotFound = errors.New("remote procedure not deployed", errors.CategoryNotFound).
	WithTextCode(TextCodeProcedureNotFound).
	WithCode(errors.CodeNotFound)

// ErrSchemaNotMigrated signals the admin column migration has not run yet.
// It triggers the allowlist fallback and is never surfaced to callers.
var ErrSchemaNotMigrated = errors.New("admin column not migrated", errors.CategoryOperation).
	WithTextCode(TextCodeSchemaNotMigrated).
	WithCode(errors.CodeInternal)

// ErrNotAdmin is returned when a privileged write is attempted by a caller
// without administrator rights.
var ErrNotAdmin = errors.New("caller is not an administrator", errors.CategoryAuthz).
	WithTextCode(TextCodeNotAdmin).
	WithCode(errors.CodeForbidden)

// ErrRemoteFailure wraps backend calls that failed for reasons other than
// "not found" or "not migrated".
var ErrRemoteFailure = errors.New("backend call failed", errors.CategoryInternal).
	WithTextCode(TextCodeRemoteFailure).
	WithCode(errors.CodeInternal)

// ErrPasswordMismatch is returned when password verification fails.
var ErrPasswordMismatch = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidInvitationResponse is returned for a status change an invitation
// does not allow.
var ErrInvalidInvitationResponse = errors.New("invalid invitation response", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidResponse).
	WithCode(errors.CodeBadRequest)

// ErrInvitationClosed is returned when responding to an invitation that
// already reached a terminal status.
var ErrInvitationClosed = errors.New("invitation already responded to", errors.CategoryConflict).
	WithTextCode(TextCodeInvitationClosed).
	WithCode(errors.CodeConflict)

// ErrTokenExpired is returned for hosted-backend tokens past their expiry.
var ErrTokenExpired = errors.New("access token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that cannot be parsed or verified.
var ErrTokenMalformed = errors.New("access token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// IsProcedureMissing reports whether err means the remote procedure is not
// deployed, as opposed to a failed call.
func IsProcedureMissing(err error) bool {
	return errors.Is(err, ErrProcedureNotFound)
}

// IsSchemaNotMigrated reports whether err signals a missing admin column.
func IsSchemaNotMigrated(err error) bool {
	return errors.Is(err, ErrSchemaNotMigrated)
}

// UserMessage extracts a user-presentable message from an error, preferring
// rich error messages over raw Error() strings.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}

	return err.Error()
}
