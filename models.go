package access

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profile is the extended attribute record for an identity. The admin flag
// is a nullable column on purpose: a nil value means "unset or not yet
// migrated" and always resolves to not-admin.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string            `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName   string            `bun:"display_name" json:"display_name,omitempty"`
	Company       string            `bun:"company" json:"company,omitempty"`
	RoleTitle     string            `bun:"role_title" json:"role_title,omitempty"`
	Location      string            `bun:"location" json:"location,omitempty"`
	Bio           string            `bun:"bio" json:"bio,omitempty"`
	AvatarURL     string            `bun:"avatar_url" json:"avatar_url,omitempty"`
	SocialLinks   map[string]string `bun:"social_links,type:jsonb" json:"social_links,omitempty"`
	Expertise     []string          `bun:"expertise,type:jsonb" json:"expertise,omitempty"`
	Languages     []string          `bun:"languages,type:jsonb" json:"languages,omitempty"`
	IsAdmin       *bool             `bun:"is_admin" json:"is_admin,omitempty"`
	PasswordHash  string            `bun:"password_hash" json:"-"`
	CreatedAt     *time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time        `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time        `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AdminFlag reads the admin column, treating absence as false.
func (p *Profile) AdminFlag() bool {
	return p != nil && p.IsAdmin != nil && *p.IsAdmin
}

// ProfilePatch carries a partial profile update; nil fields are left
// untouched. IsAdmin is never accepted from user input, only the privileged
// write strategies set it.
type ProfilePatch struct {
	DisplayName *string           `json:"display_name,omitempty"`
	Company     *string           `json:"company,omitempty"`
	RoleTitle   *string           `json:"role_title,omitempty"`
	Location    *string           `json:"location,omitempty"`
	Bio         *string           `json:"bio,omitempty"`
	AvatarURL   *string           `json:"avatar_url,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
	Expertise   []string          `json:"expertise,omitempty"`
	Languages   []string          `json:"languages,omitempty"`
	IsAdmin     *bool             `json:"-"`
}

func (p ProfilePatch) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.DisplayName, validation.Length(0, 120)),
		validation.Field(&p.Bio, validation.Length(0, 2000)),
		validation.Field(&p.AvatarURL, is.URL),
	); err != nil {
		return err
	}

	for platform, link := range p.SocialLinks {
		if err := validation.Validate(link, validation.Required, is.URL); err != nil {
			return validation.Errors{platform: err}
		}
	}

	return nil
}

// IsEmpty reports whether the patch carries no fields at all.
func (p ProfilePatch) IsEmpty() bool {
	return p.DisplayName == nil &&
		p.Company == nil &&
		p.RoleTitle == nil &&
		p.Location == nil &&
		p.Bio == nil &&
		p.AvatarURL == nil &&
		p.SocialLinks == nil &&
		p.Expertise == nil &&
		p.Languages == nil &&
		p.IsAdmin == nil
}

// ApplyTo merges the provided fields into the profile record.
func (p ProfilePatch) ApplyTo(record *Profile) {
	if record == nil {
		return
	}

	if p.DisplayName != nil {
		record.DisplayName = *p.DisplayName
	}
	if p.Company != nil {
		record.Company = *p.Company
	}
	if p.RoleTitle != nil {
		record.RoleTitle = *p.RoleTitle
	}
	if p.Location != nil {
		record.Location = *p.Location
	}
	if p.Bio != nil {
		record.Bio = *p.Bio
	}
	if p.AvatarURL != nil {
		record.AvatarURL = *p.AvatarURL
	}
	if p.SocialLinks != nil {
		record.SocialLinks = p.SocialLinks
	}
	if p.Expertise != nil {
		record.Expertise = p.Expertise
	}
	if p.Languages != nil {
		record.Languages = p.Languages
	}
	if p.IsAdmin != nil {
		record.IsAdmin = p.IsAdmin
	}
}

// Theme is the UI theme preference
type Theme = string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Settings holds per-identity preferences. One record per profile, upserted.
type Settings struct {
	bun.BaseModel         `bun:"table:settings,alias:stg"`
	ID                    uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ProfileID             uuid.UUID  `bun:"profile_id,notnull,unique,type:uuid" json:"profile_id,omitempty"`
	Theme                 Theme      `bun:"theme,notnull,default:'light'" json:"theme,omitempty"`
	Locale                string     `bun:"locale" json:"locale,omitempty"`
	NotifyInvitations     bool       `bun:"notify_invitations" json:"notify_invitations"`
	NotifyPanelReminders  bool       `bun:"notify_panel_reminders" json:"notify_panel_reminders"`
	NotifyQuestions       bool       `bun:"notify_questions" json:"notify_questions"`
	ProfilePublic         bool       `bun:"profile_public" json:"profile_public"`
	ShowEmail             bool       `bun:"show_email" json:"show_email"`
	ShowCompany           bool       `bun:"show_company" json:"show_company"`
	TwoFactorEnabled      bool       `bun:"two_factor_enabled" json:"two_factor_enabled"`
	SessionTimeoutMinutes int        `bun:"session_timeout_minutes,default:60" json:"session_timeout_minutes,omitempty"`
	CreatedAt             *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt             *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Theme, validation.In(ThemeLight, ThemeDark)),
		validation.Field(&s.SessionTimeoutMinutes, validation.Min(0), validation.Max(24*60)),
	)
}

// IdleTimeoutExceeded reports whether lastActive is older than the configured
// session timeout. A zero timeout disables the check.
func (s *Settings) IdleTimeoutExceeded(lastActive, now time.Time) bool {
	if s == nil || s.SessionTimeoutMinutes <= 0 {
		return false
	}
	return now.Sub(lastActive) > time.Duration(s.SessionTimeoutMinutes)*time.Minute
}

// InvitationStatus is the invitation lifecycle status
type InvitationStatus = string

const (
	// InvitationPending awaits a response
	InvitationPending InvitationStatus = "pending"
	// InvitationAccepted is a terminal status
	InvitationAccepted InvitationStatus = "accepted"
	// InvitationRejected is a terminal status
	InvitationRejected InvitationStatus = "rejected"
)

// ValidInvitationStatus checks the status against the known set.
func ValidInvitationStatus(status InvitationStatus) bool {
	switch status {
	case InvitationPending, InvitationAccepted, InvitationRejected:
		return true
	default:
		return false
	}
}

// TerminalInvitationStatus reports whether the status is immutable.
func TerminalInvitationStatus(status InvitationStatus) bool {
	return status == InvitationAccepted || status == InvitationRejected
}

// Invitation is an offer for an identity to join a panel in a given role.
type Invitation struct {
	bun.BaseModel `bun:"table:invitations,alias:inv"`
	ID            uuid.UUID        `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	PanelID       uuid.UUID        `bun:"panel_id,notnull,type:uuid" json:"panel_id,omitempty"`
	PanelTitle    string           `bun:"panel_title,notnull" json:"panel_title,omitempty"`
	Email         string           `bun:"email,notnull" json:"email,omitempty"`
	RoleLabel     string           `bun:"role_label,notnull" json:"role_label,omitempty"`
	Status        InvitationStatus `bun:"status,notnull,default:'pending'" json:"status,omitempty"`
	PanelDate     *time.Time       `bun:"panel_date,nullzero" json:"panel_date,omitempty"`
	ModeratorName string           `bun:"moderator_name" json:"moderator_name,omitempty"`
	RespondedAt   *time.Time       `bun:"responded_at,nullzero" json:"responded_at,omitempty"`
	CreatedAt     *time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time       `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time       `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the default status for records created before the
// status column had a default.
func (i *Invitation) EnsureStatus() {
	if i != nil && i.Status == "" {
		i.Status = InvitationPending
	}
}

// PanelStatus is the panel lifecycle status
type PanelStatus = string

const (
	PanelDraft     PanelStatus = "draft"
	PanelActive    PanelStatus = "active"
	PanelCompleted PanelStatus = "completed"
	PanelArchived  PanelStatus = "archived"
)

// PanelRole is the viewer-relative role within a panel
type PanelRole = string

const (
	RoleModerator PanelRole = "moderator"
	RolePanelist  PanelRole = "panelist"
)

// Panel is a scheduling/collaboration unit.
type Panel struct {
	bun.BaseModel `bun:"table:panels,alias:pnl"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string      `bun:"title,notnull" json:"title,omitempty"`
	Description   string      `bun:"description" json:"description,omitempty"`
	Status        PanelStatus `bun:"status,notnull,default:'draft'" json:"status,omitempty"`
	OwnerID       uuid.UUID   `bun:"owner_id,notnull,type:uuid" json:"owner_id,omitempty"`
	ScheduledAt   *time.Time  `bun:"scheduled_at,nullzero" json:"scheduled_at,omitempty"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// PanelMembership binds a profile to a panel with a role.
type PanelMembership struct {
	bun.BaseModel `bun:"table:panel_members,alias:mbr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	PanelID       uuid.UUID  `bun:"panel_id,notnull,type:uuid" json:"panel_id,omitempty"`
	ProfileID     uuid.UUID  `bun:"profile_id,notnull,type:uuid" json:"profile_id,omitempty"`
	Role          PanelRole  `bun:"role,notnull" json:"role,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// PanelView is a panel annotated with the viewer's role. Role is relative to
// the viewer, not an intrinsic panel attribute.
type PanelView struct {
	Panel      *Panel    `json:"panel,omitempty"`
	ViewerRole PanelRole `json:"viewer_role,omitempty"`
}

// SessionRecord tracks an active device session; invalidate-all marks every
// row for a profile as revoked.
type SessionRecord struct {
	bun.BaseModel `bun:"table:auth_sessions,alias:sess"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ProfileID     uuid.UUID  `bun:"profile_id,notnull,type:uuid" json:"profile_id,omitempty"`
	UserAgent     string     `bun:"user_agent" json:"user_agent,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	LastSeenAt    *time.Time `bun:"last_seen_at,nullzero" json:"last_seen_at,omitempty"`
	RevokedAt     *time.Time `bun:"revoked_at,nullzero" json:"revoked_at,omitempty"`
}

// Active reports whether the session is still usable.
func (s *SessionRecord) Active() bool {
	return s != nil && s.RevokedAt == nil
}
