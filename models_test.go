package access_test

import (
	"testing"
	"time"

	"github.com/panelpulse/go-access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileAdminFlagTreatsNullAsFalse(t *testing.T) {
	var nilProfile *access.Profile
	assert.False(t, nilProfile.AdminFlag())

	assert.False(t, (&access.Profile{}).AdminFlag())
	assert.False(t, (&access.Profile{IsAdmin: boolPtr(false)}).AdminFlag())
	assert.True(t, (&access.Profile{IsAdmin: boolPtr(true)}).AdminFlag())
}

func TestProfilePatchValidation(t *testing.T) {
	valid := access.ProfilePatch{
		DisplayName: strPtr("Ana"),
		AvatarURL:   strPtr("https://example.com/a.png"),
		SocialLinks: map[string]string{
			"github": "https://github.com/ana",
		},
	}
	require.NoError(t, valid.Validate())

	badURL := access.ProfilePatch{AvatarURL: strPtr("not a url")}
	require.Error(t, badURL.Validate())

	badLink := access.ProfilePatch{
		SocialLinks: map[string]string{"github": "nope"},
	}
	require.Error(t, badLink.Validate())
}

func TestProfilePatchIsEmpty(t *testing.T) {
	assert.True(t, access.ProfilePatch{}.IsEmpty())
	assert.False(t, access.ProfilePatch{Bio: strPtr("")}.IsEmpty())
	assert.False(t, access.ProfilePatch{IsAdmin: boolPtr(false)}.IsEmpty())
}

func TestProfilePatchApplyToLeavesNilFieldsAlone(t *testing.T) {
	record := &access.Profile{
		DisplayName: "Ana",
		Company:     "PanelPulse",
		Bio:         "old bio",
	}

	access.ProfilePatch{
		Bio:       strPtr("new bio"),
		Expertise: []string{"go", "distsys"},
	}.ApplyTo(record)

	assert.Equal(t, "Ana", record.DisplayName)
	assert.Equal(t, "PanelPulse", record.Company)
	assert.Equal(t, "new bio", record.Bio)
	assert.Equal(t, []string{"go", "distsys"}, record.Expertise)
}

func TestSettingsValidate(t *testing.T) {
	ok := &access.Settings{Theme: access.ThemeDark, SessionTimeoutMinutes: 60}
	require.NoError(t, ok.Validate())

	badTheme := &access.Settings{Theme: "sepia"}
	require.Error(t, badTheme.Validate())

	badTimeout := &access.Settings{Theme: access.ThemeLight, SessionTimeoutMinutes: 100000}
	require.Error(t, badTimeout.Validate())
}

func TestSettingsIdleTimeout(t *testing.T) {
	now := time.Now()
	settings := &access.Settings{SessionTimeoutMinutes: 30}

	assert.False(t, settings.IdleTimeoutExceeded(now.Add(-10*time.Minute), now))
	assert.True(t, settings.IdleTimeoutExceeded(now.Add(-31*time.Minute), now))

	disabled := &access.Settings{SessionTimeoutMinutes: 0}
	assert.False(t, disabled.IdleTimeoutExceeded(now.Add(-24*time.Hour), now))

	var nilSettings *access.Settings
	assert.False(t, nilSettings.IdleTimeoutExceeded(now.Add(-24*time.Hour), now))
}

func TestInvitationStatusHelpers(t *testing.T) {
	assert.True(t, access.ValidInvitationStatus(access.InvitationPending))
	assert.True(t, access.ValidInvitationStatus(access.InvitationAccepted))
	assert.False(t, access.ValidInvitationStatus("expired"))

	assert.False(t, access.TerminalInvitationStatus(access.InvitationPending))
	assert.True(t, access.TerminalInvitationStatus(access.InvitationAccepted))
	assert.True(t, access.TerminalInvitationStatus(access.InvitationRejected))
}

func TestInvitationEnsureStatus(t *testing.T) {
	inv := &access.Invitation{}
	inv.EnsureStatus()
	assert.Equal(t, access.InvitationPending, inv.Status)

	inv.Status = access.InvitationAccepted
	inv.EnsureStatus()
	assert.Equal(t, access.InvitationAccepted, inv.Status)
}

func TestSessionRecordActive(t *testing.T) {
	now := time.Now()
	assert.True(t, (&access.SessionRecord{}).Active())
	assert.False(t, (&access.SessionRecord{RevokedAt: &now}).Active())

	var nilSession *access.SessionRecord
	assert.False(t, nilSession.Active())
}
