package access

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type CreateInvitationMessage struct {
	PanelID       string     `json:"panel_id"`
	PanelTitle    string     `json:"panel_title"`
	Email         string     `json:"email"`
	RoleLabel     string     `json:"role_label"`
	PanelDate     *time.Time `json:"panel_date"`
	ModeratorName string     `json:"moderator_name"`
	UseHashid     bool
}

func (e CreateInvitationMessage) Type() string { return "invitation.create" }

type CreateInvitationHandler struct {
	repo RepositoryManager
}

func NewCreateInvitationHandler(repo RepositoryManager) *CreateInvitationHandler {
	return &CreateInvitationHandler{repo: repo}
}

func (h *CreateInvitationHandler) Execute(ctx context.Context, event CreateInvitationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during invitation creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateInvitationHandler) execute(ctx context.Context, event CreateInvitationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		panel, err := h.repo.Panels().GetByIdentifierTx(ctx, tx, event.PanelID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryNotFound, "panel not found for invitation")
		}

		invitation := &Invitation{
			PanelID:       panel.ID,
			PanelTitle:    event.PanelTitle,
			Email:         event.Email,
			RoleLabel:     event.RoleLabel,
			PanelDate:     event.PanelDate,
			ModeratorName: event.ModeratorName,
		}

		if invitation.PanelTitle == "" {
			invitation.PanelTitle = panel.Title
		}

		// Deterministic ID per panel and invitee so a re-sent invitation
		// overwrites instead of duplicating.
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.PanelID + ":" + event.Email); err == nil {
				invitation.ID = id
			}
		}

		if _, err = h.repo.Invitations().CreateTx(ctx, tx, invitation); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create invitation")
		}

		// Invited addresses without an account get a placeholder profile
		// holding an unusable random credential until they sign up.
		if _, err := h.repo.Profiles().GetByIdentifierTx(ctx, tx, event.Email); err != nil {
			if !repository.IsRecordNotFound(err) {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "could not look up invited profile")
			}

			if _, err := h.repo.Profiles().CreateTx(ctx, tx, &Profile{
				Email:        event.Email,
				PasswordHash: RandomPasswordHash(),
			}); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryConflict, "could not seed invited profile")
			}
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "invitation creation transaction failed")
	}

	return nil
}
