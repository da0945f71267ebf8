package access

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Invitations interface {
	repository.Repository[*Invitation]

	Create(ctx context.Context, record *Invitation, criteria ...repository.InsertCriteria) (*Invitation, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Invitation, criteria ...repository.InsertCriteria) (*Invitation, error)

	ListPendingForEmail(ctx context.Context, email string) ([]*Invitation, error)
	ListPendingForEmailTx(ctx context.Context, tx bun.IDB, email string) ([]*Invitation, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status InvitationStatus, opts ...InvitationUpdateOption) (*Invitation, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status InvitationStatus, opts ...InvitationUpdateOption) (*Invitation, error)

	Accept(ctx context.Context, actor ActorRef, inv *Invitation, opts ...ResponseOption) (*Invitation, error)
	Reject(ctx context.Context, actor ActorRef, inv *Invitation, opts ...ResponseOption) (*Invitation, error)
}

type invitations struct {
	repository.Repository[*Invitation]
	db                  *bun.DB
	stateMachine        InvitationStateMachine
	stateMachineOptions []InvitationMachineOption
}

var (
	_ Invitations                        = (*invitations)(nil)
	_ repository.Repository[*Invitation] = (*invitations)(nil)
)

type InvitationsOption func(*invitations)

func NewInvitationsRepository(db *bun.DB, opts ...InvitationsOption) Invitations {
	repo := repository.NewRepository[*Invitation](db, repository.ModelHandlers[*Invitation]{
		NewRecord: func() *Invitation { return &Invitation{} },
		GetID: func(i *Invitation) uuid.UUID {
			if i == nil {
				return uuid.Nil
			}
			return i.ID
		},
		SetID: func(i *Invitation, id uuid.UUID) {
			if i != nil {
				i.ID = id
			}
		},
	})

	repoInvitations := &invitations{
		Repository: repo,
		db:         db,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoInvitations)
		}
	}

	return repoInvitations
}

func WithInvitationsStateMachineOptions(options ...InvitationMachineOption) InvitationsOption {
	return func(i *invitations) {
		if len(options) == 0 {
			return
		}
		i.stateMachineOptions = append(i.stateMachineOptions, options...)
		i.stateMachine = nil
	}
}

func WithInvitationsStateMachine(sm InvitationStateMachine) InvitationsOption {
	return func(i *invitations) {
		i.stateMachine = sm
	}
}

func (a *invitations) Create(ctx context.Context, record *Invitation, criteria ...repository.InsertCriteria) (*Invitation, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *invitations) CreateTx(ctx context.Context, tx bun.IDB, record *Invitation, criteria ...repository.InsertCriteria) (*Invitation, error) {
	prepareInvitationDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *invitations) ListPendingForEmail(ctx context.Context, email string) ([]*Invitation, error) {
	return a.ListPendingForEmailTx(ctx, a.db, email)
}

func (a *invitations) ListPendingForEmailTx(ctx context.Context, tx bun.IDB, email string) ([]*Invitation, error) {
	var records []*Invitation
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.email = ?", email).
		Where("?TableAlias.status = ?", InvitationPending).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *invitations) UpdateStatus(ctx context.Context, id uuid.UUID, status InvitationStatus, opts ...InvitationUpdateOption) (*Invitation, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status, opts...)
}

func (a *invitations) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status InvitationStatus, opts ...InvitationUpdateOption) (*Invitation, error) {
	record := &Invitation{
		ID:     id,
		Status: status,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(record)
		}
	}

	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
}

func (a *invitations) Accept(ctx context.Context, actor ActorRef, inv *Invitation, opts ...ResponseOption) (*Invitation, error) {
	return a.responseMachine().Respond(ctx, actor, inv, InvitationAccepted, opts...)
}

func (a *invitations) Reject(ctx context.Context, actor ActorRef, inv *Invitation, opts ...ResponseOption) (*Invitation, error) {
	return a.responseMachine().Respond(ctx, actor, inv, InvitationRejected, opts...)
}

func prepareInvitationDefaults(record *Invitation) {
	if record == nil {
		return
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func (a *invitations) responseMachine() InvitationStateMachine {
	if a.stateMachine == nil {
		a.stateMachine = NewInvitationStateMachine(a, a.stateMachineOptions...)
	}
	return a.stateMachine
}
