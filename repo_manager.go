package access

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Profiles() Profiles
	Settings() SettingsStore
	Invitations() Invitations
	Panels() Panels
	Sessions() repository.Repository[*SessionRecord]
}

func NewSessionsRepository(db *bun.DB) repository.Repository[*SessionRecord] {
	handlers := repository.ModelHandlers[*SessionRecord]{
		NewRecord: func() *SessionRecord {
			return &SessionRecord{}
		},
		GetID: func(record *SessionRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *SessionRecord, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "profile_id"
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db          *bun.DB
	profiles    Profiles
	settings    SettingsStore
	invitations Invitations
	panels      Panels
	sessions    repository.Repository[*SessionRecord]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:          db,
		profiles:    NewProfilesRepository(db),
		settings:    NewSettingsRepository(db),
		invitations: NewInvitationsRepository(db),
		panels:      NewPanelsRepository(db),
		sessions:    NewSessionsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.profiles == nil {
		return errors.New("repository profiles should be initialized")
	}

	if m.settings == nil {
		return errors.New("repository settings should be initialized")
	}

	if m.invitations == nil {
		return errors.New("repository invitations should be initialized")
	}

	if m.panels == nil {
		return errors.New("repository panels should be initialized")
	}

	if m.sessions == nil {
		return errors.New("repository sessions should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Profiles() Profiles {
	return m.profiles
}

func (m mngr) Settings() SettingsStore {
	return m.settings
}

func (m mngr) Invitations() Invitations {
	return m.invitations
}

func (m mngr) Panels() Panels {
	return m.panels
}

func (m mngr) Sessions() repository.Repository[*SessionRecord] {
	return m.sessions
}
