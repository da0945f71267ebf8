package access

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SettingsStore interface {
	repository.Repository[*Settings]

	GetForProfile(ctx context.Context, profileID uuid.UUID) (*Settings, error)
	GetForProfileTx(ctx context.Context, tx bun.IDB, profileID uuid.UUID) (*Settings, error)
	UpsertForProfile(ctx context.Context, record *Settings) (*Settings, error)
	UpsertForProfileTx(ctx context.Context, tx bun.IDB, record *Settings) (*Settings, error)
}

type settingsStore struct {
	repository.Repository[*Settings]
	db *bun.DB
}

var (
	_ SettingsStore                    = (*settingsStore)(nil)
	_ repository.Repository[*Settings] = (*settingsStore)(nil)
)

func NewSettingsRepository(db *bun.DB) SettingsStore {
	repo := repository.NewRepository[*Settings](db, repository.ModelHandlers[*Settings]{
		NewRecord: func() *Settings { return &Settings{} },
		GetID: func(s *Settings) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Settings, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "profile_id"
		},
	})

	return &settingsStore{
		Repository: repo,
		db:         db,
	}
}

func (a *settingsStore) GetForProfile(ctx context.Context, profileID uuid.UUID) (*Settings, error) {
	return a.GetForProfileTx(ctx, a.db, profileID)
}

func (a *settingsStore) GetForProfileTx(ctx context.Context, tx bun.IDB, profileID uuid.UUID) (*Settings, error) {
	record := &Settings{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.profile_id = ?", profileID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"profile_id": profileID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

// UpsertForProfile keeps the one-record-per-profile invariant: an existing
// record is updated in place, otherwise a new one is created.
func (a *settingsStore) UpsertForProfile(ctx context.Context, record *Settings) (*Settings, error) {
	return a.UpsertForProfileTx(ctx, a.db, record)
}

func (a *settingsStore) UpsertForProfileTx(ctx context.Context, tx bun.IDB, record *Settings) (*Settings, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	existing, err := a.GetForProfileTx(ctx, tx, record.ProfileID)
	if err == nil {
		record.ID = existing.ID
		return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(existing.ID.String()))
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Theme == "" {
		record.Theme = ThemeLight
	}

	return a.Repository.CreateTx(ctx, tx, record)
}
