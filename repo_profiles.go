package access

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var SetAdminFlagSQL = `UPDATE "profiles" AS "prf"
SET
	"is_admin" = ?
WHERE
	"prf"."deleted_at" IS NULL
AND (
	"prf"."id" = ?
) RETURNING *;`

type Profiles interface {
	repository.Repository[*Profile]

	Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)
	GetOrCreate(ctx context.Context, record *Profile) (*Profile, error)
	GetOrCreateTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error)

	ApplyPatch(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*Profile, error)
	ApplyPatchTx(ctx context.Context, tx bun.IDB, id uuid.UUID, patch ProfilePatch) (*Profile, error)

	SetAdminFlag(ctx context.Context, id uuid.UUID, admin bool) error
	SetAdminFlagTx(ctx context.Context, tx bun.IDB, id uuid.UUID, admin bool) error
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

func (a *profiles) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*Profile, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *profiles) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*Profile, error) {
	options := resolveProfileIdentifier(identifier)
	if len(options) == 0 {
		options = []identifierOption{
			{
				column: "id",
				value:  strings.TrimSpace(identifier),
			},
		}
	}

	for _, opt := range options {
		record := &Profile{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *profiles) Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *profiles) CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	prepareProfileDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *profiles) GetOrCreate(ctx context.Context, record *Profile) (*Profile, error) {
	return a.GetOrCreateTx(ctx, a.db, record)
}

func (a *profiles) GetOrCreateTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error) {
	identifier := record.Email
	if record.ID != uuid.Nil {
		identifier = record.ID.String()
	}

	profile, err := a.Repository.GetByIdentifierTx(ctx, tx, identifier)
	if err == nil {
		return profile, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	return a.CreateTx(ctx, tx, record)
}

func (a *profiles) ApplyPatch(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*Profile, error) {
	return a.ApplyPatchTx(ctx, a.db, id, patch)
}

func (a *profiles) ApplyPatchTx(ctx context.Context, tx bun.IDB, id uuid.UUID, patch ProfilePatch) (*Profile, error) {
	record, err := a.GetByIdentifierTx(ctx, tx, id.String())
	if err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return record, nil
	}

	// merge onto the stored row so unpatched columns survive the update
	patch.ApplyTo(record)

	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
}

func (a *profiles) SetAdminFlag(ctx context.Context, id uuid.UUID, admin bool) error {
	return a.SetAdminFlagTx(ctx, a.db, id, admin)
}

func (a *profiles) SetAdminFlagTx(ctx context.Context, tx bun.IDB, id uuid.UUID, admin bool) error {
	res, err := a.Repository.RawTx(ctx, tx, SetAdminFlagSQL, admin, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func prepareProfileDefaults(record *Profile) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveProfileIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 2)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
