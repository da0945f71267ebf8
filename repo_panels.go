package access

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Panels interface {
	repository.Repository[*Panel]

	Create(ctx context.Context, record *Panel, criteria ...repository.InsertCriteria) (*Panel, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Panel, criteria ...repository.InsertCriteria) (*Panel, error)

	AddMember(ctx context.Context, panelID, profileID uuid.UUID, role PanelRole) (*PanelMembership, error)
	AddMemberTx(ctx context.Context, tx bun.IDB, panelID, profileID uuid.UUID, role PanelRole) (*PanelMembership, error)

	ListForViewer(ctx context.Context, profileID uuid.UUID) ([]*PanelView, error)
	ListForViewerTx(ctx context.Context, tx bun.IDB, profileID uuid.UUID) ([]*PanelView, error)
}

type panels struct {
	repository.Repository[*Panel]
	db *bun.DB
}

var (
	_ Panels                        = (*panels)(nil)
	_ repository.Repository[*Panel] = (*panels)(nil)
)

func NewPanelsRepository(db *bun.DB) Panels {
	repo := repository.NewRepository[*Panel](db, repository.ModelHandlers[*Panel]{
		NewRecord: func() *Panel { return &Panel{} },
		GetID: func(p *Panel) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Panel, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &panels{
		Repository: repo,
		db:         db,
	}
}

func (a *panels) Create(ctx context.Context, record *Panel, criteria ...repository.InsertCriteria) (*Panel, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *panels) CreateTx(ctx context.Context, tx bun.IDB, record *Panel, criteria ...repository.InsertCriteria) (*Panel, error) {
	preparePanelDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *panels) AddMember(ctx context.Context, panelID, profileID uuid.UUID, role PanelRole) (*PanelMembership, error) {
	return a.AddMemberTx(ctx, a.db, panelID, profileID, role)
}

func (a *panels) AddMemberTx(ctx context.Context, tx bun.IDB, panelID, profileID uuid.UUID, role PanelRole) (*PanelMembership, error) {
	record := &PanelMembership{
		ID:        uuid.New(),
		PanelID:   panelID,
		ProfileID: profileID,
		Role:      role,
	}

	_, err := tx.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (a *panels) ListForViewer(ctx context.Context, profileID uuid.UUID) ([]*PanelView, error) {
	return a.ListForViewerTx(ctx, a.db, profileID)
}

// ListForViewerTx annotates each panel with the viewer's role: moderator for
// panels the viewer owns, otherwise the membership role.
func (a *panels) ListForViewerTx(ctx context.Context, tx bun.IDB, profileID uuid.UUID) ([]*PanelView, error) {
	var memberships []*PanelMembership
	err := tx.NewSelect().
		Model(&memberships).
		Where("?TableAlias.profile_id = ?", profileID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	roleByPanel := make(map[uuid.UUID]PanelRole, len(memberships))
	panelIDs := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		roleByPanel[m.PanelID] = m.Role
		panelIDs = append(panelIDs, m.PanelID)
	}

	var records []*Panel
	q := tx.NewSelect().Model(&records)
	if len(panelIDs) > 0 {
		q = q.Where("?TableAlias.owner_id = ? OR ?TableAlias.id IN (?)", profileID, bun.In(panelIDs))
	} else {
		q = q.Where("?TableAlias.owner_id = ?", profileID)
	}

	if err := q.Order("created_at DESC").Scan(ctx); err != nil {
		return nil, err
	}

	views := make([]*PanelView, 0, len(records))
	for _, p := range records {
		role := roleByPanel[p.ID]
		if p.OwnerID == profileID {
			role = RoleModerator
		}
		if role == "" {
			role = RolePanelist
		}
		views = append(views, &PanelView{
			Panel:      p,
			ViewerRole: role,
		})
	}

	return views, nil
}

func preparePanelDefaults(record *Panel) {
	if record == nil {
		return
	}

	if record.Status == "" {
		record.Status = PanelDraft
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
