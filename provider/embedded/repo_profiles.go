package embedded

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewProfilesRepository builds the generic repository over the shared
// profile row.
func NewProfilesRepository(db *bun.DB) repository.Repository[*authstate.Profile] {
	return repository.NewRepository[*authstate.Profile](db, repository.ModelHandlers[*authstate.Profile]{
		NewRecord: func() *authstate.Profile { return &authstate.Profile{} },
		GetID: func(p *authstate.Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *authstate.Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})
}

// profilesAPI implements authstate.ProfileAPI over the repository.
type profilesAPI struct {
	repo repository.Repository[*authstate.Profile]
	db   *bun.DB
}

var _ authstate.ProfileAPI = (*profilesAPI)(nil)

// Get implements authstate.ProfileAPI.
func (p *profilesAPI) Get(ctx context.Context, userID uuid.UUID) (*authstate.Profile, error) {
	record, err := p.repo.GetByID(ctx, userID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, authstate.ErrProfileNotFound
		}
		return nil, err
	}

	return record, nil
}

// Update implements authstate.ProfileAPI. An empty change set degrades to a
// read; updated_at is stamped here, matching the hosted provider.
func (p *profilesAPI) Update(ctx context.Context, userID uuid.UUID, changes authstate.ProfileChanges) (*authstate.Profile, error) {
	if changes.IsZero() {
		return p.Get(ctx, userID)
	}

	record, err := p.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if changes.FullName != nil {
		record.FullName = *changes.FullName
	}
	if changes.Email != nil {
		record.Email = *changes.Email
	}

	now := time.Now()
	record.UpdatedAt = &now

	return p.repo.UpdateTx(ctx, p.db, record, repository.UpdateByID(userID.String()))
}

// Insert implements authstate.ProfileAPI.
func (p *profilesAPI) Insert(ctx context.Context, profile *authstate.Profile) (*authstate.Profile, error) {
	if profile == nil {
		return nil, fmt.Errorf("embedded: profile is required")
	}

	return p.repo.CreateTx(ctx, p.db, profile.Clone())
}
