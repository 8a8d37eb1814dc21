package embedded

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts narrows the generic repository to the lookups sign-in needs.
type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	TrackSignIn(ctx context.Context, id uuid.UUID) error
	TrackSignInTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *accounts) TrackSignIn(ctx context.Context, id uuid.UUID) error {
	return a.TrackSignInTx(ctx, a.db, id)
}

func (a *accounts) TrackSignInTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	now := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "auth_accounts" AS "acc"
		SET "last_sign_in_at" = ?
		WHERE ("acc".id = ?)
		AND "acc"."deleted_at" IS NULL;
	`, now, id).Exec(ctx)

	return err
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	record.Email = normalizeEmail(record.Email)

	if record.Role == "" {
		record.Role = authstate.ProviderRoleAuthenticated
	}

	if record.ID == uuid.Nil {
		record.ID = accountID(record.Email)
	}
}

// accountID derives a stable id from the email so re-provisioning an
// account in dev keeps its profile row. Falls back to a random id when the
// email cannot be encoded.
func accountID(email string) uuid.UUID {
	if email != "" {
		if id, err := hashid.NewUUID(email); err == nil {
			return id
		}
	}
	return uuid.New()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
