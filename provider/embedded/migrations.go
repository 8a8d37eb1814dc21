package embedded

import (
	"context"
	"embed"

	"github.com/goliatone/go-auth-state"
	"github.com/uptrace/bun"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// MigrationsFS returns the migration files for this package. Hand it to the
// host's migrator.
func MigrationsFS() embed.FS {
	return migrationsFS
}

// CreateTables creates the provider tables directly. Tests and throwaway
// dev databases use it instead of running migrations.
func CreateTables(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*Account)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	if _, err := db.NewCreateTable().
		Model((*authstate.Profile)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	return nil
}
