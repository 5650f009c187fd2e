package postgres

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	pkgerrors "github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every embedded migration in file name order. The scripts are
// idempotent, so running Migrate on an up-to-date database is a no-op.
func (s *Store) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return pkgerrors.Wrapf(err, "apply %s", name)
		}
	}
	return nil
}
