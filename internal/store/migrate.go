package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate creates the news table and its indexes if they do not exist.
// Scripts run in file name order and must be idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("%w: list migrations: %w", ErrPersistence, err)
	}

	sort.Strings(names)

	for _, name := range names {
		script, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("%w: read %s: %w", ErrPersistence, name, err)
		}

		if _, err := s.pool.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("%w: apply %s: %w", ErrPersistence, name, err)
		}

		s.logger.Info("Applied migration", "file", name)
	}

	return nil
}
