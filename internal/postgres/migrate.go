package postgres

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"

	ierr "github.com/brewcycle/brewcycle/internal/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration is one embedded schema file
type Migration struct {
	Version string
	SQL     string
}

// Migrations returns the embedded schema files in apply order
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, err
	}

	migrations := make([]Migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		body, err := migrationFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, Migration{
			Version: strings.TrimSuffix(e.Name(), ".sql"),
			SQL:     string(body),
		})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// Migrate applies every embedded migration that is not yet recorded in schema_migrations.
// Each migration runs in its own transaction.
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	const bootstrap = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    VARCHAR(100) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`
	if _, err := db.ExecContext(ctx, bootstrap); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to prepare schema_migrations").
			Mark(ierr.ErrDatabase)
	}

	migrations, err := Migrations()
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	var applied []string
	for _, m := range migrations {
		m := m
		err := db.WithTx(ctx, func(ctx context.Context) error {
			q := db.Querier(ctx)

			var exists bool
			if err := q.GetContext(ctx, &exists,
				`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version); err != nil {
				return err
			}
			if exists {
				return nil
			}

			if _, err := q.ExecContext(ctx, m.SQL); err != nil {
				return err
			}
			if _, err := q.ExecContext(ctx,
				`INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
				return err
			}
			applied = append(applied, m.Version)
			return nil
		})
		if err != nil {
			return applied, ierr.WithError(err).
				WithHintf("Failed to apply migration %s", m.Version).
				Mark(ierr.ErrDatabase)
		}
	}

	db.logger.Infow("database migrations complete", "applied", applied)
	return applied, nil
}
