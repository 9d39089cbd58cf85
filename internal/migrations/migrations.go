// Package migrations embeds the goose schema for users, posts, the per-type
// history tables and unified_history_view.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var files embed.FS

// FS returns the migration files rooted at their directory.
func FS() fs.FS {
	sub, err := fs.Sub(files, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

func NewProvider(db *sql.DB, dialect goose.Dialect, log *slog.Logger) (*goose.Provider, error) {
	opts := []goose.ProviderOption{}
	if log != nil {
		opts = append(opts, goose.WithSlog(log))
	}
	return goose.NewProvider(dialect, db, FS(), opts...)
}

// Up applies every pending migration to a postgres database.
func Up(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	p, err := NewProvider(db, goose.DialectPostgres, log)
	if err != nil {
		return fmt.Errorf("migrations: provider: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	if log != nil {
		for _, r := range results {
			log.Info("migration applied", "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
		}
	}
	return nil
}
