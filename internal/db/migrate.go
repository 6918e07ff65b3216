package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"forkful/internal/observability"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies pending forward-only migrations in file name order, each in its own
// transaction, and returns how many were applied.
func RunMigrations(ctx context.Context, database *sql.DB, logger *observability.Logger) (int, error) {
	return runMigrations(ctx, database, migrationFiles, logger)
}

func runMigrations(ctx context.Context, database *sql.DB, files fs.FS, logger *observability.Logger) (int, error) {
	if _, err := database.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return 0, fmt.Errorf("create schema_migrations table: %w", err)
	}

	versions, err := migrationVersions(files)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, version := range versions {
		var exists bool
		if err := database.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		script, err := fs.ReadFile(files, "migrations/"+version)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", version, err)
		}

		if err := applyMigration(ctx, database, version, string(script)); err != nil {
			return applied, err
		}

		applied++
		logger.Info("migration_applied", map[string]any{"version": version})
	}

	return applied, nil
}

func applyMigration(ctx context.Context, database *sql.DB, version, script string) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("execute migration %s: %w", version, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}

	return nil
}

func migrationVersions(files fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(files, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migration files: %w", err)
	}

	versions := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			versions = append(versions, entry.Name())
		}
	}
	sort.Strings(versions)

	return versions, nil
}
