package state

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseMu guards goose's global dialect and filesystem.
var gooseMu sync.Mutex

func gooseDialect(d Dialect) string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// Migrate runs all pending database migrations.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	return MigrateWithDB(ctx, s.db, s.dialect)
}

// MigrateWithDB runs migrations using a raw database connection.
func MigrateWithDB(ctx context.Context, db *sql.DB, dialect Dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect(dialect)); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the current migration version.
func (s *SQLStore) MigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(gooseDialect(s.dialect)); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, s.db)
}
