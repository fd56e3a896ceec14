package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pressly/goose/v3"
)

// Logger receives goose's migration progress lines.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// MigrationsFS holds the goose SQL migrations. The migrations package sets
// it from an embedded filesystem so the binary carries its own schema.
var MigrationsFS fs.FS

// MigrationsDir is the directory within MigrationsFS containing migration files.
var MigrationsDir = "."

// gooseDialect is the goose dialect for go-sqlite3.
const gooseDialect = "sqlite3"

// gooseUp and gooseDown are seams so tests can observe goose calls.
var (
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		return goose.UpContext(ctx, db, dir)
	}
	gooseDown = func(ctx context.Context, db *sql.DB, dir string) error {
		return goose.DownContext(ctx, db, dir)
	}
)

// migrationLogger adapts Logger to goose.Logger.
type migrationLogger struct {
	logger Logger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf keeps goose's exit semantics.
func (l migrationLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
	gooseExit(1)
}

// gooseExit is replaced in tests.
var gooseExit = os.Exit

// Migrate applies all pending migrations in version order.
// Goose records applied versions in its goose_db_version table and runs each
// migration in its own transaction; rerunning after a failure continues
// from the failed migration.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.configureGoose(); err != nil {
		return err
	}
	if err := gooseUp(ctx, db.DB, MigrationsDir); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
// This is primarily for development and testing.
func (db *DB) MigrateDown(ctx context.Context) error {
	if err := db.configureGoose(); err != nil {
		return err
	}
	if err := gooseDown(ctx, db.DB, MigrationsDir); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	return nil
}

// Version returns the currently applied schema version.
func (db *DB) Version(ctx context.Context) (int64, error) {
	if err := db.configureGoose(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

func (db *DB) configureGoose() error {
	if MigrationsFS == nil {
		return fmt.Errorf("no migrations registered")
	}
	goose.SetBaseFS(MigrationsFS)
	if db.logger != nil {
		goose.SetLogger(migrationLogger{logger: db.logger})
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	return nil
}
