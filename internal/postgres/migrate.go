package postgres

import (
	"context"
	"embed"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// MigrationCommand is a goose command understood by Migrate
type MigrationCommand string

const (
	MigrateUp     MigrationCommand = "up"
	MigrateDown   MigrationCommand = "down"
	MigrateStatus MigrationCommand = "status"
)

// Migrate applies the embedded schema migrations with goose
func Migrate(ctx context.Context, db *DB, cmd MigrationCommand, log *logger.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(log.GetGooseLogger())

	if err := goose.SetDialect("postgres"); err != nil {
		return ierr.WithError(err).
			WithMessage("failed to set migration dialect").
			Mark(ierr.ErrSystem)
	}

	var err error
	switch cmd {
	case MigrateUp:
		err = goose.UpContext(ctx, db.DB.DB, migrationsDir)
	case MigrateDown:
		err = goose.DownContext(ctx, db.DB.DB, migrationsDir)
	case MigrateStatus:
		err = goose.StatusContext(ctx, db.DB.DB, migrationsDir)
	default:
		return ierr.NewError("unknown migration command").
			WithHintf("Unknown migration command %q", cmd).
			Mark(ierr.ErrValidation)
	}
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to apply migrations").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
