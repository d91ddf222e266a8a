package modules

import (
	"context"
	"io/fs"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"modular.GO/module"
)

// MigrationReport describes what one schema migration call did.
type MigrationReport struct {
	Steps []string
	// FollowUp is set when part of the migration could not run here.
	FollowUp string
}

// Migrator brings a module's schema up to date.
type Migrator interface {
	Migrate(ctx context.Context, identifier string) (*MigrationReport, error)
}

// SchemaMigrator applies a unit's SQL migrations (mysql only) and then
// auto-migrates its gorm models.
type SchemaMigrator struct {
	db *gorm.DB
}

func NewSchemaMigrator(db *gorm.DB) *SchemaMigrator {
	return &SchemaMigrator{db: db}
}

func (m *SchemaMigrator) Migrate(ctx context.Context, identifier string) (*MigrationReport, error) {
	u, ok := module.Lookup(identifier)
	if !ok {
		return nil, errors.Errorf("unit %q is not registered", identifier)
	}
	report := &MigrationReport{}
	l := log.WithField("module", identifier)

	if mp, ok := u.(module.MigrationProvider); ok && mp.Migrations() != nil {
		if m.db.Dialector.Name() == "mysql" {
			if err := m.runSQL(ctx, identifier, mp.Migrations()); err != nil {
				return nil, err
			}
			report.Steps = append(report.Steps, "applied SQL migrations")
		} else {
			l.WithField("dialect", m.db.Dialector.Name()).Warn("SQL migrations skipped for this dialect")
			report.FollowUp = "SQL migrations only run against mysql; the schema was built from models"
		}
	}

	if mp, ok := u.(module.ModelProvider); ok {
		models := mp.Models()
		if len(models) > 0 {
			if err := m.db.WithContext(ctx).AutoMigrate(models...); err != nil {
				return nil, errors.Wrap(err, "auto migrate")
			}
			report.Steps = append(report.Steps, "synchronized models")
		}
	}
	if len(report.Steps) == 0 {
		report.Steps = append(report.Steps, "no schema changes")
	}
	l.WithField("steps", report.Steps).Info("schema migrated")
	return report, nil
}

// runSQL applies migrations with golang-migrate, tracking them in a per-module table.
func (m *SchemaMigrator) runSQL(ctx context.Context, identifier string, fsys fs.FS) error {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return errors.Wrap(err, "open migration source")
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "get connection")
	}
	drv, err := migratemysql.WithConnection(ctx, conn, &migratemysql.Config{
		MigrationsTable: "schema_migrations_" + identifier,
	})
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "init migrate driver")
	}
	mg, err := migrate.NewWithInstance("iofs", src, "mysql", drv)
	if err != nil {
		drv.Close()
		return errors.Wrap(err, "init migrate")
	}
	// Close releases the borrowed connection only; the pool stays open.
	defer mg.Close()

	done := make(chan error, 1)
	go func() { done <- mg.Up() }()
	select {
	case err = <-done:
	case <-ctx.Done():
		mg.GracefulStop <- true
		<-done
		return ctx.Err()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrate up")
	}
	return nil
}
