package repositories

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// The DDL is accepted by both SQLite and Postgres, so one migration set
// serves every SQL store.
//
//go:embed migrations/*.sql
var migrationFS embed.FS

func sqliteMigrationDriver(db *sql.DB) (database.Driver, error) {
	return sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
}

// The pgx driver holds one pooled connection for advisory locking until the
// database is closed, so a store creates it once.
func postgresMigrationDriver(db *sql.DB) (database.Driver, error) {
	return pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
}

// Migrate applies every pending schema migration. An up-to-date schema is not
// an error.
func (s *planStore) Migrate() error {
	s.migrateMu.Lock()
	defer s.migrateMu.Unlock()

	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// m is not closed: closing it would close the shared *sql.DB.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s migrate: up: %w", s.q.name, err)
	}
	return nil
}

// SchemaVersion returns the applied migration version and whether the last
// migration failed halfway. It returns 0, false when nothing was applied.
func (s *planStore) SchemaVersion() (uint, bool, error) {
	s.migrateMu.Lock()
	defer s.migrateMu.Unlock()

	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s schema version: %w", s.q.name, err)
	}
	return version, dirty, nil
}

// newMigrate must be called with migrateMu held.
func (s *planStore) newMigrate() (*migrate.Migrate, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("%s migrate: DB is nil", s.q.name)
	}

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("%s migrate: open migrations: %w", s.q.name, err)
	}
	if s.migrateDrv == nil {
		drv, err := s.q.migrationDriver(s.DB)
		if err != nil {
			return nil, fmt.Errorf("%s migrate: create driver: %w", s.q.name, err)
		}
		s.migrateDrv = drv
	}
	m, err := migrate.NewWithInstance("iofs", src, s.q.name, s.migrateDrv)
	if err != nil {
		return nil, fmt.Errorf("%s migrate: %w", s.q.name, err)
	}
	m.Log = migrateLogger{logger: s.logger}
	return m, nil
}

// migrateLogger adapts slog to migrate.Logger.
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "migrate")
}

func (l migrateLogger) Verbose() bool { return false }
