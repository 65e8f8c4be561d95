package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// withMigrator runs fn with a migrator over the store's pool and releases
// whatever the migration driver borrowed from it. The sqlite driver's Close
// would close the shared *sql.DB, so it is never closed; the postgres driver
// runs on a dedicated connection that goes back to the pool afterwards.
func (s *Store) withMigrator(fn func(*migrate.Migrate) error) error {
	ctx := context.Background()

	src, err := iofs.New(migrationsFS, "migrations/"+s.dialect.Name)
	if err != nil {
		return fmt.Errorf("failed to load %s migrations: %w", s.dialect.Name, err)
	}

	var (
		driver  database.Driver
		release = func() error { return nil }
	)
	switch s.dialect.Name {
	case SQLite.Name:
		driver, err = sqlite.WithInstance(s.db, &sqlite.Config{})
	case Postgres.Name:
		var conn *sql.Conn
		conn, err = s.db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("failed to reserve migration connection: %w", err)
		}
		driver, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			_ = conn.Close()
		}
	default:
		err = fmt.Errorf("no migration driver for %q", s.dialect.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, s.dialect.Name, driver)
	if err != nil {
		if s.dialect.Name == Postgres.Name {
			_ = driver.Close()
		}
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if s.dialect.Name == Postgres.Name {
		release = func() error {
			srcErr, dbErr := m.Close()
			return errors.Join(srcErr, dbErr)
		}
	}

	err = fn(m)
	if closeErr := release(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to release migrator: %w", closeErr)
	}
	return err
}

// MigrateUp applies every pending migration
func (s *Store) MigrateUp() error {
	return s.withMigrator(func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back every applied migration
func (s *Store) MigrateDown() error {
	return s.withMigrator(func(m *migrate.Migrate) error {
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		return nil
	})
}

// Version reports the current schema version. ok is false before the first migration.
func (s *Store) Version() (version uint, dirty bool, ok bool, err error) {
	err = s.withMigrator(func(m *migrate.Migrate) error {
		v, d, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		if verr != nil {
			return verr
		}
		version, dirty, ok = v, d, true
		return nil
	})
	if err != nil {
		return 0, false, false, err
	}
	return version, dirty, ok, nil
}
