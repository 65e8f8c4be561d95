// Package sqlstore keeps records in a SQL table, on SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/ssargent/geoimg/pkg/record"
	_ "modernc.org/sqlite"
)

// Options configures a Store
type Options struct {
	Dialect Dialect
	DSN     string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// SkipMigrations leaves the schema untouched on Open
	SkipMigrations bool
}

// Store is a record.Store backed by the images table
type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ record.Store = (*Store)(nil)

// Open connects to the database and, unless disabled, migrates the schema
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.DSN == "" {
		return nil, errors.New("sqlstore: empty DSN")
	}

	db, err := sql.Open(opts.Dialect.DriverName, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.Dialect.Name == SQLite.Name {
		// sqlite allows a single writer, and an in-memory database exists per connection
		db.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, dialect: opts.Dialect}
	if !opts.SkipMigrations {
		if err := s.MigrateUp(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Insert writes rec as a single row under a fresh id
func (s *Store) Insert(ctx context.Context, rec *record.Record) (record.ID, error) {
	id, createdAt, err := record.PrepareInsert(rec)
	if err != nil {
		return record.NilID, err
	}

	_, err = s.db.ExecContext(ctx, s.dialect.insertQuery,
		id.String(), rec.ImageData, rec.Latitude, rec.Longitude, createdAt.UnixNano())
	if err != nil {
		return record.NilID, fmt.Errorf("failed to insert record %s: %w", id, err)
	}
	return id, nil
}

// FindByID selects the row stored under id
func (s *Store) FindByID(ctx context.Context, id record.ID) (*record.Record, error) {
	rec := &record.Record{ID: id}
	var createdAt int64

	err := s.db.QueryRowContext(ctx, s.dialect.selectQuery, id.String()).
		Scan(&rec.ImageData, &rec.Latitude, &rec.Longitude, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, record.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}

	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	return rec, nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}
