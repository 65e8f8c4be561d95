// Package pebblestore keeps records in an embedded pebble database.
package pebblestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/ssargent/geoimg/pkg/codec"
	"github.com/ssargent/geoimg/pkg/record"
)

// Options configures a Store
type Options struct {
	// Sync flushes every insert to disk before it is acknowledged
	Sync bool
	// FS overrides the filesystem, tests use vfs.NewMem()
	FS vfs.FS
}

// Store is a record.Store keyed by the raw id bytes
type Store struct {
	db        *pebble.DB
	codec     *codec.DocumentCodec
	writeOpts *pebble.WriteOptions
}

var _ record.Store = (*Store)(nil)

// Open opens or creates a pebble database at path
func Open(path string, opts Options) (*Store, error) {
	pebbleOpts := &pebble.Options{}
	if opts.FS != nil {
		pebbleOpts.FS = opts.FS
	}

	db, err := pebble.Open(path, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database at %s: %w", path, err)
	}

	writeOpts := pebble.NoSync
	if opts.Sync {
		writeOpts = pebble.Sync
	}

	return &Store{db: db, codec: codec.NewDocumentCodec(), writeOpts: writeOpts}, nil
}

// Insert encodes rec and writes it under a fresh id
func (s *Store) Insert(ctx context.Context, rec *record.Record) (record.ID, error) {
	if err := ctx.Err(); err != nil {
		return record.NilID, err
	}

	id, createdAt, err := record.PrepareInsert(rec)
	if err != nil {
		return record.NilID, err
	}

	doc := *rec
	doc.CreatedAt = createdAt
	data, err := s.codec.Encode(&doc)
	if err != nil {
		return record.NilID, err
	}

	if err := s.db.Set(id.Bytes(), data, s.writeOpts); err != nil {
		return record.NilID, fmt.Errorf("failed to write record %s: %w", id, err)
	}
	return id, nil
}

// FindByID reads and decodes the record stored under id
func (s *Store) FindByID(ctx context.Context, id record.ID) (*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, closer, err := s.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, record.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	// value is only valid until closer.Close
	data := make([]byte, len(value))
	copy(data, value)
	if err := closer.Close(); err != nil {
		return nil, err
	}

	rec, err := s.codec.DecodeRecord(id, data)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", id, err)
	}
	return rec, nil
}

// Close flushes and closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
