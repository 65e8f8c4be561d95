// Package record defines the image record persisted by the service and the
// store contract every backend implements.
package record

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/xid"
)

var (
	// ErrNotFound is returned by FindByID when no record has the given id.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidID is returned when an identifier cannot be parsed.
	ErrInvalidID = errors.New("invalid record id")

	// ErrInvalidRecord is returned when a record fails validation at the store boundary.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrIDAssigned is returned when Insert is handed a record that already has an id.
	ErrIDAssigned = errors.New("record already has an id")
)

// IDSize is the number of raw bytes in an ID.
const IDSize = 12

// ID identifies a record. It has the same 12 byte layout as a MongoDB
// ObjectId and is rendered as 24 lowercase hex characters.
type ID xid.ID

// NilID is the zero value of ID.
var NilID ID

// NewID returns a new, globally unique ID.
func NewID() ID {
	return ID(xid.New())
}

// ParseID parses the 24 character hex form of an ID.
func ParseID(s string) (ID, error) {
	if len(s) != hex.EncodedLen(IDSize) {
		return NilID, fmt.Errorf("%w: %q must be %d hex characters", ErrInvalidID, s, hex.EncodedLen(IDSize))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return NilID, fmt.Errorf("%w: %q: %v", ErrInvalidID, s, err)
	}
	return IDFromBytes(raw)
}

// IDFromBytes converts a 12 byte slice into an ID.
func IDFromBytes(b []byte) (ID, error) {
	id, err := xid.FromBytes(b)
	if err != nil {
		return NilID, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return ID(id), nil
}

// String returns the hex form of the id.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw bytes of the id.
func (id ID) Bytes() []byte {
	return id[:]
}

// IsNil reports whether the id is the zero value.
func (id ID) IsNil() bool {
	return id == NilID
}

// Record is an image together with the coordinates it was taken at.
type Record struct {
	ID        ID
	ImageData []byte
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
}

// Validate checks the shape constraints a store enforces before writing.
// Coordinates are not range checked.
func (r *Record) Validate() error {
	if len(r.ImageData) == 0 {
		return fmt.Errorf("%w: image data is empty", ErrInvalidRecord)
	}
	if math.IsNaN(r.Latitude) || math.IsInf(r.Latitude, 0) {
		return fmt.Errorf("%w: latitude is not a finite number", ErrInvalidRecord)
	}
	if math.IsNaN(r.Longitude) || math.IsInf(r.Longitude, 0) {
		return fmt.Errorf("%w: longitude is not a finite number", ErrInvalidRecord)
	}
	return nil
}

// PrepareInsert validates rec and returns the id and creation time a backend
// should persist it under.
func PrepareInsert(rec *Record) (ID, time.Time, error) {
	if rec == nil {
		return NilID, time.Time{}, fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if !rec.ID.IsNil() {
		return NilID, time.Time{}, ErrIDAssigned
	}
	if err := rec.Validate(); err != nil {
		return NilID, time.Time{}, err
	}
	id := NewID()
	return id, xid.ID(id).Time().UTC(), nil
}

// Store persists records. Implementations must be safe for concurrent use.
type Store interface {
	// Insert assigns a new id to rec, persists it in a single write and
	// returns the id. rec must not carry an id.
	Insert(ctx context.Context, rec *Record) (ID, error)

	// FindByID returns the record stored under id, or ErrNotFound.
	FindByID(ctx context.Context, id ID) (*Record, error)

	// Close releases the underlying connection or files.
	Close() error
}
