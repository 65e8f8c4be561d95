package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"time"

	"github.com/ssargent/geoimg/pkg/record"
)

// HeaderSize is the fixed size of an encoded document header.
// CRC32(4) + Timestamp(8) + Latitude(8) + Longitude(8) + ImageSize(4)
const HeaderSize = 32

var (
	// ErrCorrupt is returned when a document is truncated or fails its checksum.
	ErrCorrupt = errors.New("corrupt document")

	// ErrTooLarge is returned when an image does not fit the 32 bit size field.
	ErrTooLarge = errors.New("image too large to encode")
)

// Document is the binary form of a record
type Document struct {
	CRC32     uint32  // CRC32 checksum over everything after this field
	Timestamp uint64  // Creation time, Unix nanoseconds
	Latitude  float64 // IEEE 754 bits, stored verbatim
	Longitude float64
	ImageSize uint32
	Image     []byte
}

// DocumentCodec handles serialization and deserialization of documents
type DocumentCodec struct{}

// NewDocumentCodec creates a new document codec instance
func NewDocumentCodec() *DocumentCodec {
	return &DocumentCodec{}
}

// NewDocument builds a document from a record. The image slice is shared, not copied.
func NewDocument(rec *record.Record) (*Document, error) {
	if uint64(len(rec.ImageData)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(rec.ImageData))
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	d := &Document{
		Timestamp: uint64(createdAt.UnixNano()),
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
		ImageSize: uint32(len(rec.ImageData)),
		Image:     rec.ImageData,
	}
	d.CRC32 = d.calculateCRC32()
	return d, nil
}

// Encode serializes a record into the binary document format
// Format: [CRC32(4)][Timestamp(8)][Latitude(8)][Longitude(8)][ImageSize(4)][Image]
func (c *DocumentCodec) Encode(rec *record.Record) ([]byte, error) {
	d, err := NewDocument(rec)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, d.Size())
	binary.LittleEndian.PutUint32(buf[0:], d.CRC32)
	d.putHeaderFields(buf[4:HeaderSize])
	copy(buf[HeaderSize:], d.Image)

	return buf, nil
}

// Decode deserializes and validates a binary document. The returned Image
// aliases data.
func (c *DocumentCodec) Decode(data []byte) (*Document, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}

	d := &Document{}
	d.CRC32 = binary.LittleEndian.Uint32(data[0:4])
	d.Timestamp = binary.LittleEndian.Uint64(data[4:12])
	d.Latitude = math.Float64frombits(binary.LittleEndian.Uint64(data[12:20]))
	d.Longitude = math.Float64frombits(binary.LittleEndian.Uint64(data[20:28]))
	d.ImageSize = binary.LittleEndian.Uint32(data[28:32])

	if uint64(len(data)) != HeaderSize+uint64(d.ImageSize) {
		return nil, fmt.Errorf("%w: image size %d does not match %d payload bytes", ErrCorrupt, d.ImageSize, len(data)-HeaderSize)
	}
	d.Image = data[HeaderSize:]

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// DecodeRecord decodes data and converts it into a record carrying id.
func (c *DocumentCodec) DecodeRecord(id record.ID, data []byte) (*record.Record, error) {
	d, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	return d.Record(id), nil
}

// Validate checks the integrity of a document using CRC32
func (d *Document) Validate() error {
	if sum := d.calculateCRC32(); d.CRC32 != sum {
		return fmt.Errorf("%w: CRC32 mismatch: %d != %d", ErrCorrupt, d.CRC32, sum)
	}
	return nil
}

// Record converts the document into a record with the given id
func (d *Document) Record(id record.ID) *record.Record {
	return &record.Record{
		ID:        id,
		ImageData: d.Image,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		CreatedAt: time.Unix(0, int64(d.Timestamp)).UTC(),
	}
}

// Size returns the total size of the document when encoded
func (d *Document) Size() int {
	return HeaderSize + len(d.Image)
}

func (d *Document) putHeaderFields(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:], d.Timestamp)
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(d.Latitude))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(d.Longitude))
	binary.LittleEndian.PutUint32(buf[24:], d.ImageSize)
}

// calculateCRC32 computes the checksum over Timestamp, coordinates, ImageSize and Image
func (d *Document) calculateCRC32() uint32 {
	var header [HeaderSize - 4]byte
	d.putHeaderFields(header[:])

	crc := crc32.NewIEEE()
	_, _ = crc.Write(header[:])
	_, _ = crc.Write(d.Image)
	return crc.Sum32()
}
