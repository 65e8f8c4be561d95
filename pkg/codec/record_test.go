package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ssargent/geoimg/pkg/record"
)

func TestDocumentCodec_EncodeDecodeRoundTrip(t *testing.T) {
	codec := NewDocumentCodec()
	createdAt := time.Date(2025, 9, 13, 18, 30, 0, 0, time.UTC)

	testCases := []struct {
		name string
		rec  record.Record
	}{
		{
			name: "scenario payload",
			rec:  record.Record{ImageData: []byte("PNGDATA"), Latitude: 43.47, Longitude: -80.54},
		},
		{
			name: "zero coordinates",
			rec:  record.Record{ImageData: []byte{0x89, 'P', 'N', 'G'}},
		},
		{
			name: "binary data",
			rec:  record.Record{ImageData: []byte{0x00, 0x01, 0xFF, 0xFE}, Latitude: -90, Longitude: 180},
		},
		{
			name: "large image",
			rec:  record.Record{ImageData: bytes.Repeat([]byte("i"), 1<<20), Latitude: 1e-7, Longitude: -1e-7},
		},
		{
			name: "out of range coordinates",
			rec:  record.Record{ImageData: []byte("x"), Latitude: 1234.5678, Longitude: -98765.4321},
		},
		{
			name: "negative zero",
			rec:  record.Record{ImageData: []byte("x"), Latitude: math.Copysign(0, -1)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := tc.rec
			rec.CreatedAt = createdAt

			encoded, err := codec.Encode(&rec)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if len(encoded) != HeaderSize+len(rec.ImageData) {
				t.Errorf("Encoded length = %d, want %d", len(encoded), HeaderSize+len(rec.ImageData))
			}

			doc, err := codec.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if !bytes.Equal(doc.Image, rec.ImageData) {
				t.Errorf("Image mismatch")
			}
			if math.Float64bits(doc.Latitude) != math.Float64bits(rec.Latitude) {
				t.Errorf("Latitude mismatch: got %v, want %v", doc.Latitude, rec.Latitude)
			}
			if math.Float64bits(doc.Longitude) != math.Float64bits(rec.Longitude) {
				t.Errorf("Longitude mismatch: got %v, want %v", doc.Longitude, rec.Longitude)
			}
			if doc.ImageSize != uint32(len(rec.ImageData)) {
				t.Errorf("ImageSize mismatch: got %d, want %d", doc.ImageSize, len(rec.ImageData))
			}
			if doc.Timestamp != uint64(createdAt.UnixNano()) {
				t.Errorf("Timestamp mismatch: got %d, want %d", doc.Timestamp, createdAt.UnixNano())
			}
		})
	}
}

func TestDocumentCodec_DecodeRecord(t *testing.T) {
	codec := NewDocumentCodec()
	id := record.NewID()
	createdAt := time.Unix(1700000000, 0).UTC()

	encoded, err := codec.Encode(&record.Record{
		ImageData: []byte("PNGDATA"),
		Latitude:  43.47,
		Longitude: -80.54,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	rec, err := codec.DecodeRecord(id, encoded)
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	if rec.ID != id {
		t.Errorf("ID = %s, want %s", rec.ID, id)
	}
	if string(rec.ImageData) != "PNGDATA" {
		t.Errorf("ImageData = %q", rec.ImageData)
	}
	if rec.Latitude != 43.47 || rec.Longitude != -80.54 {
		t.Errorf("coordinates = (%v, %v)", rec.Latitude, rec.Longitude)
	}
	if !rec.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, createdAt)
	}
}

func TestDocumentCodec_DefaultsTimestamp(t *testing.T) {
	codec := NewDocumentCodec()

	encoded, err := codec.Encode(&record.Record{ImageData: []byte("x")})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	doc, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	now := time.Now().UnixNano()
	if doc.Timestamp > uint64(now) || doc.Timestamp < uint64(now-int64(time.Minute)) {
		t.Errorf("Timestamp seems unreasonable: %d", doc.Timestamp)
	}
}

func TestDocumentCodec_CRCValidation(t *testing.T) {
	codec := NewDocumentCodec()
	rec := &record.Record{ImageData: []byte("test image"), Latitude: 1.5, Longitude: 2.5}

	corruptions := []struct {
		name   string
		offset int
	}{
		{"corrupted CRC", 0},
		{"corrupted timestamp", 4},
		{"corrupted latitude", 12},
		{"corrupted longitude", 20},
		{"corrupted image data", HeaderSize},
	}

	for _, c := range corruptions {
		t.Run(c.name, func(t *testing.T) {
			encoded, err := codec.Encode(rec)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			encoded[c.offset] ^= 0xFF

			_, err = codec.Decode(encoded)
			if !errors.Is(err, ErrCorrupt) {
				t.Errorf("Decode error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestDocumentCodec_MalformedData(t *testing.T) {
	codec := NewDocumentCodec()

	valid, err := codec.Encode(&record.Record{ImageData: []byte("image bytes")})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	t.Run("empty", func(t *testing.T) {
		if _, err := codec.Decode(nil); !errors.Is(err, ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})

	t.Run("shorter than header", func(t *testing.T) {
		if _, err := codec.Decode(valid[:HeaderSize-1]); !errors.Is(err, ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})

	t.Run("truncated image", func(t *testing.T) {
		if _, err := codec.Decode(valid[:len(valid)-1]); !errors.Is(err, ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})

	t.Run("trailing bytes", func(t *testing.T) {
		extended := append(append([]byte{}, valid...), 0x00)
		if _, err := codec.Decode(extended); !errors.Is(err, ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})

	t.Run("size field larger than payload", func(t *testing.T) {
		tampered := append([]byte{}, valid...)
		binary.LittleEndian.PutUint32(tampered[28:], math.MaxUint32)
		if _, err := codec.Decode(tampered); !errors.Is(err, ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})
}

func TestDocument_Size(t *testing.T) {
	doc, err := NewDocument(&record.Record{ImageData: []byte("12345")})
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	if doc.Size() != HeaderSize+5 {
		t.Errorf("Size = %d, want %d", doc.Size(), HeaderSize+5)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("fresh document failed validation: %v", err)
	}
}
