// Package codec provides the binary document format used by the key-value
// and object storage backends.
//
// A document holds one image record: its creation time, its coordinates and
// the raw image bytes. The record id is not part of the document; backends
// store it as the key or object name.
//
// # Document Format
//
//	[CRC32(4)][Timestamp(8)][Latitude(8)][Longitude(8)][ImageSize(4)][Image]
//
// Fields:
//   - CRC32: IEEE checksum over every byte that follows it (little-endian)
//   - Timestamp: creation time in Unix nanoseconds (little-endian)
//   - Latitude, Longitude: IEEE 754 float64 bits (little-endian)
//   - ImageSize: length of Image in bytes (little-endian)
//   - Image: raw image bytes
//
// The total document size is 32 bytes plus the image length.
//
// # Usage
//
//	c := codec.NewDocumentCodec()
//
//	encoded, err := c.Encode(rec)
//	if err != nil {
//	    return err
//	}
//
//	rec, err = c.DecodeRecord(id, encoded)
//	if errors.Is(err, codec.ErrCorrupt) {
//	    // truncated or damaged document
//	}
//
// Decode validates the checksum, so a document that decodes without error is
// exactly the one that was encoded. The decoded image aliases the input
// buffer; callers that reuse the buffer must copy it first.
package codec
