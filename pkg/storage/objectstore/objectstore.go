// Package objectstore keeps each record as one encoded document object in an
// S3 compatible bucket, under <prefix>/<id>.
package objectstore

import (
	"fmt"
	"path"

	"github.com/ssargent/geoimg/pkg/codec"
	"github.com/ssargent/geoimg/pkg/record"
)

// ContentType is set on every object written
const ContentType = "application/vnd.geoimg.document"

type layout struct {
	bucket string
	prefix string
	codec  *codec.DocumentCodec
}

func newLayout(bucket, prefix string) layout {
	return layout{bucket: bucket, prefix: prefix, codec: codec.NewDocumentCodec()}
}

func (l layout) key(id record.ID) string {
	return path.Join(l.prefix, id.String())
}

// encode prepares rec for insertion and returns its id, key and body
func (l layout) encode(rec *record.Record) (record.ID, string, []byte, error) {
	id, createdAt, err := record.PrepareInsert(rec)
	if err != nil {
		return record.NilID, "", nil, err
	}
	doc := *rec
	doc.CreatedAt = createdAt
	body, err := l.codec.Encode(&doc)
	if err != nil {
		return record.NilID, "", nil, err
	}
	return id, l.key(id), body, nil
}

func (l layout) decode(id record.ID, body []byte) (*record.Record, error) {
	rec, err := l.codec.DecodeRecord(id, body)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", l.key(id), err)
	}
	return rec, nil
}
