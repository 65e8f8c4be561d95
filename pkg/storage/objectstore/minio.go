package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/ssargent/geoimg/pkg/record"
)

// MinIOStore is a record.Store backed by MinIO or another S3 compatible server
type MinIOStore struct {
	layout
	client *minio.Client
}

var _ record.Store = (*MinIOStore)(nil)

// NewMinIOStore creates a MinIO store. prefix is prepended to every key.
func NewMinIOStore(client *minio.Client, bucket, prefix string) *MinIOStore {
	return &MinIOStore{layout: newLayout(bucket, prefix), client: client}
}

// EnsureBucket creates the bucket when it does not exist yet
func (s *MinIOStore) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Insert writes the encoded record as a single object
func (s *MinIOStore) Insert(ctx context.Context, rec *record.Record) (record.ID, error) {
	id, key, body, err := s.encode(rec)
	if err != nil {
		return record.NilID, err
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: ContentType,
	})
	if err != nil {
		return record.NilID, fmt.Errorf("failed to put record %s: %w", id, err)
	}
	return id, nil
}

// FindByID reads and decodes the object for id
func (s *MinIOStore) FindByID(ctx context.Context, id record.ID) (*record.Record, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(id, err)
	}
	defer obj.Close()

	// GetObject is lazy, a missing key surfaces on the first read
	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapError(id, err)
	}
	return s.decode(id, body)
}

func (s *MinIOStore) mapError(id record.ID, err error) error {
	errResp := minio.ToErrorResponse(err)
	if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
		return record.ErrNotFound
	}
	return fmt.Errorf("failed to get record %s: %w", id, err)
}

// Close is a no-op
func (s *MinIOStore) Close() error {
	return nil
}
