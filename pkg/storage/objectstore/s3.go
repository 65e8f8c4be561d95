package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ssargent/geoimg/pkg/record"
)

// S3Client is the subset of *s3.Client the store needs
type S3Client interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store is a record.Store backed by Amazon S3
type S3Store struct {
	layout
	client   S3Client
	uploader *manager.Uploader
}

var _ record.Store = (*S3Store)(nil)

// NewS3Store creates an S3 store. prefix is prepended to every key (e.g. "images/").
func NewS3Store(client S3Client, bucket, prefix string) *S3Store {
	return &S3Store{
		layout:   newLayout(bucket, prefix),
		client:   client,
		uploader: manager.NewUploader(client),
	}
}

// Insert uploads the encoded record. If-None-Match keeps an existing object from being replaced.
func (s *S3Store) Insert(ctx context.Context, rec *record.Record) (record.ID, error) {
	id, key, body, err := s.encode(rec)
	if err != nil {
		return record.NilID, err
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(ContentType),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		return record.NilID, fmt.Errorf("failed to upload record %s: %w", id, err)
	}
	return id, nil
}

// FindByID downloads and decodes the object for id
func (s *S3Store) FindByID(ctx context.Context, id record.ID) (*record.Record, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, record.ErrNotFound
		}
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, record.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	return s.decode(id, body)
}

// Close is a no-op
func (s *S3Store) Close() error {
	return nil
}
