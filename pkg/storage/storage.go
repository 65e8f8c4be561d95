// Package storage opens the record store selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ssargent/geoimg/pkg/config"
	"github.com/ssargent/geoimg/pkg/record"
	"github.com/ssargent/geoimg/pkg/storage/dynamo"
	"github.com/ssargent/geoimg/pkg/storage/objectstore"
	"github.com/ssargent/geoimg/pkg/storage/pebblestore"
	"github.com/ssargent/geoimg/pkg/storage/sqlstore"
)

// Open returns the store for cfg.Backend. Paths derived from the data
// directory must already be resolved (see config.Config.Resolve).
func Open(ctx context.Context, cfg config.Store, logger *slog.Logger) (record.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("opening record store", "backend", cfg.Backend)

	switch cfg.Backend {
	case config.BackendPebble:
		logger.Debug("pebble store", "path", cfg.Pebble.Path, "sync", cfg.Pebble.Sync)
		return pebblestore.Open(cfg.Pebble.Path, pebblestore.Options{Sync: cfg.Pebble.Sync})

	case config.BackendSQLite, config.BackendPostgres:
		return OpenSQL(ctx, cfg, false)

	case config.BackendDynamoDB:
		awsCfg, err := loadAWSConfig(ctx, cfg.DynamoDB.Region)
		if err != nil {
			return nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDB.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDB.Endpoint)
			}
		})
		logger.Debug("dynamodb store", "table", cfg.DynamoDB.Table, "region", awsCfg.Region)
		return dynamo.NewStore(client, cfg.DynamoDB.Table), nil

	case config.BackendS3:
		awsCfg, err := loadAWSConfig(ctx, cfg.S3.Region)
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			}
			o.UsePathStyle = cfg.S3.UsePathStyle
		})
		logger.Debug("s3 store", "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix)
		return objectstore.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix), nil

	case config.BackendMinIO:
		client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.Secure,
			Region: cfg.MinIO.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO client: %w", err)
		}
		store := objectstore.NewMinIOStore(client, cfg.MinIO.Bucket, cfg.MinIO.Prefix)
		if err := store.EnsureBucket(ctx, cfg.MinIO.Region); err != nil {
			return nil, err
		}
		logger.Debug("minio store", "endpoint", cfg.MinIO.Endpoint, "bucket", cfg.MinIO.Bucket)
		return store, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// OpenSQL opens the SQLite or PostgreSQL store, leaving the schema alone when skipMigrations is set
func OpenSQL(ctx context.Context, cfg config.Store, skipMigrations bool) (*sqlstore.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.SQLite.Path); cfg.SQLite.Path != ":memory:" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return sqlstore.Open(ctx, sqlstore.Options{
			Dialect:        sqlstore.SQLite,
			DSN:            cfg.SQLite.Path,
			SkipMigrations: skipMigrations,
		})
	case config.BackendPostgres:
		return sqlstore.Open(ctx, sqlstore.Options{
			Dialect:         sqlstore.Postgres,
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
			SkipMigrations:  skipMigrations,
		})
	default:
		return nil, fmt.Errorf("backend %q is not a SQL store", cfg.Backend)
	}
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}
