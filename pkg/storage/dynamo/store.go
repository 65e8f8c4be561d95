// Package dynamo keeps records as DynamoDB items.
//
// Table schema:
//   - Partition key: id (string), the 24 character hex record id
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name images \
//	  --attribute-definitions AttributeName=id,AttributeType=S \
//	  --key-schema AttributeName=id,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
//
// DynamoDB caps items at 400 KB, so larger images fail on insert.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ssargent/geoimg/pkg/record"
)

const (
	attrID        = "id"
	attrImage     = "image"
	attrLatitude  = "latitude"
	attrLongitude = "longitude"
	attrCreatedAt = "created_at"
)

// ErrIDCollision is returned when an item already exists under a freshly generated id.
var ErrIDCollision = errors.New("record id already exists")

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Store is a record.Store backed by a DynamoDB table
type Store struct {
	client    DDBClient
	tableName string
}

var _ record.Store = (*Store)(nil)

// NewStore creates a store writing to tableName
func NewStore(client DDBClient, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

// Insert writes rec with a conditional put so an existing item is never replaced.
func (s *Store) Insert(ctx context.Context, rec *record.Record) (record.ID, error) {
	id, createdAt, err := record.PrepareInsert(rec)
	if err != nil {
		return record.NilID, err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			attrID:        &types.AttributeValueMemberS{Value: id.String()},
			attrImage:     &types.AttributeValueMemberB{Value: rec.ImageData},
			attrLatitude:  &types.AttributeValueMemberN{Value: formatFloat(rec.Latitude)},
			attrLongitude: &types.AttributeValueMemberN{Value: formatFloat(rec.Longitude)},
			attrCreatedAt: &types.AttributeValueMemberN{Value: strconv.FormatInt(createdAt.UnixNano(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return record.NilID, fmt.Errorf("%w: %s", ErrIDCollision, id)
		}
		return record.NilID, fmt.Errorf("failed to put record %s to DynamoDB: %w", id, err)
	}
	return id, nil
}

// FindByID reads the item stored under id with a strongly consistent read
func (s *Store) FindByID(ctx context.Context, id record.ID) (*record.Record, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			attrID: &types.AttributeValueMemberS{Value: id.String()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s from DynamoDB: %w", id, err)
	}
	if len(resp.Item) == 0 {
		return nil, record.ErrNotFound
	}

	return decodeItem(id, resp.Item)
}

// Close is a no-op, the SDK client holds no resources that need releasing
func (s *Store) Close() error {
	return nil
}

func decodeItem(id record.ID, item map[string]types.AttributeValue) (*record.Record, error) {
	image, ok := item[attrImage].(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("invalid %s attribute in DynamoDB item %s", attrImage, id)
	}
	lat, err := numberAttr(item, attrLatitude)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", id, err)
	}
	lon, err := numberAttr(item, attrLongitude)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", id, err)
	}

	rec := &record.Record{
		ID:        id,
		ImageData: image.Value,
		Latitude:  lat,
		Longitude: lon,
	}
	if created, ok := item[attrCreatedAt].(*types.AttributeValueMemberN); ok {
		nanos, err := strconv.ParseInt(created.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("item %s: failed to parse %s: %w", id, attrCreatedAt, err)
		}
		rec.CreatedAt = time.Unix(0, nanos).UTC()
	}
	return rec, nil
}

func numberAttr(item map[string]types.AttributeValue, name string) (float64, error) {
	attr, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid %s attribute in DynamoDB", name)
	}
	v, err := strconv.ParseFloat(attr.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return v, nil
}

// formatFloat renders the shortest decimal that parses back to the same float64
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
