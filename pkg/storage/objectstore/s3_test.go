package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ssargent/geoimg/pkg/codec"
	"github.com/ssargent/geoimg/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockS3Client mocks the S3 calls made by S3Store and its uploader.
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.UploadPartOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.CreateMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.CompleteMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.AbortMultipartUploadOutput)
	return out, args.Error(1)
}

func TestS3Store_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	mockClient := new(MockS3Client)
	store := NewS3Store(mockClient, "test-bucket", "images")

	var (
		putKey  string
		putBody []byte
	)
	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Bucket == "test-bucket" &&
			strings.HasPrefix(*input.Key, "images/") &&
			aws.ToString(input.IfNoneMatch) == "*" &&
			aws.ToString(input.ContentType) == ContentType
	})).Run(func(args mock.Arguments) {
		input := args.Get(1).(*s3.PutObjectInput)
		putKey = *input.Key
		putBody, _ = io.ReadAll(input.Body)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	id, err := store.Insert(ctx, &record.Record{ImageData: []byte("png bytes"), Latitude: 40.7128, Longitude: -74.006})
	require.NoError(t, err)
	assert.Equal(t, "images/"+id.String(), putKey)

	doc, err := codec.NewDocumentCodec().Decode(putBody)
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), doc.Image)

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == putKey
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(putBody))}, nil).Once()

	got, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, []byte("png bytes"), got.ImageData)
	assert.Equal(t, 40.7128, got.Latitude)
	assert.Equal(t, -74.006, got.Longitude)

	mockClient.AssertExpectations(t)
}

func TestS3Store_NotFound(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewS3Store(mockClient, "test-bucket", "images")

	t.Run("NoSuchKey", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{}).Once()

		_, err := store.FindByID(context.Background(), record.NewID())
		assert.ErrorIs(t, err, record.ErrNotFound)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NotFound{}).Once()

		_, err := store.FindByID(context.Background(), record.NewID())
		assert.ErrorIs(t, err, record.ErrNotFound)
	})
}

func TestS3Store_Errors(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewS3Store(mockClient, "test-bucket", "")

	t.Run("get failure", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied")).Once()

		_, err := store.FindByID(context.Background(), record.NewID())
		require.Error(t, err)
		assert.NotErrorIs(t, err, record.ErrNotFound)
		assert.Contains(t, err.Error(), "access denied")
	})

	t.Run("corrupt object", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.Anything).
			Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("garbage"))}, nil).Once()

		_, err := store.FindByID(context.Background(), record.NewID())
		assert.ErrorIs(t, err, codec.ErrCorrupt)
	})

	t.Run("invalid record never reaches S3", func(t *testing.T) {
		_, err := store.Insert(context.Background(), &record.Record{Latitude: 1})
		assert.ErrorIs(t, err, record.ErrInvalidRecord)
		mockClient.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
	})
}

func TestLayoutKey(t *testing.T) {
	id, err := record.ParseID("0123456789abcdef01234567")
	require.NoError(t, err)

	assert.Equal(t, "0123456789abcdef01234567", newLayout("b", "").key(id))
	assert.Equal(t, "geoimg/0123456789abcdef01234567", newLayout("b", "geoimg/").key(id))
}
