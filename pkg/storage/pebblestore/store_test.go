package pebblestore

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/ssargent/geoimg/pkg/codec"
	"github.com/ssargent/geoimg/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *Store {
	t.Helper()
	store, err := Open("geoimg", Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_InsertAndFind(t *testing.T) {
	store := openMem(t)
	ctx := context.Background()

	rec := &record.Record{ImageData: []byte("\x89PNG\r\n\x1a\nabc"), Latitude: 51.5074, Longitude: -0.1278}
	id, err := store.Insert(ctx, rec)
	require.NoError(t, err)
	assert.False(t, id.IsNil())
	assert.True(t, rec.ID.IsNil(), "insert must not modify the caller's record")

	got, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, rec.ImageData, got.ImageData)
	assert.Equal(t, rec.Latitude, got.Latitude)
	assert.Equal(t, rec.Longitude, got.Longitude)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_FindMissing(t *testing.T) {
	store := openMem(t)

	id, err := record.ParseID("000000000000000000000000")
	require.NoError(t, err)

	_, err = store.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, record.ErrNotFound)
}

func TestStore_InsertRejectsInvalid(t *testing.T) {
	store := openMem(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, &record.Record{})
	assert.ErrorIs(t, err, record.ErrInvalidRecord)

	_, err = store.Insert(ctx, &record.Record{ID: record.NewID(), ImageData: []byte("x")})
	assert.ErrorIs(t, err, record.ErrIDAssigned)
}

func TestStore_DistinctIDs(t *testing.T) {
	store := openMem(t)
	ctx := context.Background()

	rec := &record.Record{ImageData: []byte("same"), Latitude: 1, Longitude: 2}
	first, err := store.Insert(ctx, rec)
	require.NoError(t, err)
	second, err := store.Insert(ctx, rec)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestStore_ConcurrentInserts(t *testing.T) {
	store := openMem(t)
	ctx := context.Background()

	const n = 50
	ids := make([]record.ID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.Insert(ctx, &record.Record{ImageData: []byte{byte(i), 0xAA}, Latitude: float64(i)})
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[record.ID]bool, n)
	for i, id := range ids {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		got, err := store.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i), 0xAA}, got.ImageData)
		assert.Equal(t, float64(i), got.Latitude)
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	fs := vfs.NewMem()
	ctx := context.Background()

	store, err := Open("geoimg", Options{FS: fs, Sync: true})
	require.NoError(t, err)
	id, err := store.Insert(ctx, &record.Record{ImageData: []byte("persist"), Latitude: -33.86, Longitude: 151.21})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open("geoimg", Options{FS: fs})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("persist"), got.ImageData)
	assert.Equal(t, -33.86, got.Latitude)
}

func TestStore_CorruptValue(t *testing.T) {
	store := openMem(t)
	ctx := context.Background()

	id, err := store.Insert(ctx, &record.Record{ImageData: []byte("good"), Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	require.NoError(t, store.db.Set(id.Bytes(), bytes.Repeat([]byte{0x01}, 40), nil))

	_, err = store.FindByID(ctx, id)
	assert.ErrorIs(t, err, codec.ErrCorrupt)
}

func TestStore_CanceledContext(t *testing.T) {
	store := openMem(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Insert(ctx, &record.Record{ImageData: []byte("x")})
	assert.ErrorIs(t, err, context.Canceled)
}
