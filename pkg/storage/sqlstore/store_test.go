package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ssargent/geoimg/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T, dsn string) *Store {
	t.Helper()
	store, err := Open(context.Background(), Options{Dialect: SQLite, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// exerciseStore runs the behaviour every dialect must share
func exerciseStore(t *testing.T, store *Store) {
	ctx := context.Background()

	t.Run("insert and find", func(t *testing.T) {
		png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0xFF}
		id, err := store.Insert(ctx, &record.Record{ImageData: png, Latitude: 48.8566, Longitude: 2.3522})
		require.NoError(t, err)

		got, err := store.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, png, got.ImageData)
		assert.Equal(t, 48.8566, got.Latitude)
		assert.Equal(t, 2.3522, got.Longitude)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("extreme coordinates round trip", func(t *testing.T) {
		id, err := store.Insert(ctx, &record.Record{ImageData: []byte("x"), Latitude: -1234.5678, Longitude: 1e-300})
		require.NoError(t, err)

		got, err := store.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, -1234.5678, got.Latitude)
		assert.Equal(t, 1e-300, got.Longitude)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := store.FindByID(ctx, record.NilID)
		assert.ErrorIs(t, err, record.ErrNotFound)
	})

	t.Run("invalid record", func(t *testing.T) {
		_, err := store.Insert(ctx, &record.Record{Latitude: 1})
		assert.ErrorIs(t, err, record.ErrInvalidRecord)
	})
}

func TestSQLiteStore_Memory(t *testing.T) {
	exerciseStore(t, openSQLite(t, ":memory:"))
}

func TestSQLiteStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geoimg.db")
	ctx := context.Background()

	store, err := Open(ctx, Options{Dialect: SQLite, DSN: path})
	require.NoError(t, err)
	id, err := store.Insert(ctx, &record.Record{ImageData: []byte("on disk"), Latitude: 10, Longitude: 20})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := openSQLite(t, path)
	got, err := reopened.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("on disk"), got.ImageData)
}

func TestSQLiteStore_ConcurrentInserts(t *testing.T) {
	store := openSQLite(t, ":memory:")
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := make(map[record.ID]struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.Insert(ctx, &record.Record{ImageData: []byte{byte(i)}, Latitude: float64(i)})
			assert.NoError(t, err)
			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	assert.Len(t, ids, 20)
}

func TestMigrations(t *testing.T) {
	store, err := Open(context.Background(), Options{Dialect: SQLite, DSN: ":memory:", SkipMigrations: true})
	require.NoError(t, err)
	defer store.Close()

	_, _, ok, err := store.Version()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.MigrateUp())
	require.NoError(t, store.MigrateUp(), "a second run is a no-op")
	assert.Zero(t, store.db.Stats().InUse, "migrations hand every connection back")

	version, dirty, ok, err := store.Version()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
	assert.Zero(t, store.db.Stats().InUse)

	require.NoError(t, store.MigrateDown())
	_, err = store.Insert(context.Background(), &record.Record{ImageData: []byte("x")})
	assert.Error(t, err, "the images table is gone after down")
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Options{Dialect: SQLite})
	assert.Error(t, err)
}

// TestPostgresStore_Integration requires a running PostgreSQL instance.
// Skip if GEOIMG_TEST_POSTGRES_DSN is unset or the server is unreachable.
func TestPostgresStore_Integration(t *testing.T) {
	dsn := os.Getenv("GEOIMG_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("GEOIMG_TEST_POSTGRES_DSN not set")
	}

	store, err := Open(context.Background(), Options{Dialect: Postgres, DSN: dsn, MaxOpenConns: 1})
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	defer store.Close()

	assert.Zero(t, store.db.Stats().InUse, "the migration connection is released")
	_, _, ok, err := store.Version()
	require.NoError(t, err)
	assert.True(t, ok)

	// a single connection pool still serves queries after migrating
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	id, err := store.Insert(ctx, &record.Record{ImageData: []byte("png"), Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	_, err = store.FindByID(ctx, id)
	require.NoError(t, err)

	exerciseStore(t, store)
}
