package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/biovault/internal/models"
	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

// rowStore is the method set both backends provide.
type rowStore interface {
	InsertFile(ctx context.Context, rec models.FileRecord) (models.FileRecord, error)
	ListFiles(ctx context.Context, userID string) ([]models.FileRecord, error)
	FindFiles(ctx context.Context, userID, filename string) ([]models.FileRecord, error)
	DeleteFiles(ctx context.Context, userID string, ids []int64) (int, error)
	InsertActivity(ctx context.Context, entry models.ActivityEntry) error
	ListActivity(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error)
	Ping(ctx context.Context) error
}

func newBadgerStore(t *testing.T) *BadgerDB {
	t.Helper()
	db, err := NewBadgerDB(BadgerConfig{InMemory: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newPostgresStore(t *testing.T) *PostgresDB {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("TEST_INTEGRATION not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("biovault_test"),
		postgres.WithUsername("biovault"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := NewPostgresDB(ctx, PostgresConfig{DSN: dsn, MaxOpenConns: 4, AutoMigrate: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// second run is a no-op
	require.NoError(t, db.Migrate())
	return db
}

func TestBadgerStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) rowStore { return newBadgerStore(t) })
}

func TestBadgerRejectsSeparatorInUserID(t *testing.T) {
	ctx := context.Background()
	store := newBadgerStore(t)

	_, err := store.InsertFile(ctx, models.FileRecord{
		UserID: "alice", Filename: "a.txt", SizeDisplay: "1.0 B", StoragePath: "/x/alice/a.txt",
	})
	require.NoError(t, err)

	_, err = store.InsertFile(ctx, models.FileRecord{
		UserID: "alice\x00x", Filename: "b.txt", SizeDisplay: "1.0 B", StoragePath: "/x/b.txt",
	})
	assert.ErrorIs(t, err, vaulterr.ErrValidation)

	err = store.InsertActivity(ctx, models.ActivityEntry{UserID: "alice\x00x", Action: models.ActionLogin})
	assert.ErrorIs(t, err, vaulterr.ErrValidation)

	_, err = store.ListFiles(ctx, "alice\x00x")
	assert.ErrorIs(t, err, vaulterr.ErrValidation)
	_, err = store.DeleteFiles(ctx, "alice\x00x", []int64{1})
	assert.ErrorIs(t, err, vaulterr.ErrValidation)

	files, err := store.ListFiles(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.txt", files[0].Filename)
}

func TestPostgresStore(t *testing.T) {
	db := newPostgresStore(t)
	runStoreContract(t, func(t *testing.T) rowStore {
		_, err := db.db.ExecContext(context.Background(), "TRUNCATE user_files, activity_logs")
		require.NoError(t, err)
		return db
	})
}

func runStoreContract(t *testing.T, open func(t *testing.T) rowStore) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("insert assigns ids and keeps duplicates", func(t *testing.T) {
		store := open(t)

		first, err := store.InsertFile(ctx, models.FileRecord{
			UserID: "u1", Filename: "a.txt", SizeDisplay: "1.0 B", StoragePath: "/s/u1/a.txt", UploadedAt: base,
		})
		require.NoError(t, err)
		second, err := store.InsertFile(ctx, models.FileRecord{
			UserID: "u1", Filename: "a.txt", SizeDisplay: "2.0 B", StoragePath: "/s/u1/a.txt", UploadedAt: base.Add(time.Second),
		})
		require.NoError(t, err)

		assert.NotZero(t, first.ID)
		assert.Greater(t, second.ID, first.ID)

		found, err := store.FindFiles(ctx, "u1", "a.txt")
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, second.ID, found[0].ID, "newest first")
		assert.Equal(t, "/s/u1/a.txt", found[1].StoragePath)
		assert.True(t, base.Equal(found[1].UploadedAt))
	})

	t.Run("list is per user and newest first", func(t *testing.T) {
		store := open(t)

		for i, name := range []string{"old.png", "mid.pdf", "new.zip"} {
			_, err := store.InsertFile(ctx, models.FileRecord{
				UserID: "u1", Filename: name, SizeDisplay: "0.0 B", StoragePath: "/s/u1/" + name,
				UploadedAt: base.Add(time.Duration(i) * time.Minute),
			})
			require.NoError(t, err)
		}
		_, err := store.InsertFile(ctx, models.FileRecord{
			UserID: "u2", Filename: "other.txt", SizeDisplay: "0.0 B", StoragePath: "/s/u2/other.txt", UploadedAt: base,
		})
		require.NoError(t, err)

		files, err := store.ListFiles(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, files, 3)
		assert.Equal(t, []string{"new.zip", "mid.pdf", "old.png"},
			[]string{files[0].Filename, files[1].Filename, files[2].Filename})

		// a user id that prefixes another must not leak rows
		none, err := store.ListFiles(ctx, "u")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("delete removes only the given rows of the user", func(t *testing.T) {
		store := open(t)

		a, err := store.InsertFile(ctx, models.FileRecord{UserID: "u1", Filename: "x", SizeDisplay: "", StoragePath: "/x", UploadedAt: base})
		require.NoError(t, err)
		b, err := store.InsertFile(ctx, models.FileRecord{UserID: "u1", Filename: "x", SizeDisplay: "", StoragePath: "/x", UploadedAt: base})
		require.NoError(t, err)
		other, err := store.InsertFile(ctx, models.FileRecord{UserID: "u2", Filename: "x", SizeDisplay: "", StoragePath: "/y", UploadedAt: base})
		require.NoError(t, err)

		n, err := store.DeleteFiles(ctx, "u1", []int64{a.ID, b.ID, other.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		left, err := store.FindFiles(ctx, "u1", "x")
		require.NoError(t, err)
		assert.Empty(t, left)

		kept, err := store.FindFiles(ctx, "u2", "x")
		require.NoError(t, err)
		assert.Len(t, kept, 1)

		n, err = store.DeleteFiles(ctx, "u1", nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("activity newest first with limit", func(t *testing.T) {
		store := open(t)

		for i := 0; i < 60; i++ {
			require.NoError(t, store.InsertActivity(ctx, models.ActivityEntry{
				UserID: "u1", Action: models.ActionUpload, Details: models.UploadDetails("f"),
				Timestamp: base.Add(time.Duration(i) * time.Second),
			}))
		}
		require.NoError(t, store.InsertActivity(ctx, models.ActivityEntry{
			UserID: "u2", Action: models.ActionLogin, Details: models.LoginDetails, Timestamp: base,
		}))

		entries, err := store.ListActivity(ctx, "u1", 50)
		require.NoError(t, err)
		require.Len(t, entries, 50)
		assert.True(t, base.Add(59*time.Second).Equal(entries[0].Timestamp))
		assert.True(t, base.Add(10*time.Second).Equal(entries[49].Timestamp))
		assert.Equal(t, models.ActionUpload, entries[0].Action)

		other, err := store.ListActivity(ctx, "u2", 50)
		require.NoError(t, err)
		require.Len(t, other, 1)
		assert.Equal(t, models.LoginDetails, other[0].Details)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, open(t).Ping(ctx))
	})
}
