package catalog

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/biovault/internal/database"
	"github.com/PaulBabatuyi/biovault/internal/models"
	"github.com/PaulBabatuyi/biovault/internal/storage"
	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

// flakyRemover fails removal of the listed paths and delegates the rest.
type flakyRemover struct {
	next    Remover
	failing map[string]bool
	calls   []string
}

func (f *flakyRemover) Remove(path string) error {
	f.calls = append(f.calls, path)
	if f.failing[path] {
		return &vaulterr.StorageIOError{Op: "remove", Path: path, Err: os.ErrPermission}
	}
	return f.next.Remove(path)
}

type brokenStore struct {
	RecordStore
	err error
}

func (b brokenStore) FindFiles(context.Context, string, string) ([]models.FileRecord, error) {
	return nil, b.err
}

func (b brokenStore) InsertFile(context.Context, models.FileRecord) (models.FileRecord, error) {
	return models.FileRecord{}, b.err
}

type fixture struct {
	catalog *Catalog
	store   *database.BadgerDB
	fs      *storage.FilesystemStorage
	remover *flakyRemover
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := database.NewBadgerDB(database.BadgerConfig{InMemory: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fs, err := storage.NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	remover := &flakyRemover{next: fs, failing: map[string]bool{}}
	return &fixture{catalog: New(store, remover, zap.NewNop()), store: store, fs: fs, remover: remover}
}

// put writes content at the user's sanitized path and records a row for it.
func (f *fixture) put(t *testing.T, userID, name, content string) models.FileRecord {
	t.Helper()
	_, err := f.fs.EnsureUserRoot(userID)
	require.NoError(t, err)
	path := f.fs.ResolvePath(userID, storage.Sanitize(name))
	_, err = f.fs.Write(path, strings.NewReader(content), 0)
	require.NoError(t, err)

	rec, err := f.catalog.Insert(context.Background(), models.FileRecord{
		UserID: userID, Filename: name, SizeDisplay: "x", StoragePath: path,
	})
	require.NoError(t, err)
	return rec
}

func TestInsertSetsIDAndTime(t *testing.T) {
	f := newFixture(t)

	rec := f.put(t, "alice", "a.txt", "hello")
	assert.NotZero(t, rec.ID)
	assert.False(t, rec.UploadedAt.IsZero())
}

func TestQueryNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.put(t, "alice", "one.txt", "1")
	f.put(t, "alice", "two.txt", "2")
	f.put(t, "bob", "three.txt", "3")

	records, err := f.catalog.Query(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "two.txt", records[0].Filename)
	assert.Equal(t, "one.txt", records[1].Filename)
}

func TestRepeatedNameKeepsDuplicateRows(t *testing.T) {
	f := newFixture(t)
	first := f.put(t, "alice", "a.txt", "v1")
	second := f.put(t, "alice", "a.txt", "v2")

	found, err := f.catalog.FindByName(context.Background(), "alice", "a.txt")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, first.StoragePath, second.StoragePath)

	data, err := os.ReadFile(first.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestDeleteByNameRemovesRowsAndFiles(t *testing.T) {
	f := newFixture(t)
	rec := f.put(t, "alice", "a.txt", "v1")
	f.put(t, "alice", "a.txt", "v2")
	keep := f.put(t, "alice", "b.txt", "other")

	result, err := f.catalog.DeleteByName(context.Background(), "alice", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, models.Deleted, result.Status)
	assert.True(t, result.Clean())
	assert.Equal(t, 2, result.Rows)
	assert.Len(t, f.remover.calls, 1, "shared path removed once")

	found, err := f.catalog.FindByName(context.Background(), "alice", "a.txt")
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.NoFileExists(t, rec.StoragePath)
	assert.FileExists(t, keep.StoragePath)
}

func TestDeleteByNameWithNoRowsIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.DeleteByName(context.Background(), "alice", "missing.txt")
	assert.ErrorIs(t, err, vaulterr.ErrNotFound)
}

func TestDeleteByNamePartialFailureStillDeletesRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.put(t, "alice", "a.txt", "one")
	// a second row with the same name but a different physical file, as left
	// behind by an earlier storage layout
	_, err := f.fs.Write(f.fs.ResolvePath("alice", "a-legacy.txt"), strings.NewReader("two"), 0)
	require.NoError(t, err)
	b, err := f.catalog.Insert(ctx, models.FileRecord{
		UserID: "alice", Filename: "a.txt", SizeDisplay: "x", StoragePath: f.fs.ResolvePath("alice", "a-legacy.txt"),
	})
	require.NoError(t, err)

	f.remover.failing[b.StoragePath] = true

	result, err := f.catalog.DeleteByName(ctx, "alice", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, models.DeletedWithOrphans, result.Status)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, []string{b.StoragePath}, result.Orphans)

	found, err := f.catalog.FindByName(ctx, "alice", "a.txt")
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.NoFileExists(t, a.StoragePath)
	assert.FileExists(t, b.StoragePath, "orphan stays on disk")
}

func TestDeleteByNameMissingFileIsClean(t *testing.T) {
	f := newFixture(t)
	rec := f.put(t, "alice", "a.txt", "x")
	require.NoError(t, os.Remove(rec.StoragePath))

	result, err := f.catalog.DeleteByName(context.Background(), "alice", "a.txt")
	require.NoError(t, err)
	assert.True(t, result.Clean())
}

func TestStoreFailuresAreCatalogErrors(t *testing.T) {
	cause := errors.New("connection refused")
	c := New(brokenStore{err: cause}, &flakyRemover{}, zap.NewNop())

	_, err := c.Insert(context.Background(), models.FileRecord{UserID: "u"})
	assert.ErrorIs(t, err, vaulterr.ErrCatalog)
	assert.ErrorIs(t, err, cause)

	_, err = c.DeleteByName(context.Background(), "u", "a")
	assert.ErrorIs(t, err, vaulterr.ErrCatalog)
}
