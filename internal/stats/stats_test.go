package stats

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/biovault/internal/models"
	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

type fakeSizer map[string]int64

func (f fakeSizer) Size(path string) (int64, error) {
	if size, ok := f[path]; ok {
		if size < 0 {
			return 0, &vaulterr.StorageIOError{Op: "stat", Path: path, Err: os.ErrPermission}
		}
		return size, nil
	}
	return 0, &vaulterr.StorageIOError{Op: "stat", Path: path, Err: os.ErrNotExist}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.0 B"},
		{1, "1.0 B"},
		{1023, "1023.0 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
		{1 << 40, "1.0 TB"},
		{1 << 50, "1024.0 TB"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSize(tt.in))
		})
	}
}

func TestQuotaPercent(t *testing.T) {
	assert.Equal(t, 0.0, QuotaPercent(0))
	assert.Equal(t, 1.0, QuotaPercent(1))
	assert.Equal(t, 100.0, QuotaPercent(QuotaBytes))
	assert.Equal(t, 100.0, QuotaPercent(2*QuotaBytes))
	assert.InDelta(t, 50.0, QuotaPercent(QuotaBytes/2), 1e-9)
	assert.InDelta(t, 1.5, QuotaPercent(QuotaBytes*15/1000), 1e-9)
}

func TestCategorize(t *testing.T) {
	tests := map[string]models.Category{
		"photo.JPG":      models.CategoryImages,
		"anim.gif":       models.CategoryImages,
		"clip.mov":       models.CategoryVideos,
		"thesis.docx":    models.CategoryDocuments,
		"notes.txt":      models.CategoryDocuments,
		"vault.enc":      models.CategorySecrets,
		"backup.tar.rar": models.CategorySecrets,
		"a.xyz":          models.CategoryNone,
		"README":         models.CategoryNone,
		"trailingdot.":   models.CategoryNone,
	}
	for name, want := range tests {
		assert.Equal(t, want, Categorize(name), name)
	}
}

func TestComputeUsesLiveSizes(t *testing.T) {
	sizer := fakeSizer{"/s/u/a.png": 2048, "/s/u/b.mp4": 1024, "/s/u/a.xyz": 512, "/s/u/c.zip": 0}
	agg := NewAggregator(sizer, zap.NewNop())

	records := []models.FileRecord{
		{Filename: "a.png", StoragePath: "/s/u/a.png", SizeDisplay: "999.0 GB"},
		{Filename: "b.mp4", StoragePath: "/s/u/b.mp4"},
		{Filename: "a.xyz", StoragePath: "/s/u/a.xyz"},
		{Filename: "c.zip", StoragePath: "/s/u/c.zip"},
		{Filename: "gone.pdf", StoragePath: "/s/u/gone.pdf"},
	}

	got, err := agg.Compute(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, int64(3584), got.TotalBytes)
	assert.Equal(t, "3.5 KB", got.TotalDisplay)
	assert.Equal(t, 1.0, got.QuotaPercent)
	assert.Equal(t, 1, got.Images)
	assert.Equal(t, 1, got.Videos)
	assert.Equal(t, 1, got.Documents)
	assert.Equal(t, 1, got.Secrets)
}

func TestComputeUnknownExtensionCountsOnlyTowardTotal(t *testing.T) {
	agg := NewAggregator(fakeSizer{"/s/u/a.xyz": 100}, zap.NewNop())

	got, err := agg.Compute(context.Background(), []models.FileRecord{{Filename: "a.xyz", StoragePath: "/s/u/a.xyz"}})
	require.NoError(t, err)

	assert.Equal(t, int64(100), got.TotalBytes)
	assert.Zero(t, got.Images+got.Videos+got.Documents+got.Secrets)
}

func TestComputeStatFailureCountsAsZero(t *testing.T) {
	agg := NewAggregator(fakeSizer{"/s/u/locked.txt": -1, "/s/u/ok.txt": 10}, zap.NewNop())

	got, err := agg.Compute(context.Background(), []models.FileRecord{
		{Filename: "locked.txt", StoragePath: "/s/u/locked.txt"},
		{Filename: "ok.txt", StoragePath: "/s/u/ok.txt"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.TotalBytes)
	assert.Equal(t, 2, got.Documents)
}

func TestComputeEmpty(t *testing.T) {
	agg := NewAggregator(fakeSizer{}, zap.NewNop())

	got, err := agg.Compute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{TotalDisplay: "0.0 B"}, got)
}

func TestComputeHonorsCancellation(t *testing.T) {
	agg := NewAggregator(fakeSizer{"/a": 1}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.Compute(ctx, []models.FileRecord{{Filename: "a", StoragePath: "/a"}})
	assert.True(t, errors.Is(err, context.Canceled))
}
