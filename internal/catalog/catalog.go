// Package catalog keeps the relational file catalog and the per-user storage
// tree in step. Rows are not unique per (user, filename): each upload of a
// name appends a row while the physical file at that path is overwritten.
package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/PaulBabatuyi/biovault/internal/models"
	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

// RecordStore is the row-level persistence the catalog sits on.
type RecordStore interface {
	InsertFile(ctx context.Context, rec models.FileRecord) (models.FileRecord, error)
	ListFiles(ctx context.Context, userID string) ([]models.FileRecord, error)
	FindFiles(ctx context.Context, userID, filename string) ([]models.FileRecord, error)
	DeleteFiles(ctx context.Context, userID string, ids []int64) (int, error)
}

// Remover deletes physical files.
type Remover interface {
	Remove(path string) error
}

type Catalog struct {
	store   RecordStore
	remover Remover
	logger  *zap.Logger
	now     func() time.Time
}

func New(store RecordStore, remover Remover, logger *zap.Logger) *Catalog {
	return &Catalog{
		store:   store,
		remover: remover,
		logger:  logger.Named("catalog"),
		now:     time.Now,
	}
}

// Insert appends rec and returns it with its id and upload time set.
func (c *Catalog) Insert(ctx context.Context, rec models.FileRecord) (models.FileRecord, error) {
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = c.now().UTC()
	}
	saved, err := c.store.InsertFile(ctx, rec)
	if err != nil {
		return models.FileRecord{}, &vaulterr.CatalogError{Op: "insert", Err: err}
	}
	return saved, nil
}

// Query lists every row of userID, newest first.
func (c *Catalog) Query(ctx context.Context, userID string) ([]models.FileRecord, error) {
	records, err := c.store.ListFiles(ctx, userID)
	if err != nil {
		return nil, &vaulterr.CatalogError{Op: "query", Err: err}
	}
	return records, nil
}

// FindByName returns all rows of userID named filename, newest first.
func (c *Catalog) FindByName(ctx context.Context, userID, filename string) ([]models.FileRecord, error) {
	records, err := c.store.FindFiles(ctx, userID, filename)
	if err != nil {
		return nil, &vaulterr.CatalogError{Op: "find", Err: err}
	}
	return records, nil
}

// DeleteByName removes every physical file referenced by the rows named
// filename and then deletes those rows. A failed removal is logged and
// reported as an orphan; it never keeps its row alive. Zero matching rows is
// vaulterr.ErrNotFound.
func (c *Catalog) DeleteByName(ctx context.Context, userID, filename string) (models.DeleteResult, error) {
	records, err := c.FindByName(ctx, userID, filename)
	if err != nil {
		return models.DeleteResult{}, err
	}
	if len(records) == 0 {
		return models.DeleteResult{}, vaulterr.ErrNotFound
	}

	ids := make([]int64, 0, len(records))
	seen := make(map[string]bool, len(records))
	var orphans []string
	for _, rec := range records {
		ids = append(ids, rec.ID)

		// duplicate rows share one path
		if seen[rec.StoragePath] {
			continue
		}
		seen[rec.StoragePath] = true

		if err := c.remover.Remove(rec.StoragePath); err != nil {
			c.logger.Error("failed to remove stored file, continuing",
				zap.String("user_id", userID),
				zap.String("filename", filename),
				zap.Int64("record_id", rec.ID),
				zap.String("path", rec.StoragePath),
				zap.Error(err),
			)
			orphans = append(orphans, rec.StoragePath)
		}
	}

	deleted, err := c.store.DeleteFiles(ctx, userID, ids)
	if err != nil {
		return models.DeleteResult{}, &vaulterr.CatalogError{Op: "delete", Err: err}
	}
	if deleted != len(ids) {
		c.logger.Warn("catalog rows vanished during delete",
			zap.String("user_id", userID),
			zap.String("filename", filename),
			zap.Int("expected", len(ids)),
			zap.Int("deleted", deleted),
		)
	}

	return models.NewDeleteResult(len(ids), orphans), nil
}
