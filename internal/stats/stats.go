// Package stats derives dashboard usage figures from catalog rows and the live
// size of each referenced file.
package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/PaulBabatuyi/biovault/internal/models"
)

// QuotaBytes is the fixed per-user capacity the quota percentage is measured against.
const QuotaBytes int64 = 100 * 1024 * 1024 * 1024

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

var categories = map[string]models.Category{
	"jpg": models.CategoryImages, "jpeg": models.CategoryImages, "png": models.CategoryImages, "gif": models.CategoryImages,
	"mp4": models.CategoryVideos, "mov": models.CategoryVideos, "avi": models.CategoryVideos,
	"doc": models.CategoryDocuments, "docx": models.CategoryDocuments, "pdf": models.CategoryDocuments, "txt": models.CategoryDocuments,
	"enc": models.CategorySecrets, "zip": models.CategorySecrets, "rar": models.CategorySecrets,
}

// Sizer reports the live size of a stored file.
type Sizer interface {
	Size(path string) (int64, error)
}

type Aggregator struct {
	sizer  Sizer
	logger *zap.Logger
}

func NewAggregator(sizer Sizer, logger *zap.Logger) *Aggregator {
	return &Aggregator{sizer: sizer, logger: logger.Named("stats")}
}

// Compute recomputes totals from the live filesystem. A missing file counts
// as zero bytes; any other stat failure is logged and also counts as zero.
func (a *Aggregator) Compute(ctx context.Context, records []models.FileRecord) (models.Stats, error) {
	var s models.Stats
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return models.Stats{}, err
		}

		size, err := a.sizer.Size(rec.StoragePath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				a.logger.Warn("failed to stat stored file",
					zap.String("user_id", rec.UserID),
					zap.String("path", rec.StoragePath),
					zap.Error(err),
				)
			}
			size = 0
		}
		s.TotalBytes += size

		switch Categorize(rec.Filename) {
		case models.CategoryImages:
			s.Images++
		case models.CategoryVideos:
			s.Videos++
		case models.CategoryDocuments:
			s.Documents++
		case models.CategorySecrets:
			s.Secrets++
		}
	}

	s.TotalDisplay = FormatSize(s.TotalBytes)
	s.QuotaPercent = QuotaPercent(s.TotalBytes)
	return s, nil
}

// Categorize maps a filename to its bucket by lowercased extension.
func Categorize(filename string) models.Category {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return models.CategoryNone
	}
	return categories[strings.ToLower(filename[i+1:])]
}

// QuotaPercent is total as a share of QuotaBytes, capped at 100. Any nonzero
// usage reports at least 1 so it stays visible.
func QuotaPercent(total int64) float64 {
	if total <= 0 {
		return 0
	}
	pct := math.Min(100, float64(total)/float64(QuotaBytes)*100)
	if pct < 1 {
		pct = 1
	}
	return pct
}

// FormatSize renders n with one decimal, dividing by 1024 up to TB. TB is
// terminal, so 1024^5 renders as "1024.0 TB".
func FormatSize(n int64) string {
	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", value, sizeUnits[unit])
}
