package models

import "time"

// FileRecord is one catalog row. Several rows may share a Filename (and
// therefore a StoragePath) for the same user.
type FileRecord struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Filename    string    `json:"filename"`
	SizeDisplay string    `json:"size_display"` // display cache, never used for totals
	StoragePath string    `json:"storage_path"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// FileInfo describes a file being served back to its owner.
type FileInfo struct {
	Owner       string
	Filename    string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// DeleteStatus tags how cleanly a delete-by-name finished.
type DeleteStatus string

const (
	// Deleted means every referenced physical file was removed.
	Deleted DeleteStatus = "deleted"
	// DeletedWithOrphans means the rows are gone but some files stayed on disk.
	DeletedWithOrphans DeleteStatus = "deleted_with_orphans"
)

// DeleteResult is the outcome of deleting all rows matching one filename.
type DeleteResult struct {
	Status  DeleteStatus `json:"status"`
	Rows    int          `json:"rows"`
	Orphans []string     `json:"orphans,omitempty"`
}

// Clean reports whether no file was left behind.
func (r DeleteResult) Clean() bool {
	return r.Status == Deleted
}

// NewDeleteResult tags the outcome from the row count and the paths that
// could not be removed.
func NewDeleteResult(rows int, orphans []string) DeleteResult {
	if len(orphans) == 0 {
		return DeleteResult{Status: Deleted, Rows: rows}
	}
	return DeleteResult{Status: DeletedWithOrphans, Rows: rows, Orphans: orphans}
}
