package service

import (
	"context"
	"io"

	"github.com/PaulBabatuyi/biovault/internal/auth"
	"github.com/PaulBabatuyi/biovault/internal/models"
	"github.com/PaulBabatuyi/biovault/internal/preview"
)

// FileCatalog is the metadata side of the vault.
type FileCatalog interface {
	Insert(ctx context.Context, rec models.FileRecord) (models.FileRecord, error)
	Query(ctx context.Context, userID string) ([]models.FileRecord, error)
	DeleteByName(ctx context.Context, userID, filename string) (models.DeleteResult, error)
}

// ActivityLog is the audit trail. Append never fails.
type ActivityLog interface {
	Append(userID string, action models.Action, details string)
	Query(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error)
}

// StatsComputer derives dashboard statistics from catalog records.
type StatsComputer interface {
	Compute(ctx context.Context, records []models.FileRecord) (models.Stats, error)
}

// SessionManager binds verified identities to bearer tokens.
type SessionManager interface {
	Issue(userID string) (auth.Session, error)
	Resolve(token string) (string, error)
	Revoke(token string) error
}

// PreviewRenderer scales stored images.
type PreviewRenderer interface {
	Render(src io.Reader, width int) (preview.Thumbnail, error)
}
