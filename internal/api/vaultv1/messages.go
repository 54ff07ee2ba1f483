package vaultv1

import (
	"time"

	"github.com/PaulBabatuyi/biovault/internal/models"
)

type LoginRequest struct {
	Assertion     string `json:"assertion"`
	ClaimedUserID string `json:"claimed_user_id,omitempty"`
}

type LoginResponse struct {
	Verified  bool      `json:"verified"`
	UserID    string    `json:"user_id,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

// UploadFileRequest is one message of the upload stream. The first message
// carries Metadata, every following one a Chunk.
type UploadFileRequest struct {
	Metadata *UploadMetadata `json:"metadata,omitempty"`
	Chunk    []byte          `json:"chunk,omitempty"`
}

type UploadMetadata struct {
	Filename string `json:"filename"`
}

type UploadFileResponse struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	SizeDisplay string    `json:"size_display"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type DashboardRequest struct{}

type DashboardResponse struct {
	Files []models.DashboardEntry `json:"files"`
	Stats models.Stats            `json:"stats"`
}

type DeleteFileRequest struct {
	Filename string `json:"filename"`
}

type DeleteFileResponse struct {
	Status  string   `json:"status"`
	Rows    int      `json:"rows"`
	Orphans []string `json:"orphans,omitempty"`
}

type ListActivityRequest struct {
	Limit int `json:"limit"`
}

type ListActivityResponse struct {
	Entries []models.ActivityEntry `json:"entries"`
}

type DownloadFileRequest struct {
	Owner    string `json:"owner"`
	Filename string `json:"filename"`
}

// DownloadFileResponse is one message of the download stream: Info first,
// then Chunks of at most 64 KiB.
type DownloadFileResponse struct {
	Info  *FileInfo `json:"info,omitempty"`
	Chunk []byte    `json:"chunk,omitempty"`
}

type FileInfo struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
}

type GetPreviewRequest struct {
	Owner    string `json:"owner"`
	Filename string `json:"filename"`
	Width    int    `json:"width,omitempty"`
}

type GetPreviewResponse struct {
	Data           []byte `json:"data"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
}
