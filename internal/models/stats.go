package models

import "time"

// Category is one of the dashboard buckets a filename extension maps to.
type Category string

const (
	CategoryImages    Category = "images"
	CategoryVideos    Category = "videos"
	CategoryDocuments Category = "documents"
	CategorySecrets   Category = "secrets"
	CategoryNone      Category = ""
)

// Stats are derived per request and never persisted.
type Stats struct {
	TotalBytes   int64   `json:"total_bytes"`
	TotalDisplay string  `json:"total_display"`
	QuotaPercent float64 `json:"quota_percent"`
	Images       int     `json:"images"`
	Videos       int     `json:"videos"`
	Documents    int     `json:"documents"`
	Secrets      int     `json:"secrets"`
}

// DashboardEntry is one row of the dashboard file list.
type DashboardEntry struct {
	Filename    string    `json:"filename"`
	SizeDisplay string    `json:"size_display"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Category    Category  `json:"category,omitempty"`
	URL         string    `json:"url"`
}
