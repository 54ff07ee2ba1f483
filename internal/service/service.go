// Package service orchestrates the vault: it keeps the per-user storage tree
// and the metadata catalog in step on upload and delete, derives dashboards,
// and records every action in the activity ledger.
package service

import (
	"context"
	"io"
	"net/url"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/PaulBabatuyi/biovault/internal/auth"
	"github.com/PaulBabatuyi/biovault/internal/models"
	"github.com/PaulBabatuyi/biovault/internal/observability"
	"github.com/PaulBabatuyi/biovault/internal/preview"
	"github.com/PaulBabatuyi/biovault/internal/stats"
	"github.com/PaulBabatuyi/biovault/internal/storage"
	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

const tracerName = "github.com/PaulBabatuyi/biovault/internal/service"

// DefaultMaxUploadBytes is the upload cap used when Config leaves it unset.
const DefaultMaxUploadBytes int64 = 500 << 20

type Config struct {
	MaxUploadBytes         int64
	MaxConcurrentUploads   int64
	SerializeUserMutations bool
}

// Deps are the collaborators of a Vault.
type Deps struct {
	Storage  storage.StorageInterface
	Catalog  FileCatalog
	Ledger   ActivityLog
	Stats    StatsComputer
	Verifier auth.Verifier
	Sessions SessionManager
	Previews PreviewRenderer
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

type Vault struct {
	config   Config
	storage  storage.StorageInterface
	catalog  FileCatalog
	ledger   ActivityLog
	stats    StatsComputer
	verifier auth.Verifier
	sessions SessionManager
	previews PreviewRenderer
	metrics  *observability.Metrics
	logger   *zap.Logger
	tracer   trace.Tracer

	uploadSem *semaphore.Weighted
	userLocks *userLocks
}

func New(config Config, deps Deps) *Vault {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if config.MaxConcurrentUploads <= 0 {
		config.MaxConcurrentUploads = 10
	}
	return &Vault{
		config:    config,
		storage:   deps.Storage,
		catalog:   deps.Catalog,
		ledger:    deps.Ledger,
		stats:     deps.Stats,
		verifier:  deps.Verifier,
		sessions:  deps.Sessions,
		previews:  deps.Previews,
		metrics:   deps.Metrics,
		logger:    deps.Logger.Named("vault"),
		tracer:    otel.Tracer(tracerName),
		uploadSem: semaphore.NewWeighted(config.MaxConcurrentUploads),
		userLocks: newUserLocks(),
	}
}

// LoginResult is the outcome of a biometric login. Session is only set
// when Verified is true.
type LoginResult struct {
	Verified bool
	UserID   string
	Session  auth.Session
}

// Dashboard is the file list of one user plus the statistics derived from it.
type Dashboard struct {
	Files []models.DashboardEntry `json:"files"`
	Stats models.Stats            `json:"stats"`
}

// Login verifies attempt with the capture engine. A failed match is not an
// error. On success the user's storage root is provisioned, the login is
// recorded and a session is issued.
func (v *Vault) Login(ctx context.Context, attempt auth.Attempt) (res LoginResult, err error) {
	ctx, span := v.tracer.Start(ctx, "Vault.Login")
	defer func() { endSpan(span, err) }()

	verification, err := v.verifier.Verify(ctx, attempt)
	if err != nil {
		return LoginResult{}, err
	}
	if !verification.Verified {
		v.logger.Info("biometric verification failed")
		return LoginResult{}, nil
	}
	userID := verification.UserID
	span.SetAttributes(attribute.String("user_id", userID))

	if _, err := v.storage.EnsureUserRoot(userID); err != nil {
		v.logger.Error("failed to provision user root", zap.String("user_id", userID), zap.Error(err))
		return LoginResult{}, err
	}

	session, err := v.sessions.Issue(userID)
	if err != nil {
		v.logger.Error("failed to issue session", zap.String("user_id", userID), zap.Error(err))
		return LoginResult{}, err
	}

	v.ledger.Append(userID, models.ActionLogin, models.LoginDetails)
	v.logger.Info("user logged in", zap.String("user_id", userID))

	return LoginResult{Verified: true, UserID: userID, Session: session}, nil
}

// Logout revokes token.
func (v *Vault) Logout(ctx context.Context, token string) error {
	_, span := v.tracer.Start(ctx, "Vault.Logout")
	err := v.sessions.Revoke(token)
	endSpan(span, err)
	return err
}

// Authenticate resolves a bearer token to the bound user id.
func (v *Vault) Authenticate(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return v.sessions.Resolve(token)
}

// Upload stores r under the user's root as the sanitized filename and
// appends a catalog row. Uploading an existing name overwrites the file and
// adds another row.
func (v *Vault) Upload(ctx context.Context, userID, filename string, r io.Reader) (rec models.FileRecord, err error) {
	ctx, span := v.tracer.Start(ctx, "Vault.Upload", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("filename", filename),
	))
	defer func() {
		endSpan(span, err)
		v.countUpload(err)
	}()

	if err := validateRequest(fileRequest{UserID: userID, Filename: filename}); err != nil {
		return models.FileRecord{}, err
	}
	safeName := storage.Sanitize(filename)
	if safeName == "" {
		return models.FileRecord{}, vaulterr.Validation("filename %q has no usable characters", filename)
	}

	if err := v.uploadSem.Acquire(ctx, 1); err != nil {
		return models.FileRecord{}, err
	}
	defer v.uploadSem.Release(1)

	unlock, err := v.lockUser(ctx, userID)
	if err != nil {
		return models.FileRecord{}, err
	}
	defer unlock()

	if _, err := v.storage.EnsureUserRoot(userID); err != nil {
		v.logger.Error("failed to create user root", zap.String("user_id", userID), zap.Error(err))
		return models.FileRecord{}, err
	}

	path := v.storage.ResolvePath(userID, safeName)
	written, err := v.storage.Write(path, r, v.config.MaxUploadBytes)
	if err != nil {
		if vaulterr.KindOf(err) == vaulterr.KindValidation {
			v.logger.Info("upload rejected", zap.String("user_id", userID), zap.String("filename", safeName), zap.Error(err))
		} else {
			v.logger.Error("failed to write upload", zap.String("user_id", userID), zap.String("path", path), zap.Error(err))
		}
		return models.FileRecord{}, err
	}

	rec, err = v.catalog.Insert(ctx, models.FileRecord{
		UserID:      userID,
		Filename:    safeName,
		SizeDisplay: stats.FormatSize(written),
		StoragePath: path,
	})
	if err != nil {
		// the file stays: an older row for the same name may still reference it
		v.logger.Error("failed to catalog upload", zap.String("user_id", userID), zap.String("path", path), zap.Error(err))
		return models.FileRecord{}, err
	}

	v.ledger.Append(userID, models.ActionUpload, models.UploadDetails(safeName))
	v.metrics.UploadBytes.Add(float64(written))
	v.logger.Info("file uploaded",
		zap.String("user_id", userID),
		zap.String("filename", safeName),
		zap.Int64("bytes", written),
		zap.Int64("record_id", rec.ID),
	)
	return rec, nil
}

// Delete removes every record named filename and their files. Files that
// could not be removed are reported in the result, not as an error.
func (v *Vault) Delete(ctx context.Context, userID, filename string) (res models.DeleteResult, err error) {
	ctx, span := v.tracer.Start(ctx, "Vault.Delete", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("filename", filename),
	))
	defer func() { endSpan(span, err) }()

	if err := validateRequest(fileRequest{UserID: userID, Filename: filename}); err != nil {
		return models.DeleteResult{}, err
	}
	safeName := storage.Sanitize(filename)
	if safeName == "" {
		return models.DeleteResult{}, vaulterr.Validation("filename %q has no usable characters", filename)
	}

	unlock, err := v.lockUser(ctx, userID)
	if err != nil {
		return models.DeleteResult{}, err
	}
	defer unlock()

	res, err = v.catalog.DeleteByName(ctx, userID, safeName)
	if err != nil {
		if vaulterr.KindOf(err) != vaulterr.KindNotFound {
			v.logger.Error("delete failed", zap.String("user_id", userID), zap.String("filename", safeName), zap.Error(err))
		}
		return models.DeleteResult{}, err
	}

	v.ledger.Append(userID, models.ActionDelete, models.DeleteDetails(safeName))
	v.metrics.Deletes.WithLabelValues(string(res.Status)).Inc()
	v.metrics.OrphanedFiles.Add(float64(len(res.Orphans)))
	span.SetAttributes(attribute.Int("rows", res.Rows), attribute.Int("orphans", len(res.Orphans)))

	return res, nil
}

// Dashboard lists the user's records newest first and recomputes the
// statistics from the sizes currently on disk.
func (v *Vault) Dashboard(ctx context.Context, userID string) (d Dashboard, err error) {
	ctx, span := v.tracer.Start(ctx, "Vault.Dashboard", trace.WithAttributes(attribute.String("user_id", userID)))
	defer func() { endSpan(span, err) }()

	if err := validateRequest(userRequest{UserID: userID}); err != nil {
		return Dashboard{}, err
	}

	records, err := v.catalog.Query(ctx, userID)
	if err != nil {
		v.logger.Error("dashboard query failed", zap.String("user_id", userID), zap.Error(err))
		return Dashboard{}, err
	}

	s, err := v.stats.Compute(ctx, records)
	if err != nil {
		return Dashboard{}, err
	}
	v.metrics.DashboardBytes.Observe(float64(s.TotalBytes))

	files := make([]models.DashboardEntry, 0, len(records))
	for _, rec := range records {
		files = append(files, models.DashboardEntry{
			Filename:    rec.Filename,
			SizeDisplay: rec.SizeDisplay,
			UploadedAt:  rec.UploadedAt,
			Category:    stats.Categorize(rec.Filename),
			URL:         FileURL(userID, rec.Filename),
		})
	}

	return Dashboard{Files: files, Stats: s}, nil
}

// Activity returns the newest ledger entries of userID.
func (v *Vault) Activity(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error) {
	if err := validateRequest(userRequest{UserID: userID}); err != nil {
		return nil, err
	}
	entries, err := v.ledger.Query(ctx, userID, limit)
	if err != nil {
		v.logger.Error("activity query failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return entries, nil
}

// OpenFile opens owner's filename for the bound identity. Authorization is
// checked before anything touches the filesystem. The caller closes the file.
func (v *Vault) OpenFile(ctx context.Context, bound, owner, filename string) (f *os.File, info models.FileInfo, err error) {
	_, span := v.tracer.Start(ctx, "Vault.OpenFile", trace.WithAttributes(
		attribute.String("user_id", bound),
		attribute.String("owner", owner),
	))
	defer func() { endSpan(span, err) }()

	if err := validateRequest(accessRequest{Bound: bound, Owner: owner, Filename: filename}); err != nil {
		return nil, models.FileInfo{}, err
	}
	if err := auth.Authorize(bound, owner); err != nil {
		v.logger.Warn("file access denied", zap.String("user_id", bound), zap.String("owner", owner))
		return nil, models.FileInfo{}, err
	}

	safeName := storage.Sanitize(filename)
	if safeName == "" {
		return nil, models.FileInfo{}, vaulterr.Validation("filename %q has no usable characters", filename)
	}

	f, err = v.storage.Open(v.storage.ResolvePath(owner, safeName))
	if err != nil {
		return nil, models.FileInfo{}, err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, models.FileInfo{}, &vaulterr.StorageIOError{Op: "stat", Path: f.Name(), Err: err}
	}
	contentType, err := sniffContentType(f)
	if err != nil {
		f.Close()
		return nil, models.FileInfo{}, &vaulterr.StorageIOError{Op: "read", Path: f.Name(), Err: err}
	}

	return f, models.FileInfo{
		Owner:       owner,
		Filename:    safeName,
		ContentType: contentType,
		Size:        stat.Size(),
		ModTime:     stat.ModTime(),
	}, nil
}

// Preview renders a JPEG thumbnail of an image the bound identity owns.
func (v *Vault) Preview(ctx context.Context, bound, owner, filename string, width int) (preview.Thumbnail, error) {
	if err := validateRequest(accessRequest{Bound: bound, Owner: owner, Filename: filename}); err != nil {
		return preview.Thumbnail{}, err
	}
	if stats.Categorize(storage.Sanitize(filename)) != models.CategoryImages {
		// authorization precedes the type check
		if err := auth.Authorize(bound, owner); err != nil {
			return preview.Thumbnail{}, err
		}
		return preview.Thumbnail{}, vaulterr.Validation("previews are only available for images")
	}

	f, _, err := v.OpenFile(ctx, bound, owner, filename)
	if err != nil {
		return preview.Thumbnail{}, err
	}
	defer f.Close()

	thumb, err := v.previews.Render(f, width)
	if err != nil {
		v.logger.Info("preview failed", zap.String("user_id", bound), zap.String("filename", filename), zap.Error(err))
		return preview.Thumbnail{}, err
	}
	return thumb, nil
}

// FileURL is the browser download path of a stored file.
func FileURL(userID, filename string) string {
	return "/files/" + url.PathEscape(userID) + "/" + url.PathEscape(filename)
}

func (v *Vault) lockUser(ctx context.Context, userID string) (func(), error) {
	if !v.config.SerializeUserMutations {
		return func() {}, nil
	}
	return v.userLocks.acquire(ctx, userID)
}

func (v *Vault) countUpload(err error) {
	result := "ok"
	switch {
	case err == nil:
	case vaulterr.KindOf(err) == vaulterr.KindValidation:
		result = "rejected"
	default:
		result = "error"
	}
	v.metrics.Uploads.WithLabelValues(result).Inc()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, vaulterr.KindOf(err).String())
	}
	span.End()
}
