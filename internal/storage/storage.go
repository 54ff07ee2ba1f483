package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

// StorageInterface defines how files are laid out on disk
type StorageInterface interface {
	EnsureUserRoot(userID string) (string, error)
	ResolvePath(userID, safeName string) string
	Write(path string, r io.Reader, limit int64) (int64, error)
	Remove(path string) error
	Size(path string) (int64, error)
	Open(path string) (*os.File, error)
}

// FilesystemStorage stores files on local disk, one directory per user
type FilesystemStorage struct {
	basePath string // e.g., "./user_storage"
}

func NewFilesystemStorage(basePath string) (*FilesystemStorage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, &vaulterr.StorageIOError{Op: "mkdir", Path: abs, Err: err}
	}
	return &FilesystemStorage{basePath: abs}, nil
}

// Root returns the absolute storage root.
func (fs *FilesystemStorage) Root() string {
	return fs.basePath
}

// Ping reports whether the storage root is still a usable directory.
func (fs *FilesystemStorage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(fs.basePath)
	if err != nil {
		return &vaulterr.StorageIOError{Op: "stat", Path: fs.basePath, Err: err}
	}
	if !info.IsDir() {
		return &vaulterr.StorageIOError{Op: "stat", Path: fs.basePath, Err: errors.New("not a directory")}
	}
	return nil
}

// UserRoot returns the directory of userID without creating it.
func (fs *FilesystemStorage) UserRoot(userID string) string {
	return filepath.Join(fs.basePath, Sanitize(userID))
}

// ValidateUserID accepts only ids that are already their own sanitized form,
// so distinct users never share a directory.
func ValidateUserID(userID string) error {
	if userID == "" {
		return vaulterr.Validation("user id is required")
	}
	if Sanitize(userID) != userID {
		return vaulterr.Validation("user id %q contains characters outside [A-Za-z0-9_.-]", userID)
	}
	return nil
}

// EnsureUserRoot creates the user's directory on first reference.
func (fs *FilesystemStorage) EnsureUserRoot(userID string) (string, error) {
	if err := ValidateUserID(userID); err != nil {
		return "", err
	}
	dir := filepath.Join(fs.basePath, userID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", &vaulterr.StorageIOError{Op: "mkdir", Path: dir, Err: err}
	}
	return dir, nil
}

// ResolvePath joins the user root and an already sanitized name.
func (fs *FilesystemStorage) ResolvePath(userID, safeName string) string {
	return filepath.Join(fs.UserRoot(userID), safeName)
}

// Contains reports whether path lies strictly under userID's root.
func (fs *FilesystemStorage) Contains(userID, path string) bool {
	rel, err := filepath.Rel(fs.UserRoot(userID), path)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}

// Write streams r into path through a temp file in the same directory and
// renames it into place, so a failed or oversized upload never clobbers the
// previous content. limit <= 0 disables the size cap.
func (fs *FilesystemStorage) Write(path string, r io.Reader, limit int64) (int64, error) {
	tmpPath := fmt.Sprintf("%s.tmp-%s", path, uuid.NewString()[:8])

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return 0, &vaulterr.StorageIOError{Op: "create", Path: path, Err: err}
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}

	n, err := io.Copy(f, src)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, &vaulterr.StorageIOError{Op: "write", Path: path, Err: err}
	}
	if limit > 0 && n > limit {
		f.Close()
		os.Remove(tmpPath)
		return 0, vaulterr.ErrTooLarge
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, &vaulterr.StorageIOError{Op: "sync", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, &vaulterr.StorageIOError{Op: "close", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, &vaulterr.StorageIOError{Op: "rename", Path: path, Err: err}
	}

	return n, nil
}

// Remove deletes path. A file that is already gone is not an error.
func (fs *FilesystemStorage) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &vaulterr.StorageIOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// Size returns the live byte size of path.
func (fs *FilesystemStorage) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, &vaulterr.StorageIOError{Op: "stat", Path: path, Err: err}
	}
	if info.IsDir() {
		return 0, &vaulterr.StorageIOError{Op: "stat", Path: path, Err: errors.New("is a directory")}
	}
	return info.Size(), nil
}

// Open opens path for reading. A missing file maps to vaulterr.ErrNotFound.
func (fs *FilesystemStorage) Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", vaulterr.ErrNotFound, filepath.Base(path))
		}
		return nil, &vaulterr.StorageIOError{Op: "open", Path: path, Err: err}
	}
	return f, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Sanitize reduces name to a safe single path component: Unicode is folded to
// ASCII, separators and whitespace runs become "_", anything outside
// [A-Za-z0-9_.-] is dropped and leading/trailing "." and "_" are trimmed.
// Distinct inputs may collide; the result may be empty.
func Sanitize(name string) string {
	folded := norm.NFKD.String(name)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}

	s := strings.NewReplacer("/", " ", "\\", " ").Replace(b.String())
	s = strings.Join(strings.Fields(s), "_")
	s = unsafeChars.ReplaceAllString(s, "")
	return strings.Trim(s, "._")
}
