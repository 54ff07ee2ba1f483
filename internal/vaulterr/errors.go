// Package vaulterr defines the error kinds shared by the storage, catalog and
// service layers. Transports classify errors with KindOf and never expose the
// wrapped cause to clients.
package vaulterr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a missing or malformed request field.
	ErrValidation = errors.New("validation failed")
	// ErrTooLarge marks an upload that exceeded the configured size cap.
	ErrTooLarge = fmt.Errorf("%w: file too large", ErrValidation)
	// ErrUnauthorized marks an identity mismatch on file access.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnauthenticated marks a missing, expired or revoked session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound marks a lookup or delete that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrStorageIO is matched by every *StorageIOError.
	ErrStorageIO = errors.New("storage i/o failure")
	// ErrCatalog is matched by every *CatalogError.
	ErrCatalog = errors.New("catalog failure")
)

// StorageIOError reports a failed disk read, write or remove.
type StorageIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageIOError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageIOError) Unwrap() error { return e.Err }

func (e *StorageIOError) Is(target error) bool { return target == ErrStorageIO }

// CatalogError reports a failed metadata store operation.
type CatalogError struct {
	Op  string
	Err error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

func (e *CatalogError) Is(target error) bool { return target == ErrCatalog }

// Validation wraps ErrValidation with a field-specific message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Kind is the classified category of an error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindStorageIO
	KindCatalog
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindStorageIO:
		return "storage_io"
	case KindCatalog:
		return "catalog"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// KindOf classifies err. A nil error is reported as KindInternal; callers
// check for nil first.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrStorageIO):
		return KindStorageIO
	case errors.Is(err, ErrCatalog):
		return KindCatalog
	default:
		return KindInternal
	}
}
