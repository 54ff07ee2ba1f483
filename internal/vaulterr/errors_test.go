package vaulterr

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("filename is required"), KindValidation},
		{"too large", ErrTooLarge, KindValidation},
		{"unauthorized", fmt.Errorf("serve: %w", ErrUnauthorized), KindUnauthorized},
		{"unauthenticated", fmt.Errorf("session: %w", ErrUnauthenticated), KindUnauthenticated},
		{"not found", ErrNotFound, KindNotFound},
		{"storage", &StorageIOError{Op: "write", Path: "/x", Err: os.ErrPermission}, KindStorageIO},
		{"catalog", fmt.Errorf("upload: %w", &CatalogError{Op: "insert", Err: errors.New("conn reset")}), KindCatalog},
		{"other", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestStorageIOErrorUnwrapsCause(t *testing.T) {
	err := &StorageIOError{Op: "remove", Path: "/data/u1/a.txt", Err: os.ErrPermission}

	assert.ErrorIs(t, err, os.ErrPermission)
	assert.ErrorIs(t, err, ErrStorageIO)
	assert.NotErrorIs(t, err, ErrCatalog)
	assert.Contains(t, err.Error(), "remove /data/u1/a.txt")
}
