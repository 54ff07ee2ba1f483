// Package auth is the boundary to the biometric capture engine and the
// session layer built on top of it. The only authorization rule in the vault
// is that a bound identity may touch nothing but its own files.
package auth

import (
	"context"
	"fmt"

	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

// Attempt is one capture handed back by the biometric engine.
type Attempt struct {
	// Assertion is the engine's signed match result.
	Assertion string
	// ClaimedUserID is optional; when set it must equal the matched subject.
	ClaimedUserID string
}

// Verification is the outcome of checking an Attempt. UserID is only set
// when Verified is true.
type Verification struct {
	Verified bool
	UserID   string
}

// Verifier turns a capture attempt into a verified identity. A negative
// match is reported as Verification{Verified: false} with a nil error.
type Verifier interface {
	Verify(ctx context.Context, attempt Attempt) (Verification, error)
}

// Authorize allows access only when owner is the bound identity.
func Authorize(bound, owner string) error {
	if bound == "" || bound != owner {
		return fmt.Errorf("%w: %q may not access files of %q", vaulterr.ErrUnauthorized, bound, owner)
	}
	return nil
}

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID binds userID to ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the identity bound by the session layer.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
