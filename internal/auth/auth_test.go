package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

var (
	engineSecret  = []byte("capture-engine-secret-0123456789")
	sessionSecret = []byte("session-secret-0123456789abcdefg")
)

func TestAuthorize(t *testing.T) {
	require.NoError(t, Authorize("U1", "U1"))

	err := Authorize("U1", "U2")
	assert.ErrorIs(t, err, vaulterr.ErrUnauthorized)
	assert.Equal(t, vaulterr.KindUnauthorized, vaulterr.KindOf(err))

	assert.ErrorIs(t, Authorize("", ""), vaulterr.ErrUnauthorized)
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), "alice"))
	assert.True(t, ok)
	assert.Equal(t, "alice", id)
}

func TestAssertionVerifier(t *testing.T) {
	v := NewAssertionVerifier(engineSecret, "capture-engine", time.Second, zap.NewNop())
	ctx := context.Background()

	sign := func(t *testing.T, secret []byte, user string, match bool, ttl time.Duration) string {
		t.Helper()
		tok, err := SignAssertion(secret, "capture-engine", user, match, ttl)
		require.NoError(t, err)
		return tok
	}

	t.Run("match", func(t *testing.T) {
		res, err := v.Verify(ctx, Attempt{Assertion: sign(t, engineSecret, "alice", true, time.Minute)})
		require.NoError(t, err)
		assert.Equal(t, Verification{Verified: true, UserID: "alice"}, res)
	})

	t.Run("no match", func(t *testing.T) {
		res, err := v.Verify(ctx, Attempt{Assertion: sign(t, engineSecret, "alice", false, time.Minute)})
		require.NoError(t, err)
		assert.False(t, res.Verified)
		assert.Empty(t, res.UserID)
	})

	t.Run("wrong signature", func(t *testing.T) {
		res, err := v.Verify(ctx, Attempt{Assertion: sign(t, []byte("someone-else-entirely-0123456789"), "alice", true, time.Minute)})
		require.NoError(t, err)
		assert.False(t, res.Verified)
	})

	t.Run("expired", func(t *testing.T) {
		res, err := v.Verify(ctx, Attempt{Assertion: sign(t, engineSecret, "alice", true, -time.Hour)})
		require.NoError(t, err)
		assert.False(t, res.Verified)
	})

	t.Run("claimed user differs", func(t *testing.T) {
		res, err := v.Verify(ctx, Attempt{
			Assertion:     sign(t, engineSecret, "alice", true, time.Minute),
			ClaimedUserID: "bob",
		})
		require.NoError(t, err)
		assert.False(t, res.Verified)
	})

	t.Run("empty assertion", func(t *testing.T) {
		_, err := v.Verify(ctx, Attempt{})
		assert.ErrorIs(t, err, vaulterr.ErrValidation)
	})
}

func TestSessionsLifecycle(t *testing.T) {
	s := NewSessions(sessionSecret, time.Hour)

	sess, err := s.Issue("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.UserID)
	assert.NotEmpty(t, sess.Token)

	user, err := s.Resolve(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	require.NoError(t, s.Revoke(sess.Token))
	require.NoError(t, s.Revoke(sess.Token))

	_, err = s.Resolve(sess.Token)
	assert.ErrorIs(t, err, vaulterr.ErrUnauthenticated)

	// other sessions of the same user stay valid
	other, err := s.Issue("alice")
	require.NoError(t, err)
	_, err = s.Resolve(other.Token)
	assert.NoError(t, err)
}

func TestRevokedSessionsStayRevokedUnderLoad(t *testing.T) {
	s := NewSessions(sessionSecret, time.Hour)

	first, err := s.Issue("alice")
	require.NoError(t, err)
	require.NoError(t, s.Revoke(first.Token))

	for i := 0; i < 20000; i++ {
		sess, err := s.Issue(fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
		require.NoError(t, s.Revoke(sess.Token))
	}

	_, err = s.Resolve(first.Token)
	assert.ErrorIs(t, err, vaulterr.ErrUnauthenticated)
}

func TestSessionsRejectInvalidTokens(t *testing.T) {
	s := NewSessions(sessionSecret, time.Hour)

	_, err := s.Resolve("")
	assert.ErrorIs(t, err, vaulterr.ErrUnauthenticated)

	_, err = s.Resolve("not-a-jwt")
	assert.ErrorIs(t, err, vaulterr.ErrUnauthenticated)

	foreign := NewSessions([]byte("another-secret-0123456789abcdefgh"), time.Hour)
	sess, err := foreign.Issue("alice")
	require.NoError(t, err)
	_, err = s.Resolve(sess.Token)
	assert.ErrorIs(t, err, vaulterr.ErrUnauthenticated)

	// an engine assertion is not a session
	assertion, err := SignAssertion(sessionSecret, "capture-engine", "alice", true, time.Minute)
	require.NoError(t, err)
	_, err = s.Resolve(assertion)
	assert.ErrorIs(t, err, vaulterr.ErrUnauthenticated)

	_, err = s.Issue("")
	assert.ErrorIs(t, err, vaulterr.ErrValidation)
}

func TestSessionsExpire(t *testing.T) {
	s := NewSessions(sessionSecret, time.Minute)
	sess, err := s.Issue("alice")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Resolve(sess.Token)
	assert.ErrorIs(t, err, vaulterr.ErrUnauthenticated)
	assert.Contains(t, err.Error(), "expired")
}
