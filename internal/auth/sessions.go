package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

const sessionIssuer = "biovault"

// Session is an issued bearer token.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Sessions issues and checks HS256 session tokens. Logout revokes a token by
// remembering its id until the token would have expired anyway. The deny list
// is bounded by the session TTL only: evicting an entry early would revive a
// revoked session.
type Sessions struct {
	secret  []byte
	ttl     time.Duration
	revoked *expirable.LRU[string, struct{}]
	now     func() time.Time
}

func NewSessions(secret []byte, ttl time.Duration) *Sessions {
	return &Sessions{
		secret:  secret,
		ttl:     ttl,
		revoked: expirable.NewLRU[string, struct{}](0, nil, ttl),
		now:     time.Now,
	}
}

func (s *Sessions) Issue(userID string) (Session, error) {
	if userID == "" {
		return Session{}, vaulterr.Validation("user id is required")
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	return Session{Token: token, UserID: userID, ExpiresAt: expiresAt}, nil
}

// Resolve returns the user bound to token.
func (s *Sessions) Resolve(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	if s.revoked.Contains(claims.ID) {
		return "", fmt.Errorf("%w: session revoked", vaulterr.ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// Revoke invalidates token. Revoking an already revoked token is a no-op.
func (s *Sessions) Revoke(token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	s.revoked.Add(claims.ID, struct{}{})
	return nil
}

func (s *Sessions) parse(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing session token", vaulterr.ErrUnauthenticated)
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: session expired", vaulterr.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%w: invalid session token", vaulterr.ErrUnauthenticated)
	}
	if !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: invalid session token", vaulterr.ErrUnauthenticated)
	}
	return claims, nil
}
