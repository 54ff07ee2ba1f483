package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

// assertionClaims is what the capture engine signs after a match attempt.
type assertionClaims struct {
	jwt.RegisteredClaims
	Match bool `json:"match"`
}

// AssertionVerifier checks HS256 assertions issued by the capture engine.
// The subject of a matching assertion is the verified user id.
type AssertionVerifier struct {
	secret []byte
	issuer string
	leeway time.Duration
	logger *zap.Logger
}

func NewAssertionVerifier(secret []byte, issuer string, leeway time.Duration, logger *zap.Logger) *AssertionVerifier {
	return &AssertionVerifier{
		secret: secret,
		issuer: issuer,
		leeway: leeway,
		logger: logger.Named("verifier"),
	}
}

func (v *AssertionVerifier) Verify(ctx context.Context, attempt Attempt) (Verification, error) {
	if attempt.Assertion == "" {
		return Verification{}, vaulterr.Validation("biometric assertion is required")
	}
	if err := ctx.Err(); err != nil {
		return Verification{}, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &assertionClaims{}
	token, err := jwt.ParseWithClaims(attempt.Assertion, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		v.logger.Info("assertion rejected", zap.Error(err))
		return Verification{}, nil
	}

	if !claims.Match || claims.Subject == "" {
		v.logger.Info("biometric verification failed", zap.String("subject", claims.Subject))
		return Verification{}, nil
	}
	if attempt.ClaimedUserID != "" && attempt.ClaimedUserID != claims.Subject {
		v.logger.Warn("assertion subject does not match claimed user",
			zap.String("claimed", attempt.ClaimedUserID),
			zap.String("subject", claims.Subject),
		)
		return Verification{}, nil
	}

	return Verification{Verified: true, UserID: claims.Subject}, nil
}

// SignAssertion produces an assertion in the format AssertionVerifier
// accepts. The capture engine and local tooling use it.
func SignAssertion(secret []byte, issuer, userID string, match bool, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := assertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Match: match,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return signed, nil
}
