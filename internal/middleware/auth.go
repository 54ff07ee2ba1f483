package middleware

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/PaulBabatuyi/biovault/internal/auth"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

type tokenKey struct{}

// Auth binds the session user to the request context. Methods listed as
// public skip the check.
type Auth struct {
	authenticator Authenticator
	public        map[string]bool
	logger        *zap.Logger
}

func NewAuth(authenticator Authenticator, logger *zap.Logger, publicMethods ...string) *Auth {
	public := make(map[string]bool, len(publicMethods))
	for _, m := range publicMethods {
		public[m] = true
	}
	return &Auth{authenticator: authenticator, public: public, logger: logger.Named("auth")}
}

// UnaryInterceptor validates the bearer token of unary calls.
func (a *Auth) UnaryInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	if a.public[info.FullMethod] {
		return handler(ctx, req)
	}
	ctx, err := a.authenticate(ctx, info.FullMethod)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

// StreamInterceptor validates the bearer token of streaming calls.
func (a *Auth) StreamInterceptor(
	srv interface{},
	ss grpc.ServerStream,
	info *grpc.StreamServerInfo,
	handler grpc.StreamHandler,
) error {
	if a.public[info.FullMethod] {
		return handler(srv, ss)
	}
	ctx, err := a.authenticate(ss.Context(), info.FullMethod)
	if err != nil {
		return err
	}
	return handler(srv, &contextStream{ServerStream: ss, ctx: ctx})
}

func (a *Auth) authenticate(ctx context.Context, method string) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	token, ok := BearerToken(md.Get("authorization"))
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}

	userID, err := a.authenticator.Authenticate(ctx, token)
	if err != nil {
		a.logger.Info("session rejected", zap.String("method", method), zap.Error(err))
		return nil, status.Error(codes.Unauthenticated, "invalid or expired session")
	}

	ctx = auth.WithUserID(ctx, userID)
	return context.WithValue(ctx, tokenKey{}, token), nil
}

// BearerToken extracts the token from the first "Bearer <token>" value.
func BearerToken(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(values[0]), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ExtractUserID gets the user id bound by the auth interceptor.
func ExtractUserID(ctx context.Context) (string, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "no session bound to request")
	}
	return userID, nil
}

// ExtractToken returns the session token the request was authenticated with.
func ExtractToken(ctx context.Context) (string, error) {
	token, ok := ctx.Value(tokenKey{}).(string)
	if !ok || token == "" {
		return "", status.Error(codes.Unauthenticated, "no session bound to request")
	}
	return token, nil
}

type contextStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *contextStream) Context() context.Context {
	return s.ctx
}
