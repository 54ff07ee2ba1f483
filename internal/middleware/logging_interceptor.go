package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/PaulBabatuyi/biovault/internal/auth"
)

// UnaryLoggingInterceptor logs unary RPC calls with timing and errors
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		// Call the handler
		resp, err := handler(ctx, req)

		// Extract error details
		code := codes.OK
		if err != nil {
			code = status.Code(err)
		}

		duration := time.Since(start)

		requestID := requestIDFrom(ctx)
		userID, _ := auth.UserIDFromContext(ctx)

		// Log with contextual fields
		logLevel := levelFor(code)

		logger.Check(logLevel, "unary RPC").Write(
			zap.String("method", info.FullMethod),
			zap.String("request_id", requestID),
			zap.String("user_id", userID),
			zap.Duration("duration", duration),
			zap.String("code", code.String()),
			zap.Error(err),
		)

		return resp, err
	}
}

// StreamLoggingInterceptor logs streaming RPC calls with timing and errors
func StreamLoggingInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()

		requestID := requestIDFrom(ss.Context())
		userID, _ := auth.UserIDFromContext(ss.Context())

		logger.Debug("stream RPC started",
			zap.String("method", info.FullMethod),
			zap.String("request_id", requestID),
			zap.String("user_id", userID),
			zap.Bool("is_client_stream", info.IsClientStream),
			zap.Bool("is_server_stream", info.IsServerStream),
		)

		// Call handler
		err := handler(srv, ss)

		duration := time.Since(start)

		// Log completion
		code := codes.OK
		if err != nil {
			code = status.Code(err)
		}

		logLevel := levelFor(code)

		logger.Check(logLevel, "stream RPC").Write(
			zap.String("method", info.FullMethod),
			zap.String("request_id", requestID),
			zap.String("user_id", userID),
			zap.Duration("duration", duration),
			zap.String("code", code.String()),
			zap.Error(err),
		)

		return err
	}
}

// levelFor logs client mistakes at Info and server faults at Error.
func levelFor(code codes.Code) zapcore.Level {
	switch code {
	case codes.OK, codes.InvalidArgument, codes.NotFound, codes.PermissionDenied,
		codes.Unauthenticated, codes.Canceled:
		return zapcore.InfoLevel
	default:
		return zapcore.ErrorLevel
	}
}

// requestIDFrom returns the caller's x-request-id, or a fresh one.
func requestIDFrom(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	if ids := md.Get("x-request-id"); len(ids) > 0 && ids[0] != "" {
		return ids[0]
	}
	return uuid.NewString()
}
