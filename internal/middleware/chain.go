package middleware

import (
	"fmt"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Stack lists the interceptors of the vault server, outermost first.
type Stack struct {
	Logger  *zap.Logger
	Metrics *grpcprom.ServerMetrics // optional
	Auth    *Auth
}

// ServerOptions chains recovery, metrics, authentication and logging, in
// that order. Logging runs innermost so it sees the bound user id.
func (s Stack) ServerOptions() []grpc.ServerOption {
	recoveryOpt := recovery.WithRecoveryHandler(func(p any) error {
		s.Logger.Error("panic in RPC handler", zap.String("panic", fmt.Sprint(p)), zap.Stack("stack"))
		return status.Error(codes.Internal, "internal error")
	})

	unary := []grpc.UnaryServerInterceptor{recovery.UnaryServerInterceptor(recoveryOpt)}
	stream := []grpc.StreamServerInterceptor{recovery.StreamServerInterceptor(recoveryOpt)}

	if s.Metrics != nil {
		unary = append(unary, s.Metrics.UnaryServerInterceptor())
		stream = append(stream, s.Metrics.StreamServerInterceptor())
	}
	if s.Auth != nil {
		unary = append(unary, s.Auth.UnaryInterceptor)
		stream = append(stream, s.Auth.StreamInterceptor)
	}
	unary = append(unary, UnaryLoggingInterceptor(s.Logger))
	stream = append(stream, StreamLoggingInterceptor(s.Logger))

	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(stream...),
	}
}
