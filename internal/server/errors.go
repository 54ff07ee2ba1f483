package server

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

// toStatus maps a vault error to a gRPC status. Storage and catalog causes
// stay in the server log.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}

	switch vaulterr.KindOf(err) {
	case vaulterr.KindValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	case vaulterr.KindUnauthorized:
		return status.Error(codes.PermissionDenied, "access denied")
	case vaulterr.KindUnauthenticated:
		return status.Error(codes.Unauthenticated, "invalid or expired session")
	case vaulterr.KindNotFound:
		return status.Error(codes.NotFound, "file not found")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
