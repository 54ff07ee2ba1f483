// Package server implements vault.v1.VaultService on top of the vault
// service.
package server

import (
	"context"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	v1 "github.com/PaulBabatuyi/biovault/internal/api/vaultv1"
	"github.com/PaulBabatuyi/biovault/internal/auth"
	"github.com/PaulBabatuyi/biovault/internal/middleware"
	"github.com/PaulBabatuyi/biovault/internal/models"
	"github.com/PaulBabatuyi/biovault/internal/preview"
	"github.com/PaulBabatuyi/biovault/internal/service"
	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

// ChunkSize is the size of download stream chunks.
const ChunkSize = 64 * 1024

// PublicMethods need no session.
var PublicMethods = []string{v1.VaultService_Login_FullMethodName}

// VaultAPI is the part of service.Vault the gRPC layer calls.
type VaultAPI interface {
	Login(ctx context.Context, attempt auth.Attempt) (service.LoginResult, error)
	Logout(ctx context.Context, token string) error
	Upload(ctx context.Context, userID, filename string, r io.Reader) (models.FileRecord, error)
	Delete(ctx context.Context, userID, filename string) (models.DeleteResult, error)
	Dashboard(ctx context.Context, userID string) (service.Dashboard, error)
	Activity(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error)
	OpenFile(ctx context.Context, bound, owner, filename string) (*os.File, models.FileInfo, error)
	Preview(ctx context.Context, bound, owner, filename string, width int) (preview.Thumbnail, error)
}

type fileServer struct {
	v1.UnimplementedVaultServiceServer // Embeds for forward compatibility

	vault  VaultAPI
	logger *zap.Logger
}

func NewFileServer(vault VaultAPI, logger *zap.Logger) *fileServer {
	return &fileServer{
		vault:  vault,
		logger: logger.Named("grpc"),
	}
}

func (s *fileServer) Login(ctx context.Context, req *v1.LoginRequest) (*v1.LoginResponse, error) {
	res, err := s.vault.Login(ctx, auth.Attempt{Assertion: req.Assertion, ClaimedUserID: req.ClaimedUserID})
	if err != nil {
		return nil, toStatus(err)
	}
	if !res.Verified {
		return &v1.LoginResponse{Verified: false}, nil
	}
	return &v1.LoginResponse{
		Verified:  true,
		UserID:    res.UserID,
		Token:     res.Session.Token,
		ExpiresAt: res.Session.ExpiresAt,
	}, nil
}

func (s *fileServer) Logout(ctx context.Context, _ *v1.LogoutRequest) (*v1.LogoutResponse, error) {
	token, err := middleware.ExtractToken(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.vault.Logout(ctx, token); err != nil {
		return nil, toStatus(err)
	}
	return &v1.LogoutResponse{}, nil
}

func (s *fileServer) UploadFile(stream v1.VaultService_UploadFileServer) error {
	userID, err := middleware.ExtractUserID(stream.Context())
	if err != nil {
		return err
	}

	// 1. Receive first message (metadata)
	firstMsg, err := stream.Recv()
	if err != nil {
		return status.Error(codes.InvalidArgument, "no metadata received")
	}
	if firstMsg.Metadata == nil {
		return status.Error(codes.InvalidArgument, "first message must be metadata")
	}

	// 2. Stream chunks straight into storage
	body := &chunkReader{stream: stream}
	if len(firstMsg.Chunk) > 0 {
		body.pending = firstMsg.Chunk
	}

	rec, err := s.vault.Upload(stream.Context(), userID, firstMsg.Metadata.Filename, body)
	if err != nil {
		if body.err != nil {
			s.logger.Info("upload stream broken", zap.String("user_id", userID), zap.Error(body.err))
			return toStatus(body.err)
		}
		return toStatus(err)
	}

	// 3. Send response once
	return stream.SendAndClose(&v1.UploadFileResponse{
		ID:          rec.ID,
		Filename:    rec.Filename,
		SizeDisplay: rec.SizeDisplay,
		UploadedAt:  rec.UploadedAt,
	})
}

func (s *fileServer) Dashboard(ctx context.Context, _ *v1.DashboardRequest) (*v1.DashboardResponse, error) {
	userID, err := middleware.ExtractUserID(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.vault.Dashboard(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &v1.DashboardResponse{Files: d.Files, Stats: d.Stats}, nil
}

func (s *fileServer) DeleteFile(ctx context.Context, req *v1.DeleteFileRequest) (*v1.DeleteFileResponse, error) {
	userID, err := middleware.ExtractUserID(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.vault.Delete(ctx, userID, req.Filename)
	if err != nil {
		return nil, toStatus(err)
	}
	return &v1.DeleteFileResponse{
		Status:  string(res.Status),
		Rows:    res.Rows,
		Orphans: res.Orphans,
	}, nil
}

func (s *fileServer) ListActivity(ctx context.Context, req *v1.ListActivityRequest) (*v1.ListActivityResponse, error) {
	userID, err := middleware.ExtractUserID(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.vault.Activity(ctx, userID, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return &v1.ListActivityResponse{Entries: entries}, nil
}

func (s *fileServer) DownloadFile(req *v1.DownloadFileRequest, stream v1.VaultService_DownloadFileServer) error {
	userID, err := middleware.ExtractUserID(stream.Context())
	if err != nil {
		return err
	}
	owner := req.Owner
	if owner == "" {
		owner = userID
	}

	// 1. Open the file; authorization happens first
	f, info, err := s.vault.OpenFile(stream.Context(), userID, owner, req.Filename)
	if err != nil {
		return toStatus(err)
	}
	defer f.Close()

	// 2. Send file info first
	err = stream.Send(&v1.DownloadFileResponse{
		Info: &v1.FileInfo{
			Filename:    info.Filename,
			ContentType: info.ContentType,
			Size:        info.Size,
			ModTime:     info.ModTime,
		},
	})
	if err != nil {
		return err
	}

	// 3. Stream chunks to client
	buffer := make([]byte, ChunkSize)
	for {
		n, err := f.Read(buffer)
		if n > 0 {
			if sendErr := stream.Send(&v1.DownloadFileResponse{Chunk: buffer[:n]}); sendErr != nil {
				return sendErr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			s.logger.Error("failed to read file", zap.String("user_id", userID), zap.String("filename", info.Filename), zap.Error(err))
			return status.Error(codes.Internal, "failed to read file")
		}
	}
}

func (s *fileServer) GetPreview(ctx context.Context, req *v1.GetPreviewRequest) (*v1.GetPreviewResponse, error) {
	userID, err := middleware.ExtractUserID(ctx)
	if err != nil {
		return nil, err
	}
	owner := req.Owner
	if owner == "" {
		owner = userID
	}
	thumb, err := s.vault.Preview(ctx, userID, owner, req.Filename, req.Width)
	if err != nil {
		return nil, toStatus(err)
	}
	return &v1.GetPreviewResponse{
		Data:           thumb.Data,
		Width:          thumb.Width,
		Height:         thumb.Height,
		OriginalWidth:  thumb.OriginalWidth,
		OriginalHeight: thumb.OriginalHeight,
	}, nil
}

// chunkReader exposes the chunks of an upload stream as an io.Reader.
type chunkReader struct {
	stream  v1.VaultService_UploadFileServer
	pending []byte
	err     error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		msg, err := r.stream.Recv()
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		if err != nil {
			r.err = err
			return 0, err
		}
		if msg.Metadata != nil {
			r.err = vaulterr.Validation("metadata sent twice")
			return 0, r.err
		}
		r.pending = msg.Chunk
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
