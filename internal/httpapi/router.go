// Package httpapi serves the operational endpoints and browser downloads
// next to the gRPC API.
package httpapi

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/biovault/internal/models"
	"github.com/PaulBabatuyi/biovault/internal/preview"
)

// Files is the part of the vault the download routes need.
type Files interface {
	Authenticate(ctx context.Context, token string) (string, error)
	OpenFile(ctx context.Context, bound, owner, filename string) (*os.File, models.FileInfo, error)
	Preview(ctx context.Context, bound, owner, filename string, width int) (preview.Thumbnail, error)
}

// Pinger reports whether a dependency can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	files   Files
	checks  map[string]Pinger
	metrics http.Handler
	logger  *zap.Logger
	started time.Time
}

// NewRouter builds the chi router. checks are run by /health/ready, keyed by
// the name reported in the response.
func NewRouter(files Files, checks map[string]Pinger, metrics http.Handler, logger *zap.Logger) http.Handler {
	h := &Handler{
		files:   files,
		checks:  checks,
		metrics: metrics,
		logger:  logger.Named("http"),
		started: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(h.accessLog)
	r.Use(chimw.Recoverer)

	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.Get("/files/{owner}/{filename}", h.DownloadFile)
	r.Get("/previews/{owner}/{filename}", h.PreviewFile)

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
