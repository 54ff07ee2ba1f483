package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/biovault/internal/middleware"
	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

type errorResponse struct {
	Error string `json:"error"`
}

// DownloadFile serves /files/{owner}/{filename} to the owner's session.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	bound, ok := h.bind(w, r)
	if !ok {
		return
	}

	owner, filename, err := fileParams(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	f, info, err := h.files.OpenFile(r.Context(), bound, owner, filename)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+info.Filename+`"`)
	http.ServeContent(w, r, info.Filename, info.ModTime, f)
}

// PreviewFile serves a JPEG thumbnail; ?width= selects the size.
func (h *Handler) PreviewFile(w http.ResponseWriter, r *http.Request) {
	bound, ok := h.bind(w, r)
	if !ok {
		return
	}

	width := 0
	if raw := r.URL.Query().Get("width"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, vaulterr.Validation("width must be a positive integer"))
			return
		}
		width = n
	}

	owner, filename, err := fileParams(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	thumb, err := h.files.Preview(r.Context(), bound, owner, filename, width)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(thumb.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = bytes.NewReader(thumb.Data).WriteTo(w)
}

// fileParams returns the unescaped {owner} and {filename} of r. chi leaves
// them escaped when the request path carries escapes such as %2F.
func fileParams(r *http.Request) (owner, filename string, err error) {
	owner, err = url.PathUnescape(chi.URLParam(r, "owner"))
	if err != nil {
		return "", "", vaulterr.Validation("malformed owner in path")
	}
	filename, err = url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil {
		return "", "", vaulterr.Validation("malformed filename in path")
	}
	return owner, filename, nil
}

// bind resolves the bearer token of r. It writes the 401 itself.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := middleware.BearerToken(r.Header.Values("Authorization"))
	if !ok {
		h.writeError(w, vaulterr.ErrUnauthenticated)
		return "", false
	}
	userID, err := h.files.Authenticate(r.Context(), token)
	if err != nil {
		h.writeError(w, err)
		return "", false
	}
	return userID, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code, msg := httpStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, code, errorResponse{Error: msg})
}

func httpStatus(err error) (int, string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, "request canceled"
	}
	switch vaulterr.KindOf(err) {
	case vaulterr.KindValidation:
		return http.StatusBadRequest, err.Error()
	case vaulterr.KindUnauthenticated:
		return http.StatusUnauthorized, "invalid or expired session"
	case vaulterr.KindUnauthorized:
		return http.StatusForbidden, "access denied"
	case vaulterr.KindNotFound:
		return http.StatusNotFound, "file not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
