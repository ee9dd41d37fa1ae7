package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/portalhq/portal/internal/api/httperr"
	"github.com/portalhq/portal/internal/api/objstore"
	"github.com/portalhq/portal/pkg/slogx"
)

// MaxUploadSize caps file uploads at 50 MiB.
const MaxUploadSize = 50 << 20

// FilesHandler accepts multipart file uploads and stores them in the bucket.
type FilesHandler struct {
	Uploader objstore.Uploader
}

// HandleUpload handles POST /files. The file arrives as the "file" part of a
// multipart form.
func (h *FilesHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())

	if h.Uploader == nil {
		l.Warn("upload rejected, object storage is not configured")
		httperr.ErrInternal.WriteError(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httperr.ErrPayloadTooLarge.WriteError(w)
			return
		}
		httperr.ErrInvalidRequest.WithDetails("expected multipart form with a file part").WriteError(w)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httperr.ErrInvalidRequest.WithDetails("file part is required").WriteError(w)
		return
	}
	defer file.Close()

	filename := objstore.SanitizeFilename(header.Filename)
	key := objstore.ObjectKey(header.Filename)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.Uploader.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
		l.Error("file upload failed",
			slog.Any("error", err),
			slog.String("key", key),
		)
		httperr.ErrInternal.WriteError(w)
		return
	}

	l.Info("file uploaded",
		slog.String("key", key),
		slog.Int64("size", header.Size),
	)

	writeSuccess(w, http.StatusCreated, map[string]any{
		"key":      key,
		"filename": filename,
		"size":     header.Size,
	})
}
