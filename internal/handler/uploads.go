package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/ai-directory/internal/storage"
)

type UploadsHandler struct {
	store  *storage.Local
	logger *slog.Logger
}

func NewUploadsHandler(store *storage.Local, logger *slog.Logger) *UploadsHandler {
	return &UploadsHandler{store: store, logger: logger}
}

// HandleServe serves GET /uploads/{bucket}/{name}. Bad bucket or file names
// look the same as missing files.
func (h *UploadsHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	bucket, name := r.PathValue("bucket"), r.PathValue("name")

	f, err := h.store.Open(bucket, name)
	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrUnknownBucket),
		errors.Is(err, storage.ErrInvalidName):
		http.NotFound(w, r)
		return
	case err != nil:
		h.logger.Error("opening upload", slog.String("bucket", bucket), slog.String("name", name), slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	// logos may be SVG; never let one run script on this origin
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	http.ServeContent(w, r, name, info.ModTime(), f)
}
