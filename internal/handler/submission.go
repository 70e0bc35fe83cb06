package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/service"
)

// multipartMemory is how much of a multipart body is held in memory;
// larger parts spill to temporary files.
const multipartMemory = 8 << 20

type SubmissionHandler struct {
	submissions *service.SubmissionService
	maxBytes    int64
	logger      *slog.Logger
}

func NewSubmissionHandler(submissions *service.SubmissionService, maxBytes int64, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, maxBytes: maxBytes, logger: logger}
}

// HandleCreate serves POST /api/submissions.
//
// The body is a multipart form with the text fields name, description,
// url, category, pricing, email and slug, plus optional logo and image
// files. A plain urlencoded form works too, without files.
func (h *SubmissionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:   "validation_error",
				Message: "Upload is too large",
			})
			return
		}
		writeError(w, apperror.ValidationFailed("body", "Invalid form data"))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	in := service.SubmissionInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		URL:         r.FormValue("url"),
		Category:    r.FormValue("category"),
		Pricing:     r.FormValue("pricing"),
		Email:       r.FormValue("email"),
		Slug:        r.FormValue("slug"),
	}

	logo, closeLogo, err := formFile(r, "logo")
	if err != nil {
		writeError(w, err)
		return
	}
	defer closeLogo()
	in.Logo = logo

	image, closeImage, err := formFile(r, "image")
	if err != nil {
		writeError(w, err)
		return
	}
	defer closeImage()
	in.Image = image

	sub, err := h.submissions.Create(r.Context(), in)
	if err != nil {
		logFailure(h.logger, "creating submission", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// formFile returns the named upload, or nil when the field is missing or
// empty (browsers send an empty part when no file was chosen).
func formFile(r *http.Request, field string) (*service.Upload, func(), error) {
	noop := func() {}
	if r.MultipartForm == nil {
		return nil, noop, nil
	}

	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, apperror.ValidationFailed(field, "Could not read the uploaded file")
	}
	if header.Size == 0 {
		f.Close()
		return nil, noop, nil
	}

	return &service.Upload{
		Filename:    header.Filename,
		ContentType: contentType(header),
		Size:        header.Size,
		Body:        f,
	}, func() { f.Close() }, nil
}

// contentType trusts the part header, falling back to sniffing the first
// bytes when the client sent none.
func contentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	f, err := header.Open()
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := io.ReadFull(f, buf)
	return http.DetectContentType(buf[:n])
}
