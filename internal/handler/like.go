package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/service"
)

type LikeHandler struct {
	likes  *service.LikeService
	logger *slog.Logger
}

func NewLikeHandler(likes *service.LikeService, logger *slog.Logger) *LikeHandler {
	return &LikeHandler{likes: likes, logger: logger}
}

// HandleToggle serves POST /api/products/{id}/like.
//
// The body is always a ToggleResult. The status only tells the client
// which kind of failure it was: 401 for anonymous callers, 500 for store
// failures.
func (h *LikeHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	v := viewer(r)
	result := h.likes.Toggle(r.Context(), v, r.PathValue("id"))

	status := http.StatusOK
	switch {
	case result.Success:
	case v == nil:
		status = http.StatusUnauthorized
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

// HandleStatus serves GET /api/products/{id}/like.
func (h *LikeHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.likes.Status(r.Context(), viewer(r), r.PathValue("id")))
}

// HandleMyLikes serves GET /api/me/likes: the liked products, most
// recently liked first.
func (h *LikeHandler) HandleMyLikes(w http.ResponseWriter, r *http.Request) {
	v := viewer(r)
	if v == nil {
		writeError(w, apperror.Unauthorized(service.MsgLoginRequired))
		return
	}

	products, err := h.likes.LikedProducts(r.Context(), v)
	if err != nil {
		logFailure(h.logger, "listing liked products", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}
