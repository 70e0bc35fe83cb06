package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/service"
)

type SlugHandler struct {
	slugs  *service.SlugService
	logger *slog.Logger
}

func NewSlugHandler(slugs *service.SlugService, logger *slog.Logger) *SlugHandler {
	return &SlugHandler{slugs: slugs, logger: logger}
}

type slugResponse struct {
	Slug string `json:"slug"`
}

// HandleSuggest serves GET /api/slugs/suggest?name=… or ?slug=…
//
// With slug set it normalizes the custom slug and numbers it when taken;
// otherwise it derives one from name. The answer is advisory: the slug is
// resolved again when the submission is stored.
func (h *SlugHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	custom := strings.TrimSpace(q.Get("slug"))
	name := strings.TrimSpace(q.Get("name"))

	var (
		s   string
		err error
	)
	switch {
	case custom != "":
		s, err = h.slugs.ValidateCustomSlug(r.Context(), custom)
	case name != "":
		s, err = h.slugs.GenerateProductSlug(r.Context(), name)
	default:
		err = apperror.ValidationFailed("name", "name or slug is required")
	}
	if err != nil {
		logFailure(h.logger, "suggesting slug", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, slugResponse{Slug: s})
}
