package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/service"
)

// CatalogHandler serves the public read side: categories and products.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// HandleListCategories serves GET /api/categories.
func (h *CatalogHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		logFailure(h.logger, "listing categories", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// HandleCategory serves GET /api/categories/{slug}.
func (h *CatalogHandler) HandleCategory(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.CategoryBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		logFailure(h.logger, "loading category", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleListProducts serves
// GET /api/products?category=&pricing=&q=&limit=&offset=.
func (h *CatalogHandler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := intParam(q.Get("offset"), "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), service.ProductQuery{
		Category: q.Get("category"),
		Pricing:  q.Get("pricing"),
		Search:   q.Get("q"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		logFailure(h.logger, "listing products", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// HandleProductBySlug serves GET /api/products/slug/{slug}.
func (h *CatalogHandler) HandleProductBySlug(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.ProductBySlug(r.Context(), viewer(r), r.PathValue("slug"))
	if err != nil {
		logFailure(h.logger, "loading product by slug", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleProductByID serves GET /api/products/{id}.
func (h *CatalogHandler) HandleProductByID(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.ProductByID(r.Context(), viewer(r), r.PathValue("id"))
	if err != nil {
		logFailure(h.logger, "loading product by id", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(name, name+" must be a non-negative integer")
	}
	return n, nil
}
