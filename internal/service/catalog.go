package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/repository"
)

// CatalogService serves the public, read-only side of the directory:
// categories, product listings and product pages.
type CatalogService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	likes      *LikeService
	logger     *slog.Logger
}

func NewCatalogService(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	likes *LikeService,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		categories: categories,
		products:   products,
		likes:      likes,
		logger:     logger,
	}
}

// ProductQuery filters the public product listing.
type ProductQuery struct {
	Category string // category display name
	Pricing  string
	Search   string
	Limit    int
	Offset   int
}

// CategoryPage is a category with its active products, newest first.
type CategoryPage struct {
	Category *model.Category `json:"category"`
	Products []model.Product `json:"products"`
}

// ProductPage is a product as shown on its detail page.
type ProductPage struct {
	Product *model.Product  `json:"product"`
	Like    LikeStatus      `json:"like"`
	Related []model.Product `json:"related"`
}

// ListCategories returns every category in relevance order.
func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing categories: %w", err)
	}
	return categories, nil
}

// CategoryBySlug returns a category and its active products, newest first.
// Featured products get no precedence here.
func (s *CatalogService) CategoryBySlug(ctx context.Context, slug string) (*CategoryPage, error) {
	category, err := s.categories.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: getting category %q: %w", slug, err)
	}

	products, err := s.products.ListProducts(ctx, repository.ProductFilter{
		CategoryID:  category.ID,
		ActiveOnly:  true,
		NewestFirst: true,
	})
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing products of %q: %w", slug, err)
	}

	return &CategoryPage{Category: category, Products: products}, nil
}

// ListProducts returns active products, featured first, then newest.
// Search is a case-insensitive substring match on name or description.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	pricing := model.Pricing(strings.TrimSpace(q.Pricing))
	if pricing != "" && !pricing.Valid() {
		return nil, apperror.ValidationFailed("pricing", "pricing must be one of Free, Freemium, Paid")
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	products, err := s.products.ListProducts(ctx, repository.ProductFilter{
		CategoryName: strings.TrimSpace(q.Category),
		Pricing:      pricing,
		Search:       strings.TrimSpace(q.Search),
		ActiveOnly:   true,
		ListOptions: repository.ListOptions{
			Limit:  clampLimit(q.Limit),
			Offset: q.Offset,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing products: %w", err)
	}
	return products, nil
}

// ProductBySlug builds the product page for slug.
func (s *CatalogService) ProductBySlug(ctx context.Context, viewer *model.Viewer, slug string) (*ProductPage, error) {
	p, err := s.products.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: getting product %q: %w", slug, err)
	}
	return s.page(ctx, viewer, p)
}

// ProductByID builds the product page for id. Old links use /products/{id}.
func (s *CatalogService) ProductByID(ctx context.Context, viewer *model.Viewer, id string) (*ProductPage, error) {
	p, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: getting product %s: %w", id, err)
	}
	return s.page(ctx, viewer, p)
}

func (s *CatalogService) page(ctx context.Context, viewer *model.Viewer, p *model.Product) (*ProductPage, error) {
	if p.Status != model.ProductActive {
		return nil, apperror.NotFound("product", p.Slug)
	}

	return &ProductPage{
		Product: p,
		Like:    s.likes.Status(ctx, viewer, p.ID),
		Related: s.related(ctx, p),
	}, nil
}

// related returns up to RelatedLimit other active products of the same
// category. A failure only costs the related list, not the page.
func (s *CatalogService) related(ctx context.Context, p *model.Product) []model.Product {
	f := repository.ProductFilter{
		ExcludeID:   p.ID,
		ActiveOnly:  true,
		ListOptions: repository.ListOptions{Limit: RelatedLimit},
	}
	switch {
	case p.CategoryID != nil:
		f.CategoryID = *p.CategoryID
	case p.CategoryName != nil:
		f.CategoryName = *p.CategoryName
	default:
		return []model.Product{}
	}

	related, err := s.products.ListProducts(ctx, f)
	if err != nil {
		s.logger.Warn("listing related products",
			slog.String("productID", p.ID),
			slog.String("error", err.Error()),
		)
		return []model.Product{}
	}
	return related
}
