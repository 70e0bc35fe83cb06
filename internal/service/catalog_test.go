package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/repository/sqlite"
)

func newTestCatalog(t *testing.T) (*CatalogService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	likes := NewLikeService(db, db, newTestMetrics(), discardLogger())
	return NewCatalogService(db, db, likes, discardLogger()), db
}

func slugsOf(products []model.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Slug
	}
	return out
}

func inactive(p *model.Product) { p.Status = model.ProductInactive }

func TestCatalog_ListCategories(t *testing.T) {
	svc, _ := newTestCatalog(t)

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, len(model.DefaultCategories))
	assert.Equal(t, "Coding", categories[0].Name)
}

func TestCatalog_CategoryBySlug(t *testing.T) {
	svc, db := newTestCatalog(t)
	ctx := context.Background()

	seedProduct(t, db, "Cursor", "cursor", "Coding")
	seedProduct(t, db, "Copilot", "copilot", "Coding")
	seedProduct(t, db, "Hidden", "hidden", "Coding", inactive)
	seedProduct(t, db, "Surfer", "surfer", "SEO")

	page, err := svc.CategoryBySlug(ctx, "coding")
	require.NoError(t, err)
	assert.Equal(t, "Coding", page.Category.Name)
	assert.Equal(t, []string{"copilot", "cursor"}, slugsOf(page.Products))

	_, err = svc.CategoryBySlug(ctx, "no-such-category")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "err = %v", err)
}

func TestCatalog_CategoryBySlug_NewestFirstEvenWhenFeatured(t *testing.T) {
	svc, db := newTestCatalog(t)

	seedProduct(t, db, "Veteran", "veteran", "Coding", func(p *model.Product) { p.Featured = true })
	seedProduct(t, db, "Newcomer", "newcomer", "Coding")

	page, err := svc.CategoryBySlug(context.Background(), "coding")
	require.NoError(t, err)
	assert.Equal(t, []string{"newcomer", "veteran"}, slugsOf(page.Products))
}

func TestCatalog_ListProducts(t *testing.T) {
	svc, db := newTestCatalog(t)
	ctx := context.Background()

	seedProduct(t, db, "Cursor", "cursor", "Coding")
	seedProduct(t, db, "Surfer", "surfer", "SEO", func(p *model.Product) { p.Pricing = model.PricingPaid })
	seedProduct(t, db, "Star", "star", "SEO", func(p *model.Product) { p.Featured = true })
	seedProduct(t, db, "Gone", "gone", "SEO", inactive)

	tests := []struct {
		name  string
		query ProductQuery
		want  []string
	}{
		{"all, featured first", ProductQuery{}, []string{"star", "surfer", "cursor"}},
		{"by category", ProductQuery{Category: "SEO"}, []string{"star", "surfer"}},
		{"by pricing", ProductQuery{Pricing: "Paid"}, []string{"surfer"}},
		{"search is case-insensitive", ProductQuery{Search: "CURS"}, []string{"cursor"}},
		{"limit", ProductQuery{Limit: 1}, []string{"star"}},
		{"offset", ProductQuery{Limit: 2, Offset: 2}, []string{"cursor"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListProducts(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, slugsOf(got))
		})
	}
}

func TestCatalog_ListProducts_BadPricing(t *testing.T) {
	svc, _ := newTestCatalog(t)

	_, err := svc.ListProducts(context.Background(), ProductQuery{Pricing: "Cheap"})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "pricing", appErr.Field)
}

func TestCatalog_ProductBySlug(t *testing.T) {
	svc, db := newTestCatalog(t)
	ctx := context.Background()

	target := seedProduct(t, db, "Cursor", "cursor", "Coding")
	for i := range 5 {
		seedProduct(t, db, fmt.Sprintf("Peer %d", i), fmt.Sprintf("peer-%d", i), "Coding")
	}
	seedProduct(t, db, "Other", "other", "SEO")

	u := seedUser(t, db, 1)
	viewer := model.NewViewer(u.ID)
	_, err := db.InsertLike(ctx, u.ID, target.ID)
	require.NoError(t, err)

	page, err := svc.ProductBySlug(ctx, viewer, "cursor")
	require.NoError(t, err)

	assert.Equal(t, target.ID, page.Product.ID)
	assert.Equal(t, LikeStatus{IsLiked: true, LikeCount: 1}, page.Like)
	assert.Len(t, page.Related, RelatedLimit)
	for _, r := range page.Related {
		assert.NotEqual(t, target.ID, r.ID)
		assert.Equal(t, "Coding", *r.CategoryName)
	}

	anon, err := svc.ProductByID(ctx, nil, target.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeStatus{IsLiked: false, LikeCount: 1}, anon.Like)
}

func TestCatalog_ProductPage_NotFound(t *testing.T) {
	svc, db := newTestCatalog(t)
	ctx := context.Background()

	hidden := seedProduct(t, db, "Hidden", "hidden", "", inactive)

	_, err := svc.ProductBySlug(ctx, nil, "hidden")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "inactive by slug: %v", err)

	_, err = svc.ProductByID(ctx, nil, hidden.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "inactive by id: %v", err)

	_, err = svc.ProductBySlug(ctx, nil, "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "missing: %v", err)
}

func TestCatalog_ProductWithoutCategoryHasNoRelated(t *testing.T) {
	svc, db := newTestCatalog(t)

	seedProduct(t, db, "Loner", "loner", "")
	seedProduct(t, db, "Cursor", "cursor", "Coding")

	page, err := svc.ProductBySlug(context.Background(), nil, "loner")
	require.NoError(t, err)
	assert.NotNil(t, page.Related)
	assert.Empty(t, page.Related)
}
