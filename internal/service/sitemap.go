package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/repository"
)

// Sitemap change frequencies.
const (
	ChangeDaily   = "daily"
	ChangeWeekly  = "weekly"
	ChangeMonthly = "monthly"
)

// SitemapEntry is one <url> of sitemap.xml.
type SitemapEntry struct {
	Loc        string
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}

type SitemapService struct {
	baseURL    string
	categories repository.CategoryRepository
	products   repository.ProductRepository
	logger     *slog.Logger
	now        func() time.Time
}

func NewSitemapService(baseURL string, categories repository.CategoryRepository, products repository.ProductRepository, logger *slog.Logger) *SitemapService {
	return &SitemapService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		categories: categories,
		products:   products,
		logger:     logger,
		now:        time.Now,
	}
}

// Entries lists the static pages, then categories by relevance, then
// active products newest first.
//
// A failed query drops its section and is logged; the static pages are
// always present.
func (s *SitemapService) Entries(ctx context.Context) []SitemapEntry {
	now := s.now().UTC()
	entries := []SitemapEntry{
		{Loc: s.baseURL, LastMod: now, ChangeFreq: ChangeDaily, Priority: 1.0},
		{Loc: s.baseURL + "/categories", LastMod: now, ChangeFreq: ChangeDaily, Priority: 0.8},
		{Loc: s.baseURL + "/submit", LastMod: now, ChangeFreq: ChangeMonthly, Priority: 0.6},
	}

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		s.logger.Error("sitemap: listing categories", slog.String("error", err.Error()))
	}
	for _, c := range categories {
		entries = append(entries, SitemapEntry{
			Loc:        s.baseURL + "/categories/" + c.Slug,
			LastMod:    lastMod(c.UpdatedAt, now),
			ChangeFreq: ChangeWeekly,
			Priority:   0.7,
		})
	}

	products, err := s.products.ListProducts(ctx, repository.ProductFilter{ActiveOnly: true})
	if err != nil {
		s.logger.Error("sitemap: listing products", slog.String("error", err.Error()))
	}
	slices.SortStableFunc(products, func(a, b model.Product) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	for _, p := range products {
		entries = append(entries, SitemapEntry{
			Loc:        s.baseURL + "/products/" + p.Slug,
			LastMod:    lastMod(p.UpdatedAt, now),
			ChangeFreq: ChangeWeekly,
			Priority:   0.6,
		})
	}

	return entries
}

// Robots renders robots.txt.
func (s *SitemapService) Robots() string {
	var b strings.Builder
	b.WriteString("User-Agent: *\n")
	b.WriteString("Allow: /\n")
	for _, path := range []string{"/admin/", "/api/", "/private/"} {
		fmt.Fprintf(&b, "Disallow: %s\n", path)
	}
	fmt.Fprintf(&b, "\nSitemap: %s/sitemap.xml\n", s.baseURL)
	return b.String()
}

func lastMod(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t.UTC()
}
