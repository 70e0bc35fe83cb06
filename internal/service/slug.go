package service

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/ai-directory/internal/slug"
)

// ProductSlugLister and SubmissionSlugLister are the two slug sources
// SlugService reads. Together they form one namespace: a slug taken by a
// product or by a submission is taken.
type ProductSlugLister interface {
	ProductSlugs(ctx context.Context) ([]string, error)
}

type SubmissionSlugLister interface {
	SubmissionSlugs(ctx context.Context) ([]string, error)
}

// SlugService picks unique slugs across products and submissions.
//
// It is read-only. The caller inserts the row with the returned slug, and
// the UNIQUE index on each table catches the case where another request
// took the same slug in between (see SubmissionService.Create).
type SlugService struct {
	products    ProductSlugLister
	submissions SubmissionSlugLister
}

func NewSlugService(products ProductSlugLister, submissions SubmissionSlugLister) *SlugService {
	return &SlugService{products: products, submissions: submissions}
}

// GenerateProductSlug turns a product name into a slug that neither table
// uses yet.
func (s *SlugService) GenerateProductSlug(ctx context.Context, name string) (string, error) {
	return s.unique(ctx, slug.Generate(name))
}

// ValidateCustomSlug normalizes a user-chosen slug and, when it is taken,
// returns the first free numbered variant instead.
func (s *SlugService) ValidateCustomSlug(ctx context.Context, custom string) (string, error) {
	return s.unique(ctx, slug.Generate(custom))
}

// Exists reports whether either table already holds candidate.
func (s *SlugService) Exists(ctx context.Context, candidate string) (bool, error) {
	existing, err := s.existingSlugs(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(existing, candidate), nil
}

func (s *SlugService) unique(ctx context.Context, base string) (string, error) {
	existing, err := s.existingSlugs(ctx)
	if err != nil {
		return "", err
	}
	return slug.Unique(base, existing), nil
}

// existingSlugs runs the two slug queries concurrently and concatenates
// the results. The first failure cancels the other query and is returned
// as is: no retry.
func (s *SlugService) existingSlugs(ctx context.Context) ([]string, error) {
	var productSlugs, submissionSlugs []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		productSlugs, err = s.products.ProductSlugs(gctx)
		if err != nil {
			return fmt.Errorf("service/slug: listing product slugs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		submissionSlugs, err = s.submissions.SubmissionSlugs(gctx)
		if err != nil {
			return fmt.Errorf("service/slug: listing submission slugs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return append(productSlugs, submissionSlugs...), nil
}
