// Package repository declares the storage interfaces the service layer
// depends on. The sqlite sub-package implements all of them on one *DB.
//
// Conventions every implementation follows:
//   - single-row lookups return apperror.ErrNotFound when nothing matches
//   - a UNIQUE constraint violation is returned as apperror.ErrConflict
//   - every method takes the request context first
package repository

import (
	"context"

	"github.com/sakif/ai-directory/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// ProductFilter narrows ListProducts. Zero values mean "no filter".
type ProductFilter struct {
	CategoryName string
	CategoryID   string
	Pricing      model.Pricing
	Search       string // case-insensitive substring of name or description
	ExcludeID    string
	ActiveOnly   bool
	NewestFirst  bool // skip the featured-first ordering
	ListOptions
}

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*model.Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]model.Product, error)
	ProductSlugs(ctx context.Context) ([]string, error)
	GetLikeCount(ctx context.Context, productID string) (int, error)
	SetFeatured(ctx context.Context, id string, featured bool) error
	DeleteProduct(ctx context.Context, id string) error
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, s *model.Submission) error
	GetSubmission(ctx context.Context, id string) (*model.Submission, error)
	ListSubmissions(ctx context.Context, status string) ([]model.Submission, error)
	UpdateSubmission(ctx context.Context, s *model.Submission) error
	SubmissionSlugs(ctx context.Context) ([]string, error)
}

// LikeRepository stores Like rows. like_count on products is maintained by
// the store itself in response to InsertLike/DeleteLike.
type LikeRepository interface {
	GetLike(ctx context.Context, userID, productID string) (*model.Like, error)
	InsertLike(ctx context.Context, userID, productID string) (*model.Like, error)
	DeleteLike(ctx context.Context, userID, productID string) error
	LikedProductIDs(ctx context.Context, userID string) ([]string, error)
	LikedProducts(ctx context.Context, userID string) ([]model.Product, error)
}

type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
