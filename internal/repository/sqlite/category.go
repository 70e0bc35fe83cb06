package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/repository"
)

var _ repository.CategoryRepository = (*DB)(nil)

const categoryColumns = `id, name, slug, description, relevance, created_at, updated_at`

// ListCategories returns every category ordered by relevance (ascending),
// then name.
func (db *DB) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY relevance ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating category rows: %w", err)
	}
	return categories, nil
}

// GetCategoryBySlug looks up one category by its URL slug.
func (db *DB) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	c, err := scanCategory(db.conn.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("category", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting category %q: %w", slug, err)
	}
	return c, nil
}

// GetCategoryByName looks up one category by its display name. The match is
// exact; submissions send the name picked from the category list.
func (db *DB) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	c, err := scanCategory(db.conn.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("category", name)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting category by name %q: %w", name, err)
	}
	return c, nil
}

func scanCategory(row scanner) (*model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Relevance, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
