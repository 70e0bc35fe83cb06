package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/repository"
)

var _ repository.ProductRepository = (*DB)(nil)

const productColumns = `id, name, description, url, category_id, category_name, pricing,
	logo_url, image_url, featured, status, slug, like_count, submission_id,
	created_at, updated_at`

// CreateProduct inserts p, filling in its ID (when empty) and timestamps.
//
// like_count is not part of the INSERT: it starts at the column default and
// from then on only the likes triggers change it.
//
// A duplicate slug comes back as apperror.ErrConflict.
func (db *DB) CreateProduct(ctx context.Context, p *model.Product) error {
	if p.ID == "" {
		p.ID = xid.New().String()
	}
	if p.Status == "" {
		p.Status = model.ProductActive
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.LikeCount = 0

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO products (id, name, description, url, category_id, category_name,
			pricing, logo_url, image_url, featured, status, slug, submission_id,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.URL,
		nullable(p.CategoryID), nullable(p.CategoryName),
		string(p.Pricing),
		nullable(p.LogoURL), nullable(p.ImageURL),
		p.Featured, p.Status, p.Slug, nullable(p.SubmissionID),
		p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperror.Conflictf("product slug %q is already taken", p.Slug)
	}
	if err != nil {
		return fmt.Errorf("sqlite: creating product: %w", err)
	}
	return nil
}

// GetProductByID returns one product regardless of its status.
func (db *DB) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	p, err := scanProduct(db.conn.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting product %s: %w", id, err)
	}
	return p, nil
}

// GetProductBySlug returns one product regardless of its status.
func (db *DB) GetProductBySlug(ctx context.Context, slug string) (*model.Product, error) {
	p, err := scanProduct(db.conn.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("product", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting product by slug %q: %w", slug, err)
	}
	return p, nil
}

// ListProducts returns products matching f, featured first, then newest
// first; f.NewestFirst drops the featured precedence. The WHERE clause is
// assembled from fixed fragments; user input only ever travels as bound
// parameters.
func (db *DB) ListProducts(ctx context.Context, f repository.ProductFilter) ([]model.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.ActiveOnly {
		where = append(where, "status = ?")
		args = append(args, model.ProductActive)
	}
	if f.CategoryName != "" {
		where = append(where, "category_name = ?")
		args = append(args, f.CategoryName)
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Pricing != "" {
		where = append(where, "pricing = ?")
		args = append(args, string(f.Pricing))
	}
	if f.ExcludeID != "" {
		where = append(where, "id <> ?")
		args = append(args, f.ExcludeID)
	}
	if f.Search != "" {
		// LIKE alone only folds ASCII; casefold lowers both sides fully.
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		where = append(where, `(casefold(name) LIKE ? ESCAPE '\' OR casefold(description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.NewestFirst {
		query += ` ORDER BY created_at DESC, rowid DESC`
	} else {
		query += ` ORDER BY featured DESC, created_at DESC, rowid DESC`
	}

	switch {
	case f.Limit > 0:
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	case f.Offset > 0:
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, f.Offset)
	}

	return db.queryProducts(ctx, query, args...)
}

// ProductSlugs returns every slug in the products table.
func (db *DB) ProductSlugs(ctx context.Context) ([]string, error) {
	return db.querySlugs(ctx, `SELECT slug FROM products`)
}

// GetLikeCount reads the trigger-maintained like_count of a product.
func (db *DB) GetLikeCount(ctx context.Context, productID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT like_count FROM products WHERE id = ?`, productID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperror.NotFound("product", productID)
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading like_count of %s: %w", productID, err)
	}
	return n, nil
}

// SetFeatured flips the featured flag of a product.
func (db *DB) SetFeatured(ctx context.Context, id string, featured bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE products SET featured = ?, updated_at = ? WHERE id = ?`,
		featured, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: setting featured on %s: %w", id, err)
	}
	return requireAffected(res, "product", id)
}

// DeleteProduct removes a product. Its likes go with it (ON DELETE CASCADE).
func (db *DB) DeleteProduct(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting product %s: %w", id, err)
	}
	return requireAffected(res, "product", id)
}

func (db *DB) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating product rows: %w", err)
	}
	return products, nil
}

func (db *DB) querySlugs(ctx context.Context, query string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("sqlite: scanning slug: %w", err)
		}
		slugs = append(slugs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating slugs: %w", err)
	}
	return slugs, nil
}

func scanProduct(row scanner) (*model.Product, error) {
	var (
		p       model.Product
		pricing string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.URL,
		&p.CategoryID, &p.CategoryName, &pricing,
		&p.LogoURL, &p.ImageURL, &p.Featured, &p.Status, &p.Slug,
		&p.LikeCount, &p.SubmissionID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Pricing = model.Pricing(pricing)
	return &p, nil
}

// requireAffected turns "UPDATE/DELETE matched nothing" into NotFound.
func requireAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// escapeLike escapes the LIKE wildcards so a search for "100%" matches the
// literal text.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
