package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/repository"
)

var _ repository.LikeRepository = (*DB)(nil)

// GetLike returns the like row for (userID, productID), or
// apperror.ErrNotFound when the user does not like the product.
func (db *DB) GetLike(ctx context.Context, userID, productID string) (*model.Like, error) {
	var l model.Like
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, product_id, created_at FROM likes
		 WHERE user_id = ? AND product_id = ?`,
		userID, productID,
	).Scan(&l.ID, &l.UserID, &l.ProductID, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("like", userID+"/"+productID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting like %s/%s: %w", userID, productID, err)
	}
	return &l, nil
}

// InsertLike records that userID likes productID. The trg_likes_insert
// trigger bumps products.like_count in the same statement.
//
// A second insert for the same pair fails the UNIQUE index and comes back
// as apperror.ErrConflict.
func (db *DB) InsertLike(ctx context.Context, userID, productID string) (*model.Like, error) {
	l := &model.Like{
		ID:        xid.New().String(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO likes (id, user_id, product_id, created_at) VALUES (?, ?, ?, ?)`,
		l.ID, l.UserID, l.ProductID, l.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, apperror.Conflict("like", userID+"/"+productID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: inserting like %s/%s: %w", userID, productID, err)
	}
	return l, nil
}

// DeleteLike removes the like for (userID, productID). Deleting a like that
// does not exist is not an error: the end state is the same.
func (db *DB) DeleteLike(ctx context.Context, userID, productID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting like %s/%s: %w", userID, productID, err)
	}
	return nil
}

// LikedProductIDs returns the IDs of every product userID likes, most
// recently liked first.
func (db *DB) LikedProductIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT product_id FROM likes WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing likes of %s: %w", userID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning like row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating like rows: %w", err)
	}
	return ids, nil
}

// LikedProducts returns the active products userID likes, most recently
// liked first.
func (db *DB) LikedProducts(ctx context.Context, userID string) ([]model.Product, error) {
	return db.queryProducts(ctx,
		`SELECT p.id, p.name, p.description, p.url, p.category_id, p.category_name,
			p.pricing, p.logo_url, p.image_url, p.featured, p.status, p.slug,
			p.like_count, p.submission_id, p.created_at, p.updated_at
		 FROM likes l JOIN products p ON p.id = l.product_id
		 WHERE l.user_id = ? AND p.status = ?
		 ORDER BY l.created_at DESC, l.rowid DESC`,
		userID, model.ProductActive)
}
