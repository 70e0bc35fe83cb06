package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/ai-directory/internal/apperror"
)

func likeCount(t *testing.T, db *DB, productID string) int {
	t.Helper()
	n, err := db.GetLikeCount(context.Background(), productID)
	if err != nil {
		t.Fatalf("GetLikeCount() error = %v", err)
	}
	return n
}

func TestInsertLike_TriggerIncrementsCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := createTestProduct(t, db, "Liked", "liked")
	alice := createTestUser(t, db, 1, "alice")
	bob := createTestUser(t, db, 2, "bob")

	l, err := db.InsertLike(ctx, alice.ID, p.ID)
	if err != nil {
		t.Fatalf("InsertLike() error = %v", err)
	}
	if l.ID == "" || l.UserID != alice.ID || l.ProductID != p.ID {
		t.Errorf("InsertLike() returned %+v", l)
	}
	if got := likeCount(t, db, p.ID); got != 1 {
		t.Errorf("like_count = %d, want 1", got)
	}

	if _, err := db.InsertLike(ctx, bob.ID, p.ID); err != nil {
		t.Fatalf("InsertLike() error = %v", err)
	}
	if got := likeCount(t, db, p.ID); got != 2 {
		t.Errorf("like_count = %d, want 2", got)
	}
}

func TestInsertLike_DuplicateIsConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := createTestProduct(t, db, "Once", "once")
	u := createTestUser(t, db, 1, "alice")

	if _, err := db.InsertLike(ctx, u.ID, p.ID); err != nil {
		t.Fatalf("InsertLike() error = %v", err)
	}
	_, err := db.InsertLike(ctx, u.ID, p.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The rejected insert must not have fired the trigger.
	if got := likeCount(t, db, p.ID); got != 1 {
		t.Errorf("like_count = %d, want 1", got)
	}
}

func TestInsertLike_UnknownProduct(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, 1, "alice")

	_, err := db.InsertLike(context.Background(), u.ID, "no-such-product")
	if err == nil {
		t.Fatal("expected foreign key error, got nil")
	}
}

func TestDeleteLike_TriggerDecrementsCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := createTestProduct(t, db, "Fickle", "fickle")
	u := createTestUser(t, db, 1, "alice")

	if _, err := db.InsertLike(ctx, u.ID, p.ID); err != nil {
		t.Fatalf("InsertLike() error = %v", err)
	}
	if err := db.DeleteLike(ctx, u.ID, p.ID); err != nil {
		t.Fatalf("DeleteLike() error = %v", err)
	}
	if got := likeCount(t, db, p.ID); got != 0 {
		t.Errorf("like_count = %d, want 0", got)
	}

	_, err := db.GetLike(ctx, u.ID, p.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is a no-op and the count stays at zero.
	if err := db.DeleteLike(ctx, u.ID, p.ID); err != nil {
		t.Fatalf("second DeleteLike() error = %v", err)
	}
	if got := likeCount(t, db, p.ID); got != 0 {
		t.Errorf("like_count = %d, want 0", got)
	}
}

func TestLikeCount_NeverNegative(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := createTestProduct(t, db, "Drifted", "drifted")
	u := createTestUser(t, db, 1, "alice")
	if _, err := db.InsertLike(ctx, u.ID, p.ID); err != nil {
		t.Fatalf("InsertLike() error = %v", err)
	}

	// Simulate a counter that drifted to zero while the like row remained.
	if _, err := db.conn.ExecContext(ctx, `UPDATE products SET like_count = 0 WHERE id = ?`, p.ID); err != nil {
		t.Fatalf("forcing like_count: %v", err)
	}
	if err := db.DeleteLike(ctx, u.ID, p.ID); err != nil {
		t.Fatalf("DeleteLike() error = %v", err)
	}
	if got := likeCount(t, db, p.ID); got != 0 {
		t.Errorf("like_count = %d, want 0", got)
	}
}

func TestGetLikeCount_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetLikeCount(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLikedProducts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := createTestUser(t, db, 1, "alice")
	a := createTestProduct(t, db, "A", "a")
	b := createTestProduct(t, db, "B", "b")
	createTestProduct(t, db, "C", "c")

	for _, id := range []string{a.ID, b.ID} {
		if _, err := db.InsertLike(ctx, u.ID, id); err != nil {
			t.Fatalf("InsertLike() error = %v", err)
		}
	}

	ids, err := db.LikedProductIDs(ctx, u.ID)
	if err != nil {
		t.Fatalf("LikedProductIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != b.ID || ids[1] != a.ID {
		t.Errorf("LikedProductIDs() = %v, want [%s %s]", ids, b.ID, a.ID)
	}

	products, err := db.LikedProducts(ctx, u.ID)
	if err != nil {
		t.Fatalf("LikedProducts() error = %v", err)
	}
	if len(products) != 2 || products[0].Slug != "b" || products[1].Slug != "a" {
		t.Errorf("LikedProducts() returned %d products in the wrong order", len(products))
	}
	if products[0].LikeCount != 1 {
		t.Errorf("LikeCount = %d, want 1", products[0].LikeCount)
	}

	none, err := db.LikedProductIDs(ctx, "nobody")
	if err != nil {
		t.Fatalf("LikedProductIDs() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("unknown user has likes: %v", none)
	}
}
