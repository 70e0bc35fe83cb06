package service

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/metrics"
	"github.com/sakif/ai-directory/internal/model"
)

// fakeLikes is a LikeRepository with injectable failures. liked holds the
// current rows as "user/product".
type fakeLikes struct {
	liked map[string]bool
	calls int

	getErr    error
	insertErr error
	deleteErr error
}

func newFakeLikes() *fakeLikes { return &fakeLikes{liked: make(map[string]bool)} }

func (f *fakeLikes) GetLike(ctx context.Context, userID, productID string) (*model.Like, error) {
	f.calls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if !f.liked[userID+"/"+productID] {
		return nil, apperror.NotFound("like", userID+"/"+productID)
	}
	return &model.Like{UserID: userID, ProductID: productID}, nil
}

func (f *fakeLikes) InsertLike(ctx context.Context, userID, productID string) (*model.Like, error) {
	f.calls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.liked[userID+"/"+productID] = true
	return &model.Like{UserID: userID, ProductID: productID}, nil
}

func (f *fakeLikes) DeleteLike(ctx context.Context, userID, productID string) error {
	f.calls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.liked, userID+"/"+productID)
	return nil
}

func (f *fakeLikes) LikedProductIDs(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

func (f *fakeLikes) LikedProducts(ctx context.Context, userID string) ([]model.Product, error) {
	return nil, nil
}

type fakeCounter struct {
	count int
	err   error
}

func (f fakeCounter) GetLikeCount(ctx context.Context, productID string) (int, error) {
	return f.count, f.err
}

var alice = &model.Viewer{UserID: "alice"}

func TestToggle_Anonymous(t *testing.T) {
	likes := newFakeLikes()
	svc := NewLikeService(likes, fakeCounter{count: 3}, newTestMetrics(), discardLogger())

	got := svc.Toggle(context.Background(), nil, "p1")

	assert.Equal(t, ToggleResult{Error: MsgLoginRequired}, got)
	assert.Zero(t, likes.calls, "anonymous toggle must not touch the store")
}

func TestToggle_Failures(t *testing.T) {
	tests := []struct {
		name       string
		startLiked bool
		setup      func(*fakeLikes)
		counter    fakeCounter
		want       ToggleResult
	}{
		{
			name:  "lookup fails",
			setup: func(f *fakeLikes) { f.getErr = errBoom },
			want:  ToggleResult{Error: MsgCheckLikeFailed},
		},
		{
			name:  "insert fails, shows not liked",
			setup: func(f *fakeLikes) { f.insertErr = errBoom },
			want:  ToggleResult{IsLiked: false, Error: MsgAddLikeFailed},
		},
		{
			name:       "delete fails, shows liked",
			startLiked: true,
			setup:      func(f *fakeLikes) { f.deleteErr = errBoom },
			want:       ToggleResult{IsLiked: true, Error: MsgRemoveLikeFailed},
		},
		{
			name:    "count fails after like, keeps new state",
			counter: fakeCounter{err: errBoom},
			want:    ToggleResult{IsLiked: true, Error: MsgLikeCountFailed},
		},
		{
			name:    "concurrent insert counts as liked",
			setup:   func(f *fakeLikes) { f.insertErr = apperror.Conflict("like", "alice/p1") },
			counter: fakeCounter{count: 1},
			want:    ToggleResult{Success: true, IsLiked: true, LikeCount: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			likes := newFakeLikes()
			if tt.startLiked {
				likes.liked["alice/p1"] = true
			}
			if tt.setup != nil {
				tt.setup(likes)
			}
			svc := NewLikeService(likes, tt.counter, newTestMetrics(), discardLogger())

			assert.Equal(t, tt.want, svc.Toggle(context.Background(), alice, "p1"))
		})
	}
}

func TestToggle_SQLite(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewLikeService(db, db, newTestMetrics(), discardLogger())

	p := seedProduct(t, db, "Cursor", "cursor", "Coding")
	u := seedUser(t, db, 1)
	viewer := model.NewViewer(u.ID)

	got := svc.Toggle(ctx, viewer, p.ID)
	assert.Equal(t, ToggleResult{Success: true, IsLiked: true, LikeCount: 1}, got)

	st := svc.Status(ctx, viewer, p.ID)
	assert.Equal(t, LikeStatus{IsLiked: true, LikeCount: 1}, st)

	ids, err := svc.LikedProductIDs(ctx, viewer)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, ids)

	got = svc.Toggle(ctx, viewer, p.ID)
	assert.Equal(t, ToggleResult{Success: true, IsLiked: false, LikeCount: 0}, got)

	assert.Equal(t, LikeStatus{}, svc.Status(ctx, viewer, p.ID))
	assert.Equal(t, LikeStatus{}, svc.Status(ctx, nil, p.ID))
}

func TestStatus_AnonymousSeesCountButNotLiked(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewLikeService(db, db, newTestMetrics(), discardLogger())

	p := seedProduct(t, db, "Cursor", "cursor", "Coding")
	liker := model.NewViewer(seedUser(t, db, 1).ID)
	require.True(t, svc.Toggle(ctx, liker, p.ID).IsLiked)

	assert.Equal(t, LikeStatus{IsLiked: false, LikeCount: 1}, svc.Status(ctx, nil, p.ID))

	other := model.NewViewer(seedUser(t, db, 2).ID)
	assert.Equal(t, LikeStatus{IsLiked: false, LikeCount: 1}, svc.Status(ctx, other, p.ID))
}

func TestToggle_TwoUsersShareCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewLikeService(db, db, newTestMetrics(), discardLogger())

	p := seedProduct(t, db, "Cursor", "cursor", "")
	a := model.NewViewer(seedUser(t, db, 1).ID)
	b := model.NewViewer(seedUser(t, db, 2).ID)

	svc.Toggle(ctx, a, p.ID)
	got := svc.Toggle(ctx, b, p.ID)
	assert.Equal(t, 2, got.LikeCount)

	got = svc.Toggle(ctx, a, p.ID)
	assert.False(t, got.IsLiked)
	assert.Equal(t, 1, got.LikeCount)

	// b still likes it
	assert.True(t, svc.Status(ctx, b, p.ID).IsLiked)
}

func TestToggle_UnknownProductFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikeService(db, db, newTestMetrics(), discardLogger())
	u := seedUser(t, db, 1)

	got := svc.Toggle(context.Background(), model.NewViewer(u.ID), "no-such-product")

	assert.False(t, got.Success)
	assert.False(t, got.IsLiked)
	assert.Equal(t, MsgAddLikeFailed, got.Error)
}

func TestLikeService_AnonymousLists(t *testing.T) {
	svc := NewLikeService(newFakeLikes(), fakeCounter{}, newTestMetrics(), discardLogger())

	ids, err := svc.LikedProductIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)

	products, err := svc.LikedProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, products)
}

func TestToggle_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := NewLikeService(newFakeLikes(), fakeCounter{count: 1}, metrics.New(reg), discardLogger())
	ctx := context.Background()

	svc.Toggle(ctx, nil, "p1")
	svc.Toggle(ctx, alice, "p1")
	svc.Toggle(ctx, alice, "p1")

	expected := `
# HELP directory_like_toggles_total Like toggles by outcome.
# TYPE directory_like_toggles_total counter
directory_like_toggles_total{result="anonymous"} 1
directory_like_toggles_total{result="liked"} 1
directory_like_toggles_total{result="unliked"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "directory_like_toggles_total")
	assert.NoError(t, err)
}
