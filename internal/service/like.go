package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/likestate"
	"github.com/sakif/ai-directory/internal/metrics"
	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/repository"
)

// Messages returned in ToggleResult.Error. The frontend matches on the
// login message to open the sign-in dialog, so it must not change.
const (
	MsgLoginRequired    = "You must be logged in to like products"
	MsgCheckLikeFailed  = "Failed to check like status"
	MsgRemoveLikeFailed = "Failed to remove like"
	MsgAddLikeFailed    = "Failed to add like"
	MsgLikeCountFailed  = "Failed to get updated like count"
)

// LikeCounter reads the store-maintained like_count of a product.
type LikeCounter interface {
	GetLikeCount(ctx context.Context, productID string) (int, error)
}

// ToggleResult is what a like toggle reports back. Failures are values,
// not errors: the caller always gets a state to display.
type ToggleResult struct {
	Success   bool   `json:"success"`
	IsLiked   bool   `json:"isLiked"`
	LikeCount int    `json:"likeCount"`
	Error     string `json:"error,omitempty"`
}

type LikeStatus struct {
	IsLiked   bool `json:"isLiked"`
	LikeCount int  `json:"likeCount"`
}

type LikeService struct {
	likes   repository.LikeRepository
	counts  LikeCounter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewLikeService(likes repository.LikeRepository, counts LikeCounter, m *metrics.Metrics, logger *slog.Logger) *LikeService {
	return &LikeService{likes: likes, counts: counts, metrics: m, logger: logger}
}

// Toggle flips whether viewer likes productID.
//
// Steps, with no transaction around them:
//  1. look up the existing like to learn the current state
//  2. insert or delete, as the likestate transition table says
//  3. re-read like_count (the store's triggers have already updated it)
//
// A failed step 2 reports the last confirmed state (the optimistic
// prediction is rolled back). A failed step 3 reports the new state: the
// like change is committed and is not undone.
func (s *LikeService) Toggle(ctx context.Context, viewer *model.Viewer, productID string) ToggleResult {
	if viewer == nil {
		s.metrics.LikeToggled(metrics.LikeDenied)
		return ToggleResult{Error: MsgLoginRequired}
	}

	current := likestate.NotLiked
	_, err := s.likes.GetLike(ctx, viewer.UserID, productID)
	switch {
	case err == nil:
		current = likestate.Liked
	case errors.Is(err, apperror.ErrNotFound):
	default:
		s.logger.Error("checking existing like",
			slog.String("userID", viewer.UserID),
			slog.String("productID", productID),
			slog.String("error", err.Error()),
		)
		s.metrics.LikeToggled(metrics.LikeFailed)
		return ToggleResult{Error: MsgCheckLikeFailed}
	}

	o := likestate.NewOptimistic(current)
	action, _ := o.Fire(likestate.EventToggle) // a fresh Optimistic is idle

	if err := s.apply(ctx, viewer.UserID, productID, action); err != nil {
		o.Fire(likestate.EventFailure)

		msg := MsgAddLikeFailed
		if action == likestate.DeleteLike {
			msg = MsgRemoveLikeFailed
		}
		s.logger.Error("applying like toggle",
			slog.String("userID", viewer.UserID),
			slog.String("productID", productID),
			slog.String("action", action.String()),
			slog.String("error", err.Error()),
		)
		s.metrics.LikeToggled(metrics.LikeFailed)
		return ToggleResult{IsLiked: o.Shown().IsLiked(), Error: msg}
	}
	o.Fire(likestate.EventSuccess)
	liked := o.Confirmed().IsLiked()

	if liked {
		s.metrics.LikeToggled(metrics.LikeLiked)
	} else {
		s.metrics.LikeToggled(metrics.LikeUnliked)
	}

	count, err := s.counts.GetLikeCount(ctx, productID)
	if err != nil {
		s.logger.Error("fetching updated like count",
			slog.String("productID", productID),
			slog.String("error", err.Error()),
		)
		return ToggleResult{IsLiked: liked, Error: MsgLikeCountFailed}
	}

	return ToggleResult{Success: true, IsLiked: liked, LikeCount: count}
}

// apply performs the store action of a transition.
//
// An insert rejected by the UNIQUE (user_id, product_id) index means a
// concurrent request from the same user already inserted the row. The end
// state is Liked either way, so the conflict counts as success.
func (s *LikeService) apply(ctx context.Context, userID, productID string, action likestate.Action) error {
	switch action {
	case likestate.InsertLike:
		_, err := s.likes.InsertLike(ctx, userID, productID)
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Debug("like already present, treating as liked",
				slog.String("userID", userID),
				slog.String("productID", productID),
			)
			return nil
		}
		return err
	case likestate.DeleteLike:
		return s.likes.DeleteLike(ctx, userID, productID)
	}
	return nil
}

// Status reports whether viewer likes productID and the current count.
//
// It never fails: anonymous viewers get IsLiked=false without a lookup,
// and store errors degrade to zero values after being logged, so a product
// page still renders.
func (s *LikeService) Status(ctx context.Context, viewer *model.Viewer, productID string) LikeStatus {
	var st LikeStatus

	if viewer != nil {
		_, err := s.likes.GetLike(ctx, viewer.UserID, productID)
		switch {
		case err == nil:
			st.IsLiked = true
		case !errors.Is(err, apperror.ErrNotFound):
			s.logger.Warn("reading like status",
				slog.String("productID", productID),
				slog.String("error", err.Error()),
			)
		}
	}

	count, err := s.counts.GetLikeCount(ctx, productID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("reading like count",
				slog.String("productID", productID),
				slog.String("error", err.Error()),
			)
		}
		return LikeStatus{IsLiked: st.IsLiked}
	}
	st.LikeCount = count
	return st
}

// LikedProductIDs lists the products viewer likes. Empty for anonymous.
func (s *LikeService) LikedProductIDs(ctx context.Context, viewer *model.Viewer) ([]string, error) {
	if viewer == nil {
		return []string{}, nil
	}
	ids, err := s.likes.LikedProductIDs(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// LikedProducts is LikedProductIDs with the full active products.
func (s *LikeService) LikedProducts(ctx context.Context, viewer *model.Viewer) ([]model.Product, error) {
	if viewer == nil {
		return []model.Product{}, nil
	}
	return s.likes.LikedProducts(ctx, viewer.UserID)
}
