package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// LikeService handles business logic for the like relation.
//
// The atomicity of the toggle lives in the repository (one transaction over
// the UNIQUE constraint); this layer adds the rules around it: who may
// toggle, and that the target post must actually exist.
type LikeService struct {
	likes  repository.LikeRepository
	posts  repository.PostRepository
	logger *slog.Logger
}

// NewLikeService creates a LikeService.
func NewLikeService(likes repository.LikeRepository, posts repository.PostRepository, logger *slog.Logger) *LikeService {
	return &LikeService{
		likes:  likes,
		posts:  posts,
		logger: logger,
	}
}

// Toggle flips the user's like on a post and reports the resulting state.
//
// Toggling a post that doesn't exist is NotFound, checked before touching
// the ledger. (If the post disappears between the check and the toggle, the
// foreign key on likes.post_id still refuses the insert — the check is for a
// clean error, the constraint is for correctness.)
//
// Two toggles in a row are a net no-op: Liked then Unliked.
func (s *LikeService) Toggle(ctx context.Context, userID, postID int64) (model.LikeState, error) {
	if userID <= 0 {
		return "", apperror.Forbidden("liking requires an authenticated user")
	}

	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return "", err // NotFound passes through
	}

	state, err := s.likes.Toggle(ctx, userID, postID)
	if err != nil {
		s.logger.Error("failed to toggle like",
			slog.Int64("userID", userID),
			slog.Int64("postID", postID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("toggling like: %w", err)
	}

	s.logger.Info("like toggled",
		slog.Int64("userID", userID),
		slog.Int64("postID", postID),
		slog.String("state", string(state)),
	)

	return state, nil
}

// CountFor returns the number of likes on a post.
func (s *LikeService) CountFor(ctx context.Context, postID int64) (int64, error) {
	return s.likes.CountFor(ctx, postID)
}

// IsLikedBy reports whether the user currently likes the post.
func (s *LikeService) IsLikedBy(ctx context.Context, userID, postID int64) (bool, error) {
	return s.likes.IsLikedBy(ctx, userID, postID)
}

// LikedPostIDs returns the set of post IDs the user currently likes.
func (s *LikeService) LikedPostIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	return s.likes.LikedPostIDs(ctx, userID)
}
