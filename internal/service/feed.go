package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// FeedService composes the post listing with per-viewer like state.
//
// The repository produces the viewer-independent part (every post, author
// name, like count, newest first) in one grouped query; this service overlays
// "did THIS viewer like it?" from the like ledger. Splitting it this way
// keeps the aggregate query identical for every caller and makes the overlay
// trivially testable.
type FeedService struct {
	feed   repository.FeedRepository
	likes  repository.LikeRepository
	logger *slog.Logger
}

// NewFeedService creates a FeedService.
func NewFeedService(feed repository.FeedRepository, likes repository.LikeRepository, logger *slog.Logger) *FeedService {
	return &FeedService{
		feed:   feed,
		likes:  likes,
		logger: logger,
	}
}

// ListAll returns the feed for the given viewer.
//
// viewerID nil = anonymous: every entry has ViewerHasLiked = false.
// For an authenticated viewer, one extra query fetches their liked-post set
// and each entry is annotated by membership test. Posts with zero likes are
// present either way, with LikeCount 0.
func (s *FeedService) ListAll(ctx context.Context, viewerID *int64) ([]model.FeedEntry, error) {
	entries, err := s.feed.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list feed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing feed: %w", err)
	}

	if viewerID == nil {
		return entries, nil
	}

	liked, err := s.likes.LikedPostIDs(ctx, *viewerID)
	if err != nil {
		s.logger.Error("failed to load viewer likes",
			slog.Int64("viewerID", *viewerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("loading viewer likes: %w", err)
	}

	for i := range entries {
		_, entries[i].ViewerHasLiked = liked[entries[i].ID]
	}

	return entries, nil
}
