package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// Validation constants. Named constants (not magic numbers) are easy to find,
// self-documenting, and referenceable in error messages.
const (
	MaxTitleLength   = 200
	MaxContentLength = 50000 // ~50KB of text
)

// PostService handles business logic for posts: validation, sanitization,
// and the ownership rule on deletion.
type PostService struct {
	posts         repository.PostRepository
	contentPolicy *bluemonday.Policy
	titlePolicy   *bluemonday.Policy
	logger        *slog.Logger
}

// NewPostService creates a PostService.
//
// SANITIZATION POLICIES:
// Post content is user-generated and gets rendered by clients, so it passes
// through bluemonday's UGC policy on the way in — basic formatting tags
// survive, script/event-handler vectors do not. Titles are plain text, so
// they get the strict policy (strip every tag). Sanitizing at write time
// means the stored bytes are already safe and immutable, matching the
// no-edit contract.
func NewPostService(posts repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{
		posts:         posts,
		contentPolicy: bluemonday.UGCPolicy(),
		titlePolicy:   bluemonday.StrictPolicy(),
		logger:        logger,
	}
}

// Create validates, sanitizes, and saves a new post.
//
// The authenticated-callers-only rule is enforced upstream by the RequireAuth
// middleware — an anonymous request never reaches this method. The authorID
// check here is a belt against miswired callers, not the access control.
//
// Empty titles and empty content are rejected. (The storage schema would
// happily accept them; the rule lives here, where every caller — HTTP or
// otherwise — passes through.)
func (s *PostService) Create(ctx context.Context, authorID int64, title, content string) (*model.Post, error) {
	if authorID <= 0 {
		return nil, apperror.Forbidden("posting requires an authenticated user")
	}

	title = strings.TrimSpace(s.titlePolicy.Sanitize(title))
	content = strings.TrimSpace(s.contentPolicy.Sanitize(content))

	if title == "" {
		return nil, apperror.ValidationFailed("title", "post title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("post title must be %d characters or less", MaxTitleLength))
	}
	if content == "" {
		return nil, apperror.ValidationFailed("content", "post content is required")
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("post content must be %d characters or less", MaxContentLength))
	}

	post := &model.Post{
		Title:    title,
		Content:  content,
		AuthorID: &authorID,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.Int64("authorID", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.Int64("postID", post.ID),
		slog.Int64("authorID", authorID),
	)

	return post, nil
}

// Get retrieves a post by its ID.
// Returns apperror.ErrNotFound if the post doesn't exist.
func (s *PostService) Get(ctx context.Context, id int64) (*model.Post, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}
	return s.posts.GetPost(ctx, id)
}

// Delete removes a post — but only for its author.
//
// OWNERSHIP IS AN OBSERVABLE RULE:
// A non-author's delete returns Forbidden rather than silently succeeding or
// silently doing nothing. The post stays retrievable either way; the caller
// just gets told why nothing happened. A legacy authorless post has no
// author, so nobody may delete it.
//
// Fetch-then-delete is two statements, but the worst a race can do is turn
// the delete into NotFound — the ownership decision itself is made against a
// post that cannot change authors (posts are immutable).
func (s *PostService) Delete(ctx context.Context, id, requesterID int64) error {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return err // NotFound passes through
	}

	if post.AuthorID == nil || *post.AuthorID != requesterID {
		return apperror.Forbidden("only the author may delete a post")
	}

	if err := s.posts.DeletePost(ctx, id); err != nil {
		return err
	}

	s.logger.Info("post deleted",
		slog.Int64("postID", id),
		slog.Int64("requesterID", requesterID),
	)
	return nil
}
