package repository

import (
	"context"

	"github.com/sakif/microblog/internal/model"
)

// UserRepository owns user identities and the unique-username invariant.
// CreateUser must treat "check the name is free" and "insert the row" as one
// atomic step — implementations lean on a UNIQUE constraint and translate a
// violation into apperror.UsernameTaken.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
}

// PostRepository owns post rows. Deletion here is unconditional — the
// ownership check lives in the service layer, which knows who is asking.
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	DeletePost(ctx context.Context, id int64) error

	// AdoptOrphanPosts assigns every post with a NULL author to the given
	// user and returns how many rows were claimed. Maintenance path for
	// databases migrated from before accounts existed.
	AdoptOrphanPosts(ctx context.Context, authorID int64) (int64, error)
}

// LikeRepository owns the (user, post) like relation. Toggle is the one
// non-trivial write: check-then-act under a transaction so two concurrent
// toggles can't both insert.
type LikeRepository interface {
	Toggle(ctx context.Context, userID, postID int64) (model.LikeState, error)
	CountFor(ctx context.Context, postID int64) (int64, error)
	IsLikedBy(ctx context.Context, userID, postID int64) (bool, error)
	LikedPostIDs(ctx context.Context, userID int64) (map[int64]struct{}, error)
}

// FeedRepository produces the denormalized feed listing: every post (liked
// or not), newest first, with author username and aggregate like count.
// Viewer-specific state is layered on by the feed service, not here.
type FeedRepository interface {
	ListAll(ctx context.Context) ([]model.FeedEntry, error)
}
