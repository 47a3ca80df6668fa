package model

import "time"

// FeedEntry is the denormalized view of a post for the feed listing:
// post fields + author username + aggregate like count + the viewer's own
// like state. It is produced by a single grouped LEFT JOIN query, not by
// keeping a counter in sync — the like rows are the sole source of truth.
//
// AuthorUsername is empty when the post has no author (legacy NULL author_id).
// ViewerHasLiked is always false for anonymous viewers.
type FeedEntry struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	AuthorID       *int64    `json:"authorId"`
	AuthorUsername string    `json:"authorUsername"`
	LikeCount      int64     `json:"likeCount"`
	ViewerHasLiked bool      `json:"viewerHasLiked"`
	CreatedAt      time.Time `json:"createdAt"`
}

// LikeState is the observable outcome of a like toggle.
type LikeState string

const (
	Liked   LikeState = "liked"
	Unliked LikeState = "unliked"
)
