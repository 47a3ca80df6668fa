package model

import "time"

// Post represents a published blog post.
//
// The `json:"..."` tags tell Go's encoding/json package how to serialize this
// struct to/from JSON — metadata attached to fields, called "struct tags".
//
// WHY AuthorID *int64 (a pointer)?
// The author_id column is nullable: posts imported from before accounts
// existed have no author. A pointer distinguishes "no author" (nil) from
// "author with ID 0" — which an int64 zero value could not. Normal creation
// always sets it; nil only ever appears as a legacy artifact.
//
// Title and Content are immutable once created — there is no edit operation.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  *int64    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}
