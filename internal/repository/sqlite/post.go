package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// CreatePost inserts a new post.
//
// POINTER RECEIVER (*model.Post):
// We take a pointer so we can modify the original struct — after CreatePost,
// the caller's post carries the generated ID and creation time.
//
// PARAMETERIZED QUERIES (the ? placeholders):
// Never build SQL strings with fmt.Sprintf or concatenation — that's a SQL
// injection hole. The ? placeholders are filled by the driver, which escapes
// the values safely.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	post.CreatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (title, content, author_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		post.Title,
		post.Content,
		post.AuthorID,
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new post id: %w", err)
	}
	post.ID = id

	return nil
}

// GetPost retrieves a single post by its ID.
//
// QueryRowContext runs a SELECT expecting at most one row; Scan reads the
// columns into Go variables in SELECT order. sql.ErrNoRows — "no matching
// row" — is translated to the domain's NotFound so the handler knows to 404.
func (db *DB) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	var (
		p        model.Post
		authorID sql.NullInt64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, content, author_id, created_at
		 FROM posts
		 WHERE id = ?`,
		id,
	).Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&authorID,
		&p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", fmt.Sprintf("%d", id))
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}

	// author_id is NULLABLE — sql.NullInt64 is the scan target, and we map
	// it onto the model's *int64 (nil = legacy authorless post).
	if authorID.Valid {
		p.AuthorID = &authorID.Int64
	}

	return &p, nil
}

// DeletePost removes a post by its ID.
//
// RowsAffected tells us how many rows the DELETE matched; zero means the
// post was already gone → NotFound. The like rows for the post vanish with
// it via ON DELETE CASCADE, so no orphaned likes are left behind.
//
// NOTE: no ownership check here. The repository deletes whatever it's told
// to — the service layer decides whether the requester is allowed to ask.
func (db *DB) DeletePost(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM posts WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", fmt.Sprintf("%d", id))
	}

	return nil
}

// AdoptOrphanPosts assigns every authorless post to the given user.
//
// Databases imported from before accounts existed can contain posts with a
// NULL author_id. This claims them all in one UPDATE and reports how many
// rows changed. Zero is a normal outcome — it just means there was nothing
// to adopt.
func (db *DB) AdoptOrphanPosts(ctx context.Context, authorID int64) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET author_id = ? WHERE author_id IS NULL`,
		authorID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: adopting orphan posts: %w", err)
	}

	adopted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	return adopted, nil
}
