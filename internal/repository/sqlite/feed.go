package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

var _ repository.FeedRepository = (*DB)(nil)

// ListAll returns every post as a feed entry: author username attached,
// like rows counted, newest post first.
//
// WHY LEFT JOIN, TWICE?
//
//   - LEFT JOIN users: a legacy post can have a NULL author_id. An inner
//     join would silently drop it from the feed; the left join keeps it,
//     with an empty username via COALESCE.
//   - LEFT JOIN likes: a post with zero likes has no like rows AT ALL. An
//     inner join against likes would drop exactly those posts — brand-new
//     posts would be invisible until someone liked them. The left join
//     keeps them; COUNT(l.post_id) counts only matched like rows (COUNT of
//     a column skips NULLs), so an unmatched post counts 0, not 1.
//
// GROUP BY collapses the per-like rows back to one row per post. Ordering
// is id DESC — ids are assigned in creation order, so this is
// newest-created-first.
//
// Viewer-specific like state is NOT computed here; the feed service overlays
// it from LikedPostIDs. Keeping this query viewer-independent means the
// expensive aggregate is identical for every caller.
func (db *DB) ListAll(ctx context.Context) ([]model.FeedEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.id, p.title, p.content, p.author_id,
		        COALESCE(u.username, '') AS author_username,
		        COUNT(l.post_id)         AS like_count,
		        p.created_at
		 FROM posts p
		 LEFT JOIN users u ON u.id = p.author_id
		 LEFT JOIN likes l ON l.post_id = p.id
		 GROUP BY p.id, p.title, p.content, p.author_id, u.username, p.created_at
		 ORDER BY p.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing feed: %w", err)
	}
	defer rows.Close()

	entries := []model.FeedEntry{}
	for rows.Next() {
		var (
			e        model.FeedEntry
			authorID sql.NullInt64
		)
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Content, &authorID,
			&e.AuthorUsername, &e.LikeCount, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning feed entry: %w", err)
		}
		if authorID.Valid {
			e.AuthorID = &authorID.Int64
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating feed: %w", err)
	}

	return entries, nil
}
