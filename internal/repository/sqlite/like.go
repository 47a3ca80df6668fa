package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

var _ repository.LikeRepository = (*DB)(nil)

// Toggle flips the like relation for (userID, postID): delete the row if it
// exists, insert it otherwise. Returns which way it went.
//
// THE TOGGLE RACE:
// "SELECT to see if the like exists, then INSERT or DELETE" is the classic
// check-then-act race — two concurrent toggles could both see "no like" and
// both insert, breaking at-most-one-like-per-user-per-post. Two guards make
// this safe:
//
//  1. The whole operation runs in one transaction, so the check and the act
//     commit (or roll back) as a unit.
//  2. Even if a concurrent transaction sneaks an identical row in between,
//     the INSERT uses ON CONFLICT(user_id, post_id) DO NOTHING over the
//     UNIQUE constraint — the loser's insert affects zero rows instead of
//     erroring, and the user still ends up in the Liked state they asked for.
//
// The DELETE runs first because it doubles as the existence check:
// RowsAffected > 0 means the like was there and is now gone.
func (db *DB) Toggle(ctx context.Context, userID, postID int64) (model.LikeState, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("sqlite: beginning toggle transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op — this is the standard
	// pattern to release the transaction on every early-return path.
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = ? AND post_id = ?`,
		userID, postID,
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: removing like (%d,%d): %w", userID, postID, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	state := model.Unliked
	if deleted == 0 {
		// No row to remove — this toggle is an insert.
		_, err := tx.ExecContext(ctx,
			`INSERT INTO likes (user_id, post_id)
			 VALUES (?, ?)
			 ON CONFLICT(user_id, post_id) DO NOTHING`,
			userID, postID,
		)
		if err != nil {
			return "", fmt.Errorf("sqlite: inserting like (%d,%d): %w", userID, postID, err)
		}
		state = model.Liked
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("sqlite: committing toggle: %w", err)
	}

	return state, nil
}

// CountFor returns the number of like rows for a post. There is no cached
// counter to drift out of sync — the rows ARE the count.
func (db *DB) CountFor(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE post_id = ?`,
		postID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting likes for post %d: %w", postID, err)
	}
	return count, nil
}

// IsLikedBy reports whether the user currently likes the post.
func (db *DB) IsLikedBy(ctx context.Context, userID, postID int64) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = ? AND post_id = ?)`,
		userID, postID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking like (%d,%d): %w", userID, postID, err)
	}
	return exists, nil
}

// LikedPostIDs returns the set of posts the user currently likes.
//
// WHY A MAP AND NOT A SLICE?
// The feed annotates every entry with "did the viewer like this?" — that's a
// membership test per post, and map[int64]struct{} is Go's idiom for a set
// (struct{} takes zero bytes; the keys are all that matter).
func (db *DB) LikedPostIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT post_id FROM likes WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing liked posts for user %d: %w", userID, err)
	}
	// CRITICAL: always close rows — a forgotten Close leaks a pool connection.
	defer rows.Close()

	liked := make(map[int64]struct{})
	for rows.Next() {
		var postID int64
		if err := rows.Scan(&postID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning liked post id: %w", err)
		}
		liked[postID] = struct{}{}
	}

	// rows.Err() catches errors that happened DURING iteration.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating liked posts: %w", err)
	}

	return liked, nil
}
