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

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` creates a nil pointer of type *Y and assigns it to a
// variable of the interface type X. If *Y doesn't implement X, the compiler
// errors immediately instead of at some distant call site.
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user row.
//
// THE UNIQUENESS RACE:
// "Check the username is free, then insert" as two separate statements is a
// race — two concurrent registrations for the same name could both pass the
// check. We don't check at all: we just INSERT and let the UNIQUE constraint
// on username decide. Exactly one concurrent caller wins; the loser's
// constraint violation is translated to apperror.UsernameTaken. The match is
// case-sensitive and exact, because that's how SQLite's default BINARY
// collation compares TEXT.
//
// On success the caller's struct is updated in place with the generated ID
// and creation time (pointer receiver pattern — same as the other Create
// methods in this package).
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, github_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		user.GitHubID,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.UsernameTaken(user.Username)
		}
		return fmt.Errorf("sqlite: creating user %q: %w", user.Username, err)
	}

	// LastInsertId maps to SQLite's last_insert_rowid() — the AUTOINCREMENT
	// value the insert just consumed.
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetUserByID retrieves a user by their ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
// This runs on authenticated read paths that need the full user record.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT id, username, password_hash, github_id, created_at
		 FROM users WHERE id = ?`,
		id, fmt.Sprintf("%d", id))
}

// GetUserByUsername retrieves a user by their exact username.
// The lookup is case-sensitive — "Alice" and "alice" are different accounts.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT id, username, password_hash, github_id, created_at
		 FROM users WHERE username = ?`,
		username, username)
}

// GetUserByGitHubID retrieves the user linked to a GitHub account.
// github_id = 0 means "no GitHub account" and is never a valid lookup key.
func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	if githubID == 0 {
		return nil, apperror.NotFound("user", "github:0")
	}
	return db.getUser(ctx,
		`SELECT id, username, password_hash, github_id, created_at
		 FROM users WHERE github_id = ?`,
		githubID, fmt.Sprintf("github:%d", githubID))
}

// getUser runs a single-row user query and translates sql.ErrNoRows into
// the domain's NotFound. The `key` argument is only used in error messages.
func (db *DB) getUser(ctx context.Context, query string, arg any, key string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.GitHubID,
		&u.CreatedAt,
	)
	if err != nil {
		// sql.ErrNoRows is a sentinel — "no matching row" is not a real
		// error, it's the domain's NotFound outcome.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", key, err)
	}

	return &u, nil
}
