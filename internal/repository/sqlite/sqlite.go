// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Perfect for:
// - Single-server deployments (which is most apps, honestly)
// - Development and testing (use ":memory:" for an in-memory DB)
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// CONSTRAINTS AS THE CONCURRENCY GUARD:
// The two check-then-act writes in this app — registration (is the username
// free?) and like toggling (does the like row exist?) — are racy if done as
// a read followed by a write. We make the database the arbiter instead:
// UNIQUE constraints on users.username and likes(user_id, post_id) mean a
// lost race surfaces as a constraint violation, which the repositories
// translate into the "already exists" outcome. No application-level locking.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides repository methods.
//
// WHY WRAP sql.DB IN A STRUCT?
// 1. We can attach methods to it (CreateUser, GetPost, Toggle, ...)
// 2. We can add more fields later (logger, config, prepared statements)
// 3. It implements the repository interfaces from repository.go
// 4. We control the lifecycle (New creates it, Close destroys it)
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/microblog.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (great for tests, lost on close)
//
// CONNECTION POOL:
// sql.Open() does NOT actually open a connection — it just creates a pool manager.
// The first real connection happens when you run your first query.
// We call db.Ping() to force an immediate connection and verify it works.
func New(dbPath string) (*DB, error) {
	// "sqlite" is the driver name modernc.org/sqlite registers with database/sql.
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection, always.
	// SQLite serialises writes anyway, so extra connections only buy
	// SQLITE_BUSY errors under write contention. And with ":memory:" each
	// pool connection would get its OWN private database — a second
	// connection would see none of your tables.
	conn.SetMaxOpenConns(1)

	// Ping verifies the connection actually works.
	// Without this, a bad path or permissions issue would only surface
	// on the first query — which is much harder to debug.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) mode:
	// Default SQLite locks the entire database during writes.
	// WAL mode allows concurrent reads WHILE a write is happening.
	// This is critical for a web server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (for backwards compatibility).
	// We turn them on so like rows can't point at deleted posts — the
	// ON DELETE CASCADE on likes.post_id depends on this.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	// Run database migrations to create/update tables
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
//
// ALWAYS DEFER CLOSE:
// Wherever you call New(), immediately defer Close():
//
//	db, err := sqlite.New("data/microblog.db")
//	if err != nil { ... }
//	defer db.Close()
//
// This ensures the connection is cleaned up even if a panic occurs.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate runs all database migrations.
//
// For this project, embedding SQL as string constants is fine.
// In production at scale, you'd use golang-migrate which tracks which
// migrations have run. CREATE TABLE IF NOT EXISTS is safe — it won't error
// if the table exists.
func (db *DB) migrate() error {
	// Phase 1: users. The UNIQUE constraint on username IS the registration
	// race guard — see CreateUser.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Phase 1: posts. author_id is nullable on purpose — databases imported
	// from the pre-accounts era have authorless posts (see AdoptOrphanPosts).
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			author_id  INTEGER REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}

	// Phase 2: likes. UNIQUE(user_id, post_id) enforces at-most-one-like-
	// per-user-per-post at the storage level; ON DELETE CASCADE means
	// deleting a post takes its like rows with it — no orphans.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS likes (
			user_id    INTEGER NOT NULL REFERENCES users(id),
			post_id    INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, post_id)
		);
		CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes(post_id);
		CREATE INDEX IF NOT EXISTS idx_likes_user_id ON likes(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating likes table: %w", err)
	}

	// Phase 3: GitHub OAuth — add github_id to users (idempotent, safe on
	// existing DBs). The partial unique index only constrains real GitHub
	// IDs; password accounts all share github_id = 0.
	if err := db.addColumnIfNotExists("users", "github_id",
		"INTEGER NOT NULL DEFAULT 0"); err != nil {
		return fmt.Errorf("adding github_id to users: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
		ON users(github_id) WHERE github_id != 0;
	`)
	if err != nil {
		return fmt.Errorf("creating users github_id index: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent — safe to run multiple times.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
//
// The driver surfaces constraint failures as *sqlite3.Error with an extended
// result code. SQLITE_CONSTRAINT_UNIQUE covers UNIQUE columns and indexes;
// SQLITE_CONSTRAINT_PRIMARYKEY covers INTEGER PRIMARY KEY collisions.
// This is how a lost registration or like-toggle race announces itself.
func isUniqueViolation(err error) bool {
	var sqlErr *sqlite3.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	code := sqlErr.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
}
