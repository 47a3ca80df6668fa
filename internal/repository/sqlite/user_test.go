package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// Using ":memory:" creates a fresh database that exists only during the test.
// Benefits:
// - Fast: no disk I/O
// - Isolated: each test gets its own database
// - Clean: automatically destroyed when the connection closes
//
// newTestDB is a "test helper" — the `t.Helper()` call tells Go's test
// framework to report failures at the CALLER's line number, not inside this
// function, which makes failure output much clearer.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	// t.Cleanup registers a function to run when the test finishes.
	// Like defer, but scoped to the test — even works in subtests.
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "$2a$04$testhash"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", username, err)
	}
	return user
}

// =========================================================================
// CREATE USER TESTS
// =========================================================================

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Username: "alice", PasswordHash: "$2a$04$hash"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	// Verify the struct was modified in-place (pointer receiver!)
	if user.ID == 0 {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreateUser() did not set user.CreatedAt")
	}
}

func TestCreateUser_DuplicateUsernameIsConflict(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	// The second registration for the same name must fail with the
	// UsernameTaken conflict — the UNIQUE constraint is the arbiter.
	dup := &model.User{Username: "alice", PasswordHash: "$2a$04$other"}
	err := db.CreateUser(context.Background(), dup)
	if err == nil {
		t.Fatal("CreateUser() allowed a duplicate username")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want ErrConflict", err)
	}

	// The first registration must be untouched.
	found, err := db.GetUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if found.PasswordHash != "$2a$04$testhash" {
		t.Error("duplicate registration overwrote the original user")
	}
}

func TestCreateUser_UsernamesAreCaseSensitive(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	// "Alice" is a different exact string — allowed.
	other := &model.User{Username: "Alice", PasswordHash: "$2a$04$hash"}
	if err := db.CreateUser(context.Background(), other); err != nil {
		t.Fatalf("CreateUser() rejected a different-case username: %v", err)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "bob")

	found, err := db.GetUserByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Username != "bob" {
		t.Errorf("Username = %q, want %q", found.Username, "bob")
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), 9999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByUsername(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByUsername() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// GITHUB ID TESTS
// =========================================================================

func TestGetUserByGitHubID(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Username: "octocat", GitHubID: 583231}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	found, err := db.GetUserByGitHubID(context.Background(), 583231)
	if err != nil {
		t.Fatalf("GetUserByGitHubID() error = %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("ID = %d, want %d", found.ID, user.ID)
	}
}

func TestGetUserByGitHubID_ZeroNeverMatches(t *testing.T) {
	db := newTestDB(t)

	// Password accounts all share github_id = 0 — looking up 0 must not
	// return an arbitrary one of them.
	createTestUser(t, db, "alice")
	createTestUser(t, db, "bob")

	_, err := db.GetUserByGitHubID(context.Background(), 0)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByGitHubID(0) error = %v, want ErrNotFound", err)
	}
}

func TestCreateUser_DuplicateGitHubIDIsConflict(t *testing.T) {
	db := newTestDB(t)

	first := &model.User{Username: "octocat", GitHubID: 583231}
	if err := db.CreateUser(context.Background(), first); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	second := &model.User{Username: "octocat2", GitHubID: 583231}
	err := db.CreateUser(context.Background(), second)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want ErrConflict for duplicate github_id", err)
	}
}
