package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/model"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// WHAT IS A MOCK?
// A mock is a fake implementation of an interface used in tests. Instead of
// talking to a real database, it stores data in memory. The services don't
// know or care which implementation they get — that's the point of accepting
// the repository interfaces. Benefits:
// 1. SPEED: no database setup, tests run in microseconds
// 2. ISOLATION: tests only exercise the service logic, not SQL
// 3. CONTROL: simulating a storage failure is one field assignment
//
// These mocks are shared by the auth/post/like/feed service tests, so they
// live in their own _test.go file. A hand-written mock is clearer here than
// a mocking library — the interfaces are small.

type mockUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	err    error // when set, every call fails with this
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.UsernameTaken(user.Username)
		}
		if user.GitHubID != 0 && u.GitHubID == user.GitHubID {
			return apperror.UsernameTaken(user.Username)
		}
	}
	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", fmt.Sprintf("%d", id))
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) GetUserByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if githubID != 0 && u.GitHubID == githubID {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", fmt.Sprintf("github:%d", githubID))
}

type mockPostRepo struct {
	posts  map[int64]*model.Post
	nextID int64
	err    error
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{posts: make(map[int64]*model.Post)}
}

func (m *mockPostRepo) CreatePost(_ context.Context, post *model.Post) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	post.ID = m.nextID
	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *mockPostRepo) GetPost(_ context.Context, id int64) (*model.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", fmt.Sprintf("%d", id))
	}
	result := *p
	return &result, nil
}

func (m *mockPostRepo) DeletePost(_ context.Context, id int64) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.posts[id]; !ok {
		return apperror.NotFound("post", fmt.Sprintf("%d", id))
	}
	delete(m.posts, id)
	return nil
}

func (m *mockPostRepo) AdoptOrphanPosts(_ context.Context, authorID int64) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var adopted int64
	for _, p := range m.posts {
		if p.AuthorID == nil {
			id := authorID
			p.AuthorID = &id
			adopted++
		}
	}
	return adopted, nil
}

type likeKey struct {
	userID, postID int64
}

type mockLikeRepo struct {
	likes map[likeKey]struct{}
	err   error
}

func newMockLikeRepo() *mockLikeRepo {
	return &mockLikeRepo{likes: make(map[likeKey]struct{})}
}

func (m *mockLikeRepo) Toggle(_ context.Context, userID, postID int64) (model.LikeState, error) {
	if m.err != nil {
		return "", m.err
	}
	key := likeKey{userID, postID}
	if _, ok := m.likes[key]; ok {
		delete(m.likes, key)
		return model.Unliked, nil
	}
	m.likes[key] = struct{}{}
	return model.Liked, nil
}

func (m *mockLikeRepo) CountFor(_ context.Context, postID int64) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var count int64
	for key := range m.likes {
		if key.postID == postID {
			count++
		}
	}
	return count, nil
}

func (m *mockLikeRepo) IsLikedBy(_ context.Context, userID, postID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.likes[likeKey{userID, postID}]
	return ok, nil
}

func (m *mockLikeRepo) LikedPostIDs(_ context.Context, userID int64) (map[int64]struct{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	liked := make(map[int64]struct{})
	for key := range m.likes {
		if key.userID == userID {
			liked[key.postID] = struct{}{}
		}
	}
	return liked, nil
}

type mockFeedRepo struct {
	entries []model.FeedEntry
	err     error
}

func (m *mockFeedRepo) ListAll(_ context.Context) ([]model.FeedEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := make([]model.FeedEntry, len(m.entries))
	copy(result, m.entries)
	return result, nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestAuthService wires an AuthService with in-memory everything:
// mock user repo, real session provider, bcrypt at minimum cost.
func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	users := newMockUserRepo()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	svc := NewAuthService(users, auth.NewSessions(tokens), auth.NewPasswordServiceForTest(4), testLogger())
	return svc, users
}
