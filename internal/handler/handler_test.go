package handler_test

// Shared test harness for the handler package.
//
// These tests run against the real stack below the handlers: real services,
// real session tokens, and an in-memory SQLite database. Only the outermost
// HTTP layer is simulated (httptest). This catches wiring mistakes that
// mock-based tests can't — wrong middleware on a route, cookies not set,
// status codes mapped wrong.

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/handler"
	sqliteRepo "github.com/sakif/microblog/internal/repository/sqlite"
	"github.com/sakif/microblog/internal/service"
)

// testAPI bundles the router with request helpers.
type testAPI struct {
	t      *testing.T
	router http.Handler
}

// newTestAPI builds the full handler stack over an in-memory database,
// mounted on the same route layout the server uses.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqliteRepo.New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789")
	if err != nil {
		t.Fatalf("creating token service: %v", err)
	}
	sessions := auth.NewSessions(tokens)
	// Minimum bcrypt cost: these tests hash passwords on every register call.
	passwords := auth.NewPasswordServiceForTest(4)

	authService := service.NewAuthService(db, sessions, passwords, logger)
	postService := service.NewPostService(db, logger)
	likeService := service.NewLikeService(db, db, logger)
	feedService := service.NewFeedService(db, db, logger)

	authHandler := handler.NewAuthHandler(authService, nil, logger)
	postHandler := handler.NewPostHandler(postService, likeService, logger)
	feedHandler := handler.NewFeedHandler(feedService, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(sessions))
			r.Get("/feed", feedHandler.HandleFeed)
			r.Get("/posts/{id}", postHandler.HandleGetByID)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(sessions))
			r.Get("/me", authHandler.HandleMe)
			r.Post("/posts", postHandler.HandleCreate)
			r.Delete("/posts/{id}", postHandler.HandleDelete)
			r.Post("/posts/{id}/like", postHandler.HandleToggleLike)
		})
	})

	return &testAPI{t: t, router: r}
}

// do sends a request through the router and returns the recorder.
func (a *testAPI) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// signup registers a user and logs them in, returning the session cookie.
func (a *testAPI) signup(username, password string) *http.Cookie {
	a.t.Helper()

	rr := a.do(http.MethodPost, "/api/register",
		fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	if rr.Code != http.StatusCreated {
		a.t.Fatalf("register %s: got status %d, body %s", username, rr.Code, rr.Body.String())
	}

	return a.login(username, password)
}

// login logs an existing user in and returns the session cookie.
func (a *testAPI) login(username, password string) *http.Cookie {
	a.t.Helper()

	rr := a.do(http.MethodPost, "/api/login",
		fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	if rr.Code != http.StatusOK {
		a.t.Fatalf("login %s: got status %d, body %s", username, rr.Code, rr.Body.String())
	}

	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	a.t.Fatalf("login %s: no session cookie in response", username)
	return nil
}

// createPost creates a post as the given session and returns its ID.
func (a *testAPI) createPost(cookie *http.Cookie, title, content string) int64 {
	a.t.Helper()

	rr := a.do(http.MethodPost, "/api/posts",
		fmt.Sprintf(`{"title":%q,"content":%q}`, title, content), cookie)
	if rr.Code != http.StatusCreated {
		a.t.Fatalf("create post: got status %d, body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		a.t.Fatalf("decoding create post response: %v", err)
	}
	return resp.ID
}
