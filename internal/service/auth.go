// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes to the database
//
// Handlers only know about HTTP. Services only know about business rules.
// Neither knows about SQL. Services receive repository INTERFACES, not the
// concrete sqlite type — so tests inject in-memory mocks and the sqlite
// package is never imported here.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

const (
	MaxUsernameLength = 32
	MinPasswordLength = 8
)

// dummyHash is a valid bcrypt hash of a random string nobody knows.
// When login can't find the user, we verify the supplied password against
// this instead of returning immediately — so "unknown username" and "wrong
// password" take roughly the same time as well as returning the same error.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// AuthService handles registration, login, logout, and identity resolution.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → read/write user records
//   - sessions   *auth.Sessions            → issue/resolve/revoke session tokens
//   - passwords  *auth.PasswordService     → bcrypt hashing and verification
//   - logger     *slog.Logger              → structured logging
type AuthService struct {
	users     repository.UserRepository
	sessions  *auth.Sessions
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	sessions *auth.Sessions,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles a user and an issued session token, so the HTTP handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account.
//
// The username-is-free check and the insert are NOT two steps here — the
// repository's UNIQUE constraint makes them one atomic step, and a duplicate
// (whether pre-existing or a lost race against a concurrent registration)
// comes back as apperror.UsernameTaken. Usernames match case-sensitively.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// UsernameTaken passes through untouched; anything else is a
		// storage failure and gets wrapped.
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies credentials and issues a session token.
//
// NO USERNAME ENUMERATION:
// An unknown username and a wrong password return the exact same
// apperror.InvalidCredentials. We even burn a bcrypt verification against a
// dummy hash when the user doesn't exist, so the two paths cost about the
// same time. The only thing a caller learns from a failed login is "no".
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.Verify(dummyHash, password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up user for login: %w", err)
	}

	if !s.passwords.Verify(user.PasswordHash, password) {
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing session for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// Logout invalidates a session token. Idempotent: logging out twice or with
// a token that was never valid is a quiet no-op. Other sessions — even the
// same user's — are unaffected.
func (s *AuthService) Logout(token string) {
	s.sessions.Logout(token)
}

// Resolve maps a session token to a user ID; (0, false) means anonymous.
// Thin delegation so callers only need the service, not the auth package.
func (s *AuthService) Resolve(token string) (int64, bool) {
	return s.sessions.Resolve(token)
}

// GetUserByID returns the user for the given ID. Used by the /api/me handler
// after the middleware has resolved the session.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetUserByID(ctx, id)
}

// LoginOrRegisterGitHub completes the GitHub OAuth callback: find the local
// account linked to this GitHub ID, or create one on first login, then issue
// a session token.
//
// USERNAME COLLISIONS:
// The GitHub login becomes the local username, but someone may already hold
// that name. First login for a GitHub user tries "login", then "login-2",
// "login-3", ... — each attempt is an atomic CreateUser, so even concurrent
// first logins can't double-claim a name. OAuth accounts get an empty
// password hash, which can never verify: there is no password door into them.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user, err := s.users.GetUserByGitHubID(ctx, ghUser.ID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/auth: looking up GitHub user %d: %w", ghUser.ID, err)
		}
		user, err = s.createGitHubUser(ctx, ghUser)
		if err != nil {
			return nil, err
		}
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing session for user %d: %w", user.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// createGitHubUser registers a first-time OAuth user, de-duplicating the
// username with a numeric suffix if needed.
func (s *AuthService) createGitHubUser(ctx context.Context, ghUser *auth.GitHubUser) (*model.User, error) {
	const maxAttempts = 10

	base := strings.TrimSpace(ghUser.Login)
	if base == "" {
		return nil, apperror.ValidationFailed("username", "GitHub account has no login name")
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		username := base
		if attempt > 1 {
			username = fmt.Sprintf("%s-%d", base, attempt)
		}

		user := &model.User{
			Username: username,
			GitHubID: ghUser.ID,
		}
		err := s.users.CreateUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if errors.Is(err, apperror.ErrConflict) {
			continue // name taken, try the next suffix
		}
		return nil, fmt.Errorf("service/auth: creating GitHub user %q: %w", username, err)
	}

	return nil, fmt.Errorf("service/auth: could not find a free username for %q after %d attempts", base, maxAttempts)
}
