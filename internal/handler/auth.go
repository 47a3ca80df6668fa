package handler

// AUTH HANDLER:
// HTTP endpoints for account lifecycle: register, login, logout, "who am I",
// and the GitHub OAuth flow.
//
// SESSION TRANSPORT:
// The session token travels in an HttpOnly cookie, not a JSON body or an
// Authorization header. HttpOnly means JavaScript cannot read it, which
// takes XSS token theft off the table. The browser attaches it to every
// request automatically, so the frontend never touches the token at all.

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/service"
)

// stateCookie carries the OAuth CSRF state between the redirect to GitHub
// and the callback. Short-lived: the whole round trip takes seconds.
const stateCookie = "oauth_state"

// AuthHandler handles authentication HTTP requests.
type AuthHandler struct {
	authService *service.AuthService
	github      *auth.GitHubProvider // nil when GitHub login is not configured
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler. github may be nil, in which
// case the OAuth endpoints respond 404.
func NewAuthHandler(authService *service.AuthService, github *auth.GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		github:      github,
		logger:      logger,
	}
}

// registerRequest is the expected JSON body for POST /api/register.
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginRequest is the expected JSON body for POST /api/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userResponse is what we return for a user. It deliberately excludes the
// password hash (the model tags it json:"-" as a second line of defence).
type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

// HandleRegister handles POST /api/register.
//
// Creating an account does NOT log the user in — the frontend follows up
// with a login call. Keeping the two separate keeps each endpoint doing
// one thing.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON in request body"))
		return
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// HandleLogin handles POST /api/login.
//
// On success it sets the session cookie and returns the user. The token
// itself is not in the response body — the cookie is the only copy.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON in request body"))
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, toUserResponse(result.User))
}

// HandleLogout handles POST /api/logout.
//
// IDEMPOTENT: logging out twice, or without ever logging in, still returns
// 204. There is no failure mode the client could meaningfully act on.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		h.authService.Logout(cookie.Value)
	}

	// Clear the cookie regardless. MaxAge: -1 tells the browser to delete it.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /api/me. Requires authentication.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// RequireAuth should make this unreachable, but belt and braces.
		writeError(w, apperror.InvalidCredentials())
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleGitHubLogin handles GET /auth/github/login.
//
// CSRF PROTECTION:
// We generate a random state, stash it in a cookie, and send the same
// value to GitHub. The callback compares the two — a forged callback
// request won't have the matching cookie.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.NotFound(w, r)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/github",
		MaxAge:   300, // 5 minutes is plenty for one OAuth round trip
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback handles GET /auth/github/callback.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.NotFound(w, r)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeError(w, apperror.ValidationFailed("state", "OAuth state mismatch"))
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/auth/github",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("GitHub code exchange failed", slog.String("error", err.Error()))
		writeError(w, apperror.InvalidCredentials())
		return
	}

	result, err := h.authService.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
