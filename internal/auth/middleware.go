package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "userID", id), ANY package that knows the string "userID"
// can read or shadow your value. Using a package-private type prevents collisions:
// only THIS package can create a key of type contextKey, so only this package
// can read or write userID values in the context.
type contextKey string

const userIDKey contextKey = "userID"

// SessionCookie is the name of the HttpOnly cookie carrying the session token.
const SessionCookie = "session"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the session token from the HttpOnly cookie, resolves it to a user
// ID, and stores the ID in the request context. If the token is missing,
// invalid, or revoked, it returns 401 Unauthorized and stops the request
// chain — the handler behind it never runs. This is how anonymous callers
// are rejected before ever reaching post creation or like toggling.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler. The new handler "wraps" the original:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	        // ... do stuff after the handler ...
//	    })
//	}
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
//
// COOKIE-BASED TOKEN STORAGE:
// We store the token in an HttpOnly cookie rather than localStorage or a
// header. HttpOnly means JavaScript cannot read it, which prevents
// XSS (Cross-Site Scripting) attacks from stealing the token.
func RequireAuth(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := resolveRequest(r, sessions)
			if !ok {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			// Store userID in context so handlers can read it
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth is a middleware that resolves the user identity if a valid
// token is present, but does NOT block the request if it's missing or invalid.
//
// Use this on public routes like GET /api/feed where:
// - Anonymous users can still read
// - But logged-in viewers get per-viewer data (viewerHasLiked on each entry)
//
// Handlers check for the user via UserIDFromContext — if it returns (0, false),
// the request is anonymous.
func OptionalAuth(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := resolveRequest(r, sessions); ok {
				ctx := context.WithValue(r.Context(), userIDKey, userID)
				r = r.WithContext(ctx)
			}
			// Always continue — no 401 even if no token
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request context.
//
// Returns (0, false) if the request is anonymous (no valid token was present).
// Returns (id, true) if the user is authenticated.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // anonymous user
//	}
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// resolveRequest reads the session cookie and resolves it to a user ID.
// This is a private helper shared by RequireAuth and OptionalAuth.
//
// COOKIE FLOW:
// 1. Set-Cookie: session=<token>; HttpOnly; SameSite=Lax (set on login)
// 2. Browser automatically sends Cookie: session=<token> on subsequent requests
// 3. We read r.Cookie(SessionCookie) and resolve it
func resolveRequest(r *http.Request, sessions *Sessions) (int64, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie means the cookie isn't present — not an error, just anonymous
		return 0, false
	}

	return sessions.Resolve(cookie.Value)
}
