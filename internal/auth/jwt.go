// Package auth provides the session/identity layer: JWT session tokens,
// server-side revocation, bcrypt password hashing, and the HTTP middleware
// that resolves a request to a user identity.
//
// SESSION FLOW OVERVIEW:
// 1. User registers or logs in with username/password (or via GitHub OAuth)
// 2. Server verifies credentials and issues a JWT session token,
//    stored in an HttpOnly cookie
// 3. On subsequent requests, middleware reads the cookie, validates the JWT,
//    checks it hasn't been revoked, and sets the userID in the request context
// 4. Logout revokes the token's ID server-side and clears the cookie
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store session
// data. All the information needed (userID, expiry) is inside the signed token.
// The signature ensures nobody can tamper with it without the secret key.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"42","jti":"...","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The one thing pure JWTs can't do is logout: a signed token stays valid
// until it expires. That's what the revocation list (revocation.go) is for —
// each token carries a unique ID ("jti" claim) that logout can blacklist.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// SessionLifetime is how long an issued session token stays valid.
//
// The session contract only promises "live until logout"; token expiry is an
// implementation decision. 24 hours keeps the revocation list small (revoked
// IDs can be dropped once their token would have expired anyway) without
// forcing users to log in several times a day. Exported so the session
// cookie's MaxAge can match the token's expiry.
const SessionLifetime = 24 * time.Hour

const issuer = "microblog"

// Session is the identity a validated token resolves to.
type Session struct {
	UserID    int64     // who the token belongs to
	TokenID   string    // the "jti" claim — what logout revokes
	ExpiresAt time.Time // when the token dies on its own
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations — keep it safe, rotate it
// periodically in production.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims which includes
// standard fields like Issuer, Subject, ExpiresAt, IssuedAt, ID.
//
// We use "sub" (Subject) for the user ID and "jti" (ID) for the token's own
// unique identity. The jti is an xid — sortable, URL-safe, and unguessable
// enough for a revocation key (the signature is what makes tokens forgery-proof).
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a new session token for the given userID.
//
// Signing algorithm: HS256 (HMAC-SHA256)
// - Symmetric: same key for signing and verifying
// - Fast and simple — good for single-server deployments
func (s *TokenService) Generate(userID int64) (string, error) {
	return s.GenerateWithDuration(userID, SessionLifetime)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to produce already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID int64, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        xid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	// jwt.NewWithClaims creates an unsigned token with the given algorithm.
	// SignedString(key) signs it and returns the complete JWT string.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the Session it encodes.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// ALGORITHM CONFUSION ATTACK:
// Without checking the algorithm, an attacker could send a token signed with
// "none" and the library might accept it. Passing jwt.WithValidMethods prevents this.
//
// Validate does NOT consult the revocation list — that's the caller's job
// (see Sessions.Resolve). Keeping the two concerns apart makes each testable
// on its own.
func (s *TokenService) Validate(tokenStr string) (*Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject tokens that aren't signed with HS256
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Translate jwt library errors into cleaner messages
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("auth: token has no usable subject")
	}
	if c.ID == "" {
		return nil, fmt.Errorf("auth: token has no ID")
	}

	return &Session{
		UserID:    userID,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
