package auth

// Sessions is the identity provider: it issues session tokens, resolves an
// opaque token back to a user ID on every request, and handles logout.
//
// It composes the two halves of the session mechanism:
//   - TokenService   → cryptographic validity (signature, expiry, issuer)
//   - RevocationList → "has this token been logged out?"
//
// The state machine per request is:
//
//	Anonymous → (login success) → Authenticated(userID) → (logout) → Anonymous
//
// Resolve is the only operation on the hot path — it runs on every request
// that cares about identity and never touches the database.
type Sessions struct {
	tokens  *TokenService
	revoked *RevocationList
}

// NewSessions creates a Sessions provider around a TokenService.
func NewSessions(tokens *TokenService) *Sessions {
	return &Sessions{
		tokens:  tokens,
		revoked: NewRevocationList(),
	}
}

// Issue creates a new session token for the given user.
// Called after the caller has already verified credentials.
func (s *Sessions) Issue(userID int64) (string, error) {
	return s.tokens.Generate(userID)
}

// Resolve maps a session token to a user ID.
//
// Returns (0, false) for a missing, malformed, expired, forged, or revoked
// token — an anonymous request, never an error. Handlers and middleware
// treat all those cases identically, which is exactly what we want: there's
// nothing a caller could usefully do differently.
func (s *Sessions) Resolve(tokenStr string) (int64, bool) {
	if tokenStr == "" {
		return 0, false
	}

	session, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return 0, false
	}
	if s.revoked.IsRevoked(session.TokenID) {
		return 0, false
	}

	return session.UserID, true
}

// Logout invalidates a session token.
//
// Idempotent by construction: logging out twice, or logging out a token that
// was never valid in the first place, is a no-op. An invalid token has no ID
// to revoke; a valid one gets its ID blacklisted until it would have expired
// anyway.
func (s *Sessions) Logout(tokenStr string) {
	if tokenStr == "" {
		return
	}

	session, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return
	}

	s.revoked.Revoke(session.TokenID, session.ExpiresAt)
}
