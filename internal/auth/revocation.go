package auth

import (
	"sync"
	"time"
)

// RevocationList remembers which session tokens have been logged out before
// their natural expiry.
//
// WHY IS THIS NEEDED AT ALL?
// A signed JWT is valid until it expires — the signature check alone can't
// know about logout. So logout records the token's unique ID ("jti" claim)
// here, and Resolve refuses any token whose ID is on the list.
//
// WHY IN-MEMORY?
// Sessions in this app live until logout or process restart; losing the list
// on restart just means logged-out-then-restarted tokens would come back,
// and a restart also invalidates nothing else — an acceptable trade for a
// single-binary deployment. Entries carry the token's own expiry so the list
// stays bounded: once the token would have died anyway, the entry is pruned.
//
// All methods are safe for concurrent use. Revoking one token never affects
// any other token.
type RevocationList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // tokenID → when the token expires on its own
}

// NewRevocationList creates an empty RevocationList.
func NewRevocationList() *RevocationList {
	return &RevocationList{
		revoked: make(map[string]time.Time),
	}
}

// Revoke marks a token ID as logged out until the token's own expiry.
//
// Revoke is idempotent: revoking an already-revoked or unknown ID is a no-op,
// not a failure. A token that is already past its expiry isn't recorded at
// all — time has done the job for us.
func (l *RevocationList) Revoke(tokenID string, expiresAt time.Time) {
	if tokenID == "" || time.Now().After(expiresAt) {
		return
	}

	l.mu.Lock()
	l.revoked[tokenID] = expiresAt
	l.mu.Unlock()
}

// IsRevoked reports whether a token ID has been logged out.
//
// Expired entries are pruned lazily here rather than by a background
// goroutine — the next lookup of a dead entry deletes it.
func (l *RevocationList) IsRevoked(tokenID string) bool {
	l.mu.RLock()
	expiresAt, ok := l.revoked[tokenID]
	l.mu.RUnlock()

	if !ok {
		return false
	}

	if time.Now().After(expiresAt) {
		l.mu.Lock()
		delete(l.revoked, tokenID)
		l.mu.Unlock()
		return false
	}

	return true
}
