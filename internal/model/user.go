// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// WHY int64 IDs?
// The users table uses INTEGER PRIMARY KEY AUTOINCREMENT, so the database
// hands out the IDs. int64 matches SQLite's native integer width and the
// value LastInsertId() returns.
//
// WHY IS PasswordHash NEVER SERIALIZED?
// The `json:"-"` tag tells encoding/json to skip the field entirely.
// Even if a handler accidentally encodes a whole User, the hash can never
// leak into a response body.
//
// WHY GitHubID int64?
// Accounts created through the GitHub OAuth flow carry GitHub's numeric user
// ID so a returning OAuth user maps back to the same local account. Accounts
// created with username/password leave it at 0. The UNIQUE index on github_id
// only applies to non-zero values (partial index — see the migration).
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     int64     `json:"-"         db:"github_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
