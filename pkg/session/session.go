// Package session issues and resolves server-side login sessions.
//
// Sessions live for Timeout after their last authenticated use and each user may hold at
// most MaxPerUser of them; creating one more evicts the oldest. Expiry is checked lazily
// on access. A missing session and an expired one are reported identically.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

const (
	// Timeout is the idle lifetime of a session.
	Timeout = 30 * time.Minute
	// MaxPerUser caps concurrently active sessions per user.
	MaxPerUser = 5
	// TokenBytes is the entropy of a session id before hex encoding.
	TokenBytes = 32
)

// ErrNotFound is returned by a Store when no session has the requested id.
var ErrNotFound = errors.New("session not found")

// Session is an authenticated identity with a bounded lifetime.
type Session struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store persists sessions. Implementations serialise individual calls but do not
// coordinate read-modify-write sequences: two callers refreshing or evicting the same
// session concurrently race, and the last write wins.
type Store interface {
	// Get returns ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (Session, error)
	// Put inserts or replaces a session.
	Put(ctx context.Context, s Session) error
	// Delete reports whether a session was removed.
	Delete(ctx context.Context, id string) (bool, error)
	// ListByUser returns every stored session of a user, expired or not.
	ListByUser(ctx context.Context, userID string) ([]Session, error)
	// Scan calls fn for each stored session until fn returns false.
	Scan(ctx context.Context, fn func(Session) bool) error
}

// HashID returns a short digest of a session id, safe to log.
func HashID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])[:16]
}
