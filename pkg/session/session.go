// Package session provides server-side sessions for chart viewers.
//
// Every browser gets a session on first contact. A session carries the
// viewer's top-user override and, after a successful login, the admin flag
// that unlocks settings changes. Implementations:
//   - memory: in-process storage for tests and single-run tools
//   - file: JSON files in a directory, for a single server
//   - redis: shared storage for several server instances
//
// # Usage
//
//	store, err := session.NewFileStore("")  // <user config dir>/orgchart/sessions
//
//	sess, err := session.New(session.DefaultTTL)
//	sess.SetTopUser("ceo@example.com")
//	err = store.Set(ctx, sess)
//
//	sess, err = store.Get(ctx, id)
//	if sess == nil {
//	    // unknown or expired
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("expired")
)

// Session is the server-side state of one viewer.
type Session struct {
	ID string `json:"id"`

	// Admin is set by a successful login.
	Admin    bool   `json:"admin"`
	Username string `json:"username,omitempty"`

	// TopUserEmail overrides the configured top user for this viewer.
	// nil means no override; an empty string asks for auto-detection.
	TopUserEmail *string `json:"topUserEmail,omitempty"`

	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Authenticated reports whether s belongs to a logged-in admin.
func (s *Session) Authenticated() bool {
	return s != nil && s.Admin && !s.IsExpired()
}

// SetTopUser stores the viewer's top-user override.
func (s *Session) SetTopUser(email string) {
	s.TopUserEmail = &email
}

// TopUser returns the override and whether one is set.
func (s *Session) TopUser() (string, bool) {
	if s == nil || s.TopUserEmail == nil {
		return "", false
	}
	return *s.TopUserEmail, true
}

// Login marks s as an admin session and extends it by ttl.
func (s *Session) Login(username string, ttl time.Duration) {
	s.Admin = true
	s.Username = username
	s.ExpiresAt = time.Now().Add(ttl)
}

// Logout clears the admin flag. The top-user override is kept.
func (s *Session) Logout() {
	s.Admin = false
	s.Username = ""
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions (optional, may be no-op for Redis).
	Cleanup(ctx context.Context) error

	Close() error
}

// Default durations.
const (
	// DefaultTTL is the default session duration.
	DefaultTTL = 24 * time.Hour

	// AdminTTL is the lifetime of a session after login.
	AdminTTL = 8 * time.Hour
)

// GenerateID creates a random session ID.
func GenerateID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an ID from [GenerateID]. Stores use
// it to reject ids that could escape their namespace.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// New creates an anonymous session.
func New(ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        GenerateID(),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}
