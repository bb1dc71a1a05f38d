package auth

import (
	"context"
	"errors"
	"time"

	"statues/internal/model"
)

// ErrSessionNotFound is returned by stores when no live record exists for an ID.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side record behind a session cookie. Role is copied
// from the user row at login and is not re-read afterwards.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the session carries the admin role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == model.RoleAdmin
}

// SessionStore persists session records keyed by session ID.
type SessionStore interface {
	Save(ctx context.Context, session *Session, ttl time.Duration) error
	// Get returns ErrSessionNotFound when the ID is unknown or expired.
	Get(ctx context.Context, id string) (*Session, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
}
