package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"statues/internal/model"
)

// SessionManager issues, resolves and destroys login sessions.
//
// A session moves from anonymous to authenticated on Create and back on
// Destroy or when its TTL runs out. There are no other states.
type SessionManager struct {
	store  SessionStore
	signer *TokenSigner
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionManager creates a session manager.
func NewSessionManager(store SessionStore, signer *TokenSigner, ttl time.Duration) *SessionManager {
	return &SessionManager{
		store:  store,
		signer: signer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is the lifetime of new sessions.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Signer exposes the token signer for cookie verification middleware.
func (m *SessionManager) Signer() *TokenSigner {
	return m.signer
}

// Create binds the user's id, username and current role to a new session and
// returns the signed cookie value.
func (m *SessionManager) Create(ctx context.Context, user *model.User) (string, *Session, error) {
	now := m.now()
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: now,
	}

	if err := m.store.Save(ctx, session, m.ttl); err != nil {
		return "", nil, err
	}

	token, err := m.signer.Sign(session, now.Add(m.ttl))
	if err != nil {
		_ = m.store.Delete(ctx, session.ID)
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return token, session, nil
}

// Resolve returns the session behind a cookie value, or nil for an anonymous
// caller (no token, bad signature, expired, or destroyed). Only store outages
// produce an error.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := m.signer.Parse(token)
	if err != nil {
		return nil, nil
	}
	return m.ResolveClaims(ctx, claims)
}

// ResolveClaims looks up the record for claims that were already verified.
func (m *SessionManager) ResolveClaims(ctx context.Context, claims *Claims) (*Session, error) {
	if claims == nil || claims.ID == "" {
		return nil, nil
	}
	session, err := m.store.Get(ctx, claims.ID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, nil
	}
	return session, nil
}

// Destroy invalidates the session behind a cookie value. Unknown, expired or
// malformed tokens are a no-op.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := m.signer.ParseIgnoringExpiry(token)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, claims.ID)
}
