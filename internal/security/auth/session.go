package auth

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidSession is returned for unknown, expired or revoked tokens
var ErrInvalidSession = errors.New("invalid session")

// TokenKind distinguishes the two opaque token types
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Session is the principal bound to an opaque token
type Session struct {
	UserID string    `json:"userId"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	Kind   TokenKind `json:"kind"`
}

// SessionStore persists sessions keyed by opaque token. The default
// backend is in-memory; a Redis backend can be swapped in for deployments
// that want sessions to survive a restart. Domain state never lives here.
type SessionStore interface {
	Put(ctx context.Context, token string, session *Session, ttl time.Duration) error
	// Get returns ErrInvalidSession (possibly wrapped) for missing or
	// expired tokens.
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	Ping(ctx context.Context) error
}
