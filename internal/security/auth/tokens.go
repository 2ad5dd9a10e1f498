package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// TokenPair is what login, register and refresh hand back to the client
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"` // access token lifetime, seconds
}

// TokenManager issues and validates opaque session tokens. Tokens carry no
// structure; everything lives in the session store, so revocation is just
// deletion.
type TokenManager struct {
	store      SessionStore
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a token manager over the given session store
func NewTokenManager(store SessionStore, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	return &TokenManager{store: store, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Issue creates a fresh access + refresh token pair for a principal
func (tm *TokenManager) Issue(ctx context.Context, userID, email, role string) (*TokenPair, error) {
	access := newToken()
	refresh := newToken()

	if err := tm.store.Put(ctx, access, &Session{UserID: userID, Email: email, Role: role, Kind: KindAccess}, tm.accessTTL); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := tm.store.Put(ctx, refresh, &Session{UserID: userID, Email: email, Role: role, Kind: KindRefresh}, tm.refreshTTL); err != nil {
		_ = tm.store.Delete(ctx, access)
		return nil, fmt.Errorf("failed to create refresh session: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(tm.accessTTL.Seconds()),
	}, nil
}

// Validate resolves an access token to its session
func (tm *TokenManager) Validate(ctx context.Context, accessToken string) (*Session, error) {
	session, err := tm.store.Get(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if session.Kind != KindAccess {
		return nil, ErrInvalidSession
	}
	return session, nil
}

// Refresh rotates a refresh token into a new token pair. The old refresh
// token is revoked whether or not issuing the new pair succeeds.
func (tm *TokenManager) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	session, err := tm.store.Get(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session.Kind != KindRefresh {
		return nil, ErrInvalidSession
	}
	if err := tm.store.Delete(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return tm.Issue(ctx, session.UserID, session.Email, session.Role)
}

// Revoke drops the given tokens; unknown tokens are ignored
func (tm *TokenManager) Revoke(ctx context.Context, tokens ...string) {
	for _, token := range tokens {
		if token == "" {
			continue
		}
		_ = tm.store.Delete(ctx, token)
	}
}

// ExtractToken pulls a bearer token out of an Authorization header
func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}

func newToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
