package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIssueAndValidate(t *testing.T) {
	tm := NewTokenManager(NewMemoryStore(), time.Minute, time.Hour)
	ctx := context.Background()

	pair, err := tm.Issue(ctx, "u1", "one@example.com", "MEMBER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.TokenType != "Bearer" || pair.ExpiresIn != 60 {
		t.Fatalf("unexpected pair metadata: %+v", pair)
	}
	if len(pair.AccessToken) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(pair.AccessToken))
	}

	session, err := tm.Validate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if session.UserID != "u1" || session.Role != "MEMBER" {
		t.Fatalf("session mismatch: %+v", session)
	}

	// Refresh tokens do not validate as access tokens
	if _, err := tm.Validate(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected invalid session, got %v", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	tm := NewTokenManager(NewMemoryStore(), 10*time.Millisecond, time.Hour)
	ctx := context.Background()

	pair, _ := tm.Issue(ctx, "u1", "one@example.com", "MEMBER")
	time.Sleep(25 * time.Millisecond)

	if _, err := tm.Validate(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected invalid session after expiry, got %v", err)
	}
}

func TestRevokeUnknownTokenIsNoop(t *testing.T) {
	tm := NewTokenManager(NewMemoryStore(), time.Minute, time.Hour)
	tm.Revoke(context.Background(), "", "never-issued")
}

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc123")
	if err != nil || token != "abc123" {
		t.Fatalf("expected abc123, got %q err=%v", token, err)
	}

	for _, header := range []string{"", "abc123", "Basic abc123", "Bearer a b"} {
		if _, err := ExtractToken(header); err == nil {
			t.Fatalf("header %q: expected error", header)
		}
	}
}
