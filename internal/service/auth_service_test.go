package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/libralend/internal/domain"
	"github.com/yourorg/libralend/internal/repository"
	"github.com/yourorg/libralend/internal/security/auth"
)

func newAuthService(t *testing.T) (*AuthService, *auth.TokenManager) {
	t.Helper()
	members := repository.NewMemberStore(nil)
	tokens := auth.NewTokenManager(auth.NewMemoryStore(), 15*time.Minute, time.Hour)
	return NewAuthService(members, tokens, nil), tokens
}

func TestRegisterIssuesSession(t *testing.T) {
	svc, tokens := newAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, "new@example.com", "New Member", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.UserID == "" || result.Role != string(domain.RoleMember) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.AccessToken == "" || result.RefreshToken == "" || result.AccessToken == result.RefreshToken {
		t.Fatalf("bad token pair: %+v", result.TokenPair)
	}

	session, err := tokens.Validate(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if session.UserID != result.UserID || session.Email != "new@example.com" {
		t.Fatalf("session mismatch: %+v", session)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	cases := []struct {
		name                  string
		email, member, secret string
	}{
		{"missing email", "", "Name", "password123"},
		{"missing name", "a@b.com", "", "password123"},
		{"missing password", "a@b.com", "Name", ""},
		{"short password", "a@b.com", "Name", "short"},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.email, tc.member, tc.secret); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dup@example.com", "First", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "dup@example.com", "Second", "password123"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	svc.Register(ctx, "member@example.com", "Member", "password123")

	result, err := svc.Login(ctx, "member@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("login returned no access token")
	}

	// Wrong password and unknown email fail the same way
	if _, err := svc.Login(ctx, "member@example.com", "wrong-password"); !errors.Is(err, auth.ErrInvalidSession) {
		t.Fatalf("wrong password: expected invalid session, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, auth.ErrInvalidSession) {
		t.Fatalf("unknown email: expected invalid session, got %v", err)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, tokens := newAuthService(t)
	ctx := context.Background()
	registered, _ := svc.Register(ctx, "member@example.com", "Member", "password123")

	refreshed, err := svc.Refresh(ctx, registered.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.UserID != registered.UserID {
		t.Fatalf("refresh changed principal: %s vs %s", refreshed.UserID, registered.UserID)
	}
	if refreshed.RefreshToken == registered.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The consumed refresh token is dead
	if _, err := svc.Refresh(ctx, registered.RefreshToken); !errors.Is(err, auth.ErrInvalidSession) {
		t.Fatalf("expected invalid session on reuse, got %v", err)
	}

	// An access token cannot be used as a refresh token
	if _, err := svc.Refresh(ctx, refreshed.AccessToken); !errors.Is(err, auth.ErrInvalidSession) {
		t.Fatalf("expected invalid session for access token, got %v", err)
	}

	if _, err := tokens.Validate(ctx, refreshed.AccessToken); err != nil {
		t.Fatalf("new access token invalid: %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, tokens := newAuthService(t)
	ctx := context.Background()
	result, _ := svc.Register(ctx, "member@example.com", "Member", "password123")

	svc.Logout(ctx, result.AccessToken, result.RefreshToken)

	if _, err := tokens.Validate(ctx, result.AccessToken); !errors.Is(err, auth.ErrInvalidSession) {
		t.Fatalf("access token survived logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, result.RefreshToken); !errors.Is(err, auth.ErrInvalidSession) {
		t.Fatalf("refresh token survived logout: %v", err)
	}

	// Logging out again is a no-op
	svc.Logout(ctx, result.AccessToken, result.RefreshToken)
}
