package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/libralend/internal/domain"
	"github.com/yourorg/libralend/internal/security/auth"
)

// AuthService handles member registration and session lifecycle. Tokens
// are opaque; everything they mean lives in the session store.
type AuthService struct {
	members domain.MemberRepository
	tokens  *auth.TokenManager
	logger  *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(members domain.MemberRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{members: members, tokens: tokens, logger: logger}
}

// AuthResult is the response for register, login and refresh
type AuthResult struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	auth.TokenPair
}

// Register creates a new member account and opens a session
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*AuthResult, error) {
	if email == "" || name == "" || password == "" {
		return nil, fmt.Errorf("email, name and password are required: %w", domain.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters: %w", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register member")
	}

	member := &domain.Member{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         domain.RoleMember,
		Active:       true,
	}
	if err := s.members.Create(member); err != nil {
		return nil, err
	}

	pair, err := s.tokens.Issue(ctx, member.ID, member.Email, string(member.Role))
	if err != nil {
		return nil, err
	}

	s.logger.Info("member registered",
		slog.String("user_id", member.ID),
		slog.String("email", member.Email),
	)
	return &AuthResult{
		UserID:    member.ID,
		Email:     member.Email,
		Name:      member.Name,
		Role:      string(member.Role),
		TokenPair: *pair,
	}, nil
}

// Login authenticates a member and opens a session. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", domain.ErrValidation)
	}

	member, err := s.members.GetByEmail(email)
	if err != nil {
		s.logger.Info("login attempt with unknown email", slog.String("email", email))
		return nil, fmt.Errorf("invalid credentials: %w", auth.ErrInvalidSession)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		return nil, fmt.Errorf("invalid credentials: %w", auth.ErrInvalidSession)
	}

	pair, err := s.tokens.Issue(ctx, member.ID, member.Email, string(member.Role))
	if err != nil {
		return nil, err
	}

	s.logger.Info("member logged in",
		slog.String("user_id", member.ID),
		slog.String("email", member.Email),
	)
	return &AuthResult{
		UserID:    member.ID,
		Email:     member.Email,
		Name:      member.Name,
		Role:      string(member.Role),
		TokenPair: *pair,
	}, nil
}

// Refresh rotates a refresh token into a fresh session
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refreshToken is required: %w", domain.ErrValidation)
	}

	pair, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.tokens.Validate(ctx, pair.AccessToken)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		UserID:    session.UserID,
		Email:     session.Email,
		Role:      session.Role,
		TokenPair: *pair,
	}, nil
}

// Logout revokes the given tokens. Logout of an already-dead session is
// not an error.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) {
	s.tokens.Revoke(ctx, accessToken, refreshToken)
}
