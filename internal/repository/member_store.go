package repository

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/libralend/internal/domain"
)

// MemberStore implements domain.MemberRepository in process memory
type MemberStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Member
	byEmail map[string]*domain.Member
	logger  *slog.Logger
}

// NewMemberStore creates an empty member store
func NewMemberStore(logger *slog.Logger) *MemberStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemberStore{
		byID:    map[string]*domain.Member{},
		byEmail: map[string]*domain.Member{},
		logger:  logger,
	}
}

// Create registers a new member. Email addresses are unique.
func (s *MemberStore) Create(member *domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[member.Email]; exists {
		return fmt.Errorf("email %s already registered: %w", member.Email, domain.ErrConflict)
	}

	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now()
	}

	m := *member
	s.byID[m.ID] = &m
	s.byEmail[m.Email] = &m
	return nil
}

// GetByID returns a snapshot of a member record
func (s *MemberStore) GetByID(id string) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, exists := s.byID[id]
	if !exists {
		return nil, fmt.Errorf("member %s: %w", id, domain.ErrNotFound)
	}
	clone := *member
	return &clone, nil
}

// GetByEmail returns a snapshot of an active member by email
func (s *MemberStore) GetByEmail(email string) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, exists := s.byEmail[email]
	if !exists || !member.Active {
		return nil, fmt.Errorf("member %s: %w", email, domain.ErrNotFound)
	}
	clone := *member
	return &clone, nil
}

// Exists reports whether a member with the given ID is registered
func (s *MemberStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.byID[id]
	return exists
}
