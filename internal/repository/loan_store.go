package repository

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/libralend/internal/domain"
)

// LoanStore implements domain.LoanRepository in process memory. It owns the
// loan records; copy status lives in the catalog and is mutated by the
// lending service, never here.
type LoanStore struct {
	mu      sync.RWMutex
	loans   map[string]*domain.Loan
	order   []string
	byUser  map[string][]string
	minDays int
	maxDays int
	logger  *slog.Logger
}

// NewLoanStore creates an empty loan store with the given loan-period
// bounds in days.
func NewLoanStore(minDays, maxDays int, logger *slog.Logger) *LoanStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoanStore{
		loans:   map[string]*domain.Loan{},
		byUser:  map[string][]string{},
		minDays: minDays,
		maxDays: maxDays,
		logger:  logger,
	}
}

// ValidateDays checks a loan period against the configured bounds
func (s *LoanStore) ValidateDays(days int) error {
	if days < s.minDays || days > s.maxDays {
		return fmt.Errorf("days must be between %d and %d: %w", s.minDays, s.maxDays, domain.ErrValidation)
	}
	return nil
}

// Issue creates an ACTIVE loan due in the given number of days. The days
// bound check happens before any state is touched, so a rejected request
// mutates nothing.
func (s *LoanStore) Issue(userID, copyID, bookID string, days int, now time.Time) (*domain.Loan, error) {
	if err := s.ValidateDays(days); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loan := &domain.Loan{
		ID:       uuid.NewString(),
		UserID:   userID,
		CopyID:   copyID,
		BookID:   bookID,
		IssuedAt: now,
		DueDate:  now.AddDate(0, 0, days),
		Status:   domain.LoanActive,
	}
	s.loans[loan.ID] = loan
	s.order = append(s.order, loan.ID)
	s.byUser[userID] = append(s.byUser[userID], loan.ID)

	s.logger.Debug("loan issued",
		slog.String("loan_id", loan.ID),
		slog.String("user_id", userID),
		slog.String("copy_id", copyID),
	)

	clone := *loan
	return &clone, nil
}

// Return marks a loan RETURNED. A second return of the same loan is a
// conflict and leaves the record untouched.
func (s *LoanStore) Return(loanID string, now time.Time) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, exists := s.loans[loanID]
	if !exists {
		return nil, fmt.Errorf("loan %s: %w", loanID, domain.ErrNotFound)
	}
	if loan.Status == domain.LoanReturned {
		return nil, fmt.Errorf("loan %s already returned: %w", loanID, domain.ErrConflict)
	}

	returnedAt := now
	loan.Status = domain.LoanReturned
	loan.ReturnedAt = &returnedAt

	clone := *loan
	return &clone, nil
}

// GetByID returns a snapshot of a loan record
func (s *LoanStore) GetByID(loanID string) (*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, exists := s.loans[loanID]
	if !exists {
		return nil, fmt.Errorf("loan %s: %w", loanID, domain.ErrNotFound)
	}
	clone := *loan
	return &clone, nil
}

// ListByUser returns a user's loans in issue order
func (s *LoanStore) ListByUser(userID string) ([]*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	out := make([]*domain.Loan, 0, len(ids))
	for _, id := range ids {
		clone := *s.loans[id]
		out = append(out, &clone)
	}
	return out, nil
}

// List returns all loans in issue order
func (s *LoanStore) List() ([]*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Loan, 0, len(s.order))
	for _, id := range s.order {
		clone := *s.loans[id]
		out = append(out, &clone)
	}
	return out, nil
}
