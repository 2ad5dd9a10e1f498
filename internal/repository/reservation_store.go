package repository

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/libralend/internal/domain"
)

// ReservationStore implements domain.ReservationRepository in process
// memory, keeping creation order per user and globally.
type ReservationStore struct {
	mu           sync.RWMutex
	reservations map[string]*domain.Reservation
	order        []string
	byUser       map[string][]string
	logger       *slog.Logger
}

// NewReservationStore creates an empty reservation store
func NewReservationStore(logger *slog.Logger) *ReservationStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationStore{
		reservations: map[string]*domain.Reservation{},
		byUser:       map[string][]string{},
		logger:       logger,
	}
}

// Create stores a new reservation. The available flag is the caller's
// catalog snapshot and fixes the status at creation: READY when a copy is
// available, WAITING otherwise. At most one non-cancelled reservation may
// exist per (user, book) pair.
func (s *ReservationStore) Create(userID, bookID, branchID string, available bool, now time.Time) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byUser[userID] {
		existing := s.reservations[id]
		if existing.BookID == bookID && existing.Active() {
			return nil, fmt.Errorf("reservation already exists for book %s: %w", bookID, domain.ErrConflict)
		}
	}

	status := domain.ReservationWaiting
	if available {
		status = domain.ReservationReady
	}

	reservation := &domain.Reservation{
		ID:        uuid.NewString(),
		UserID:    userID,
		BookID:    bookID,
		BranchID:  branchID,
		Status:    status,
		CreatedAt: now,
	}
	s.reservations[reservation.ID] = reservation
	s.order = append(s.order, reservation.ID)
	s.byUser[userID] = append(s.byUser[userID], reservation.ID)

	s.logger.Debug("reservation created",
		slog.String("reservation_id", reservation.ID),
		slog.String("user_id", userID),
		slog.String("book_id", bookID),
		slog.String("status", string(status)),
	)

	clone := *reservation
	return &clone, nil
}

// Cancel moves a reservation to CANCELLED. Cancel is terminal, so a second
// cancel is a conflict.
func (s *ReservationStore) Cancel(reservationID string, now time.Time) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, exists := s.reservations[reservationID]
	if !exists {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, domain.ErrNotFound)
	}
	if reservation.Status == domain.ReservationCancelled {
		return nil, fmt.Errorf("reservation %s already cancelled: %w", reservationID, domain.ErrConflict)
	}

	cancelledAt := now
	reservation.Status = domain.ReservationCancelled
	reservation.CancelledAt = &cancelledAt

	clone := *reservation
	return &clone, nil
}

// GetByID returns a snapshot of a reservation
func (s *ReservationStore) GetByID(reservationID string) (*domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, exists := s.reservations[reservationID]
	if !exists {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, domain.ErrNotFound)
	}
	clone := *reservation
	return &clone, nil
}

// ListByUser returns a user's reservations in creation order
func (s *ReservationStore) ListByUser(userID string) ([]*domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	out := make([]*domain.Reservation, 0, len(ids))
	for _, id := range ids {
		clone := *s.reservations[id]
		out = append(out, &clone)
	}
	return out, nil
}

// PromoteOldestWaiting moves the oldest WAITING reservation for a book to
// READY. Returns nil without error when nothing is waiting.
func (s *ReservationStore) PromoteOldestWaiting(bookID string) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		reservation := s.reservations[id]
		if reservation.BookID == bookID && reservation.Status == domain.ReservationWaiting {
			reservation.Status = domain.ReservationReady
			s.logger.Info("reservation promoted",
				slog.String("reservation_id", reservation.ID),
				slog.String("book_id", bookID),
			)
			clone := *reservation
			return &clone, nil
		}
	}
	return nil, nil
}
