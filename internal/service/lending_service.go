package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yourorg/libralend/internal/domain"
	"github.com/yourorg/libralend/internal/observability/metrics"
)

// LendingService coordinates issue, return, reserve and cancel across the
// catalog, the loan ledger and the reservation queue. It is the only place
// that chains a catalog mutation with a ledger or queue mutation, and it
// serializes those units of work with a single coordinator lock so the
// one-active-loan-per-copy and one-reservation-per-(user,book) invariants
// hold under concurrent requests.
type LendingService struct {
	mu           sync.Mutex
	catalog      domain.CatalogRepository
	loans        domain.LoanRepository
	reservations domain.ReservationRepository
	members      domain.MemberRepository
	clock        domain.Clock
	feed         *ActivityFeed
	logger       *slog.Logger
}

// NewLendingService creates the lending coordinator
func NewLendingService(
	catalog domain.CatalogRepository,
	loans domain.LoanRepository,
	reservations domain.ReservationRepository,
	members domain.MemberRepository,
	clock domain.Clock,
	feed *ActivityFeed,
	logger *slog.Logger,
) *LendingService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &LendingService{
		catalog:      catalog,
		loans:        loans,
		reservations: reservations,
		members:      members,
		clock:        clock,
		feed:         feed,
		logger:       logger,
	}
}

// LoanView is a loan together with its read-time status
type LoanView struct {
	domain.Loan
	ComputedStatus domain.LoanStatus
}

// IssueLoan lends a copy to a member. Preconditions are checked before any
// write: the days bound, member and copy existence, and copy availability.
// The ledger write happens before the copy-status write, so a failure
// between the two leaves at worst an AVAILABLE copy with an active loan,
// never a double loan.
func (s *LendingService) IssueLoan(ctx context.Context, userID, copyID string, days int) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == "" || copyID == "" {
		metrics.ObserveLoanIssued("validation_error")
		return nil, fmt.Errorf("userId and copyId are required: %w", domain.ErrValidation)
	}
	if err := s.loans.ValidateDays(days); err != nil {
		metrics.ObserveLoanIssued("validation_error")
		return nil, err
	}
	if !s.members.Exists(userID) {
		metrics.ObserveLoanIssued("user_not_found")
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	copyRec, err := s.catalog.FindCopy(copyID)
	if err != nil {
		metrics.ObserveLoanIssued("copy_not_found")
		return nil, err
	}
	if copyRec.Status != domain.CopyAvailable {
		metrics.ObserveLoanIssued("conflict")
		return nil, fmt.Errorf("copy %s is not available: %w", copyID, domain.ErrConflict)
	}

	loan, err := s.loans.Issue(userID, copyID, copyRec.BookID, days, s.clock.Now())
	if err != nil {
		metrics.ObserveLoanIssued("validation_error")
		return nil, err
	}

	if err := s.catalog.SetCopyStatus(copyID, domain.CopyLoaned); err != nil {
		// Should be unreachable: the copy was just read under the
		// coordinator lock.
		metrics.ObserveLoanIssued("error")
		return nil, fmt.Errorf("failed to mark copy loaned: %w", err)
	}

	s.logger.Info("loan issued",
		slog.String("loan_id", loan.ID),
		slog.String("user_id", userID),
		slog.String("copy_id", copyID),
		slog.Time("due_date", loan.DueDate),
	)
	metrics.ObserveLoanIssued("success")
	s.publish(domain.LendingEvent{
		Type:   domain.EventLoanIssued,
		UserID: userID,
		BookID: loan.BookID,
		CopyID: copyID,
		LoanID: loan.ID,
	})
	return loan, nil
}

// ReturnLoan closes out a loan and frees its copy. A missing copy record
// does not block the return; the physical item may have left circulation
// while the loan was out.
func (s *LendingService) ReturnLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if loanID == "" {
		metrics.ObserveLoanReturned("validation_error")
		return nil, fmt.Errorf("loanId is required: %w", domain.ErrValidation)
	}

	loan, err := s.loans.GetByID(loanID)
	if err != nil {
		metrics.ObserveLoanReturned("not_found")
		return nil, err
	}
	if loan.Status == domain.LoanReturned {
		metrics.ObserveLoanReturned("conflict")
		return nil, fmt.Errorf("loan %s already returned: %w", loanID, domain.ErrConflict)
	}

	if err := s.catalog.SetCopyStatus(loan.CopyID, domain.CopyAvailable); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			metrics.ObserveLoanReturned("error")
			return nil, fmt.Errorf("failed to free copy: %w", err)
		}
		s.logger.Warn("returned loan references missing copy",
			slog.String("loan_id", loanID),
			slog.String("copy_id", loan.CopyID),
		)
	}

	returned, err := s.loans.Return(loanID, s.clock.Now())
	if err != nil {
		metrics.ObserveLoanReturned("error")
		return nil, err
	}

	s.logger.Info("loan returned",
		slog.String("loan_id", loanID),
		slog.String("user_id", returned.UserID),
		slog.String("copy_id", returned.CopyID),
	)
	metrics.ObserveLoanReturned("success")
	s.publish(domain.LendingEvent{
		Type:   domain.EventLoanReturned,
		UserID: returned.UserID,
		BookID: returned.BookID,
		CopyID: returned.CopyID,
		LoanID: returned.ID,
	})
	return returned, nil
}

// ListLoans returns a user's loans with their computed status
func (s *LendingService) ListLoans(ctx context.Context, userID string) ([]*LoanView, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required: %w", domain.ErrValidation)
	}

	loans, err := s.loans.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	views := make([]*LoanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, &LoanView{Loan: *loan, ComputedStatus: loan.ComputedStatus(now)})
	}
	return views, nil
}

// Reserve places a standing request for a book. The availability snapshot
// taken here decides READY vs WAITING once; it is not re-evaluated when
// copies come back.
func (s *LendingService) Reserve(ctx context.Context, userID, bookID, branchID string) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == "" || bookID == "" {
		return nil, fmt.Errorf("userId and bookId are required: %w", domain.ErrValidation)
	}
	if !s.members.Exists(userID) {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	available, err := s.catalog.HasAvailableCopy(bookID)
	if err != nil {
		return nil, err
	}

	reservation, err := s.reservations.Create(userID, bookID, branchID, available, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation created",
		slog.String("reservation_id", reservation.ID),
		slog.String("user_id", userID),
		slog.String("book_id", bookID),
		slog.String("status", string(reservation.Status)),
	)
	metrics.ObserveReservationCreated(string(reservation.Status))
	s.publish(domain.LendingEvent{
		Type:          domain.EventReservationCreated,
		UserID:        userID,
		BookID:        bookID,
		ReservationID: reservation.ID,
		Status:        string(reservation.Status),
	})
	return reservation, nil
}

// CancelReservation terminates a reservation
func (s *LendingService) CancelReservation(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reservationID == "" {
		return nil, fmt.Errorf("reservation id is required: %w", domain.ErrValidation)
	}

	reservation, err := s.reservations.Cancel(reservationID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation cancelled",
		slog.String("reservation_id", reservationID),
		slog.String("user_id", reservation.UserID),
	)
	metrics.ObserveReservationCancelled()
	s.publish(domain.LendingEvent{
		Type:          domain.EventReservationCancelled,
		UserID:        reservation.UserID,
		BookID:        reservation.BookID,
		ReservationID: reservation.ID,
	})
	return reservation, nil
}

// ListReservations returns a user's reservations in creation order
func (s *LendingService) ListReservations(ctx context.Context, userID string) ([]*domain.Reservation, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required: %w", domain.ErrValidation)
	}
	return s.reservations.ListByUser(userID)
}

func (s *LendingService) publish(event domain.LendingEvent) {
	if s.feed == nil {
		return
	}
	event.At = s.clock.Now()
	s.feed.Publish(event)
}
