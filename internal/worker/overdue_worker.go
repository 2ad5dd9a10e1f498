package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yourorg/libralend/internal/domain"
	"github.com/yourorg/libralend/internal/observability/metrics"
	"github.com/yourorg/libralend/internal/repository"
)

// OverdueWorker periodically sweeps the loan ledger to refresh the active
// and overdue gauges and log loans that just crossed their due date. It
// never writes loan status: OVERDUE stays a derived view.
//
// When reservation promotion is enabled, a sweep also moves the oldest
// WAITING reservation of each book with availability to READY. Promotion
// is off by default; reservation status is otherwise fixed at creation.
type OverdueWorker struct {
	loans        domain.LoanRepository
	reservations domain.ReservationRepository
	catalog      *repository.CatalogStore
	clock        domain.Clock
	logger       *slog.Logger
	interval     time.Duration
	promote      bool

	mu       sync.Mutex
	reported map[string]struct{}
}

// NewOverdueWorker creates the sweep worker
func NewOverdueWorker(
	loans domain.LoanRepository,
	reservations domain.ReservationRepository,
	catalog *repository.CatalogStore,
	clock domain.Clock,
	logger *slog.Logger,
	interval time.Duration,
	promote bool,
) *OverdueWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &OverdueWorker{
		loans:        loans,
		reservations: reservations,
		catalog:      catalog,
		clock:        clock,
		logger:       logger,
		interval:     interval,
		promote:      promote,
		reported:     map[string]struct{}{},
	}
}

// Start runs the sweep loop until the context is cancelled
func (w *OverdueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("overdue worker started",
		slog.Duration("interval", w.interval),
		slog.Bool("reservation_promotion", w.promote),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("overdue worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. Exported so tests and startup can trigger it
// directly.
func (w *OverdueWorker) Sweep(ctx context.Context) {
	loans, err := w.loans.List()
	if err != nil {
		w.logger.Error("failed to list loans", slog.String("error", err.Error()))
		return
	}

	now := w.clock.Now()
	active := 0
	overdue := 0

	w.mu.Lock()
	for _, loan := range loans {
		switch loan.ComputedStatus(now) {
		case domain.LoanActive:
			active++
		case domain.LoanOverdue:
			active++
			overdue++
			if _, seen := w.reported[loan.ID]; !seen {
				w.reported[loan.ID] = struct{}{}
				w.logger.Warn("loan overdue",
					slog.String("loan_id", loan.ID),
					slog.String("user_id", loan.UserID),
					slog.String("copy_id", loan.CopyID),
					slog.Time("due_date", loan.DueDate),
				)
			}
		case domain.LoanReturned:
			delete(w.reported, loan.ID)
		}
	}
	w.mu.Unlock()

	metrics.SetActiveLoans(active)
	metrics.SetOverdueLoans(overdue)

	if w.promote {
		w.promoteWaiting()
	}
}

func (w *OverdueWorker) promoteWaiting() {
	for _, bookID := range w.catalog.BooksWithAvailableCopies() {
		promoted, err := w.reservations.PromoteOldestWaiting(bookID)
		if err != nil {
			w.logger.Error("failed to promote reservation",
				slog.String("book_id", bookID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if promoted != nil {
			metrics.ObserveReservationPromoted()
		}
	}
}
