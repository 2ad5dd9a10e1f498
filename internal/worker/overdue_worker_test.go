package worker

import (
	"context"
	"testing"
	"time"

	"github.com/yourorg/libralend/internal/domain"
	"github.com/yourorg/libralend/internal/repository"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type workerFixture struct {
	catalog      *repository.CatalogStore
	loans        *repository.LoanStore
	reservations *repository.ReservationStore
	clock        *fakeClock
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	catalog := repository.NewCatalogStore(nil)
	catalog.AddBook(&domain.Book{ID: "b1", Title: "Clean Code", Author: "Robert C. Martin", Category: "Software Engineering"})
	catalog.AddCopy(&domain.Copy{ID: "b1c1", BookID: "b1"})

	return &workerFixture{
		catalog:      catalog,
		loans:        repository.NewLoanStore(1, 90, nil),
		reservations: repository.NewReservationStore(nil),
		clock:        &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)},
	}
}

func TestSweepNeverRewritesLoanStatus(t *testing.T) {
	f := newWorkerFixture(t)
	loan, _ := f.loans.Issue("u1", "b1c1", "b1", 7, f.clock.now)

	w := NewOverdueWorker(f.loans, f.reservations, f.catalog, f.clock, nil, time.Minute, false)

	// Sweep while active, at the due date, and well past it
	w.Sweep(context.Background())
	f.clock.now = loan.DueDate
	w.Sweep(context.Background())
	f.clock.now = loan.DueDate.AddDate(0, 0, 3)
	w.Sweep(context.Background())

	stored, _ := f.loans.GetByID(loan.ID)
	if stored.Status != domain.LoanActive {
		t.Fatalf("sweep rewrote stored status: %s", stored.Status)
	}
	if stored.ComputedStatus(f.clock.now) != domain.LoanOverdue {
		t.Fatalf("expected derived OVERDUE, got %s", stored.ComputedStatus(f.clock.now))
	}
}

func TestSweepReportsOverdueOnce(t *testing.T) {
	f := newWorkerFixture(t)
	loan, _ := f.loans.Issue("u1", "b1c1", "b1", 7, f.clock.now)

	w := NewOverdueWorker(f.loans, f.reservations, f.catalog, f.clock, nil, time.Minute, false)

	f.clock.now = loan.DueDate.Add(time.Hour)
	w.Sweep(context.Background())
	if _, seen := w.reported[loan.ID]; !seen {
		t.Fatal("overdue loan not recorded after sweep")
	}

	// Repeated sweeps keep the record, a return clears it
	w.Sweep(context.Background())
	f.loans.Return(loan.ID, f.clock.now)
	w.Sweep(context.Background())
	if _, seen := w.reported[loan.ID]; seen {
		t.Fatal("returned loan still marked overdue")
	}
}

func TestSweepDoesNotPromoteByDefault(t *testing.T) {
	f := newWorkerFixture(t)
	waiting, _ := f.reservations.Create("u1", "b1", "main", false, f.clock.now)

	w := NewOverdueWorker(f.loans, f.reservations, f.catalog, f.clock, nil, time.Minute, false)
	w.Sweep(context.Background())

	got, _ := f.reservations.GetByID(waiting.ID)
	if got.Status != domain.ReservationWaiting {
		t.Fatalf("promotion ran while disabled: %s", got.Status)
	}
}

func TestSweepPromotesWhenEnabled(t *testing.T) {
	f := newWorkerFixture(t)
	oldest, _ := f.reservations.Create("u1", "b1", "main", false, f.clock.now)
	second, _ := f.reservations.Create("u2", "b1", "main", false, f.clock.now.Add(time.Minute))

	w := NewOverdueWorker(f.loans, f.reservations, f.catalog, f.clock, nil, time.Minute, true)
	w.Sweep(context.Background())

	got, _ := f.reservations.GetByID(oldest.ID)
	if got.Status != domain.ReservationReady {
		t.Fatalf("oldest reservation not promoted: %s", got.Status)
	}
	// One promotion per sweep per book
	got, _ = f.reservations.GetByID(second.ID)
	if got.Status != domain.ReservationWaiting {
		t.Fatalf("second reservation promoted in same sweep: %s", got.Status)
	}

	// No availability means no promotion
	f.catalog.SetCopyStatus("b1c1", domain.CopyLoaned)
	w.Sweep(context.Background())
	got, _ = f.reservations.GetByID(second.ID)
	if got.Status != domain.ReservationWaiting {
		t.Fatalf("promotion ran without availability: %s", got.Status)
	}
}
