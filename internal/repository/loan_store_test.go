package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/yourorg/libralend/internal/domain"
)

var loanNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestIssueLoan(t *testing.T) {
	store := NewLoanStore(1, 90, nil)

	loan, err := store.Issue("u1", "c1", "b1", 14, loanNow)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if loan.ID == "" {
		t.Fatal("expected generated loan ID")
	}
	if loan.Status != domain.LoanActive {
		t.Fatalf("expected ACTIVE, got %s", loan.Status)
	}
	if !loan.DueDate.Equal(loanNow.AddDate(0, 0, 14)) {
		t.Fatalf("wrong due date: %s", loan.DueDate)
	}
	if loan.ReturnedAt != nil {
		t.Fatal("new loan must not carry a return timestamp")
	}
}

func TestIssueRejectsOutOfRangeDays(t *testing.T) {
	store := NewLoanStore(1, 90, nil)

	for _, days := range []int{0, -3, 91} {
		if _, err := store.Issue("u1", "c1", "b1", days, loanNow); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("days=%d: expected validation error, got %v", days, err)
		}
	}

	// A rejected issue must leave no record behind
	all, _ := store.List()
	if len(all) != 0 {
		t.Fatalf("expected empty store after rejections, got %d loans", len(all))
	}
}

func TestReturnLoan(t *testing.T) {
	store := NewLoanStore(1, 90, nil)
	loan, _ := store.Issue("u1", "c1", "b1", 7, loanNow)

	later := loanNow.Add(48 * time.Hour)
	returned, err := store.Return(loan.ID, later)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Status != domain.LoanReturned {
		t.Fatalf("expected RETURNED, got %s", returned.Status)
	}
	if returned.ReturnedAt == nil || !returned.ReturnedAt.Equal(later) {
		t.Fatalf("wrong returnedAt: %v", returned.ReturnedAt)
	}
}

func TestDoubleReturnConflict(t *testing.T) {
	store := NewLoanStore(1, 90, nil)
	loan, _ := store.Issue("u1", "c1", "b1", 7, loanNow)

	first := loanNow.Add(time.Hour)
	if _, err := store.Return(loan.ID, first); err != nil {
		t.Fatalf("first return: %v", err)
	}
	if _, err := store.Return(loan.ID, loanNow.Add(2*time.Hour)); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on second return, got %v", err)
	}

	// The record keeps the original return timestamp
	got, _ := store.GetByID(loan.ID)
	if got.ReturnedAt == nil || !got.ReturnedAt.Equal(first) {
		t.Fatalf("second return mutated the record: %v", got.ReturnedAt)
	}
}

func TestReturnUnknownLoan(t *testing.T) {
	store := NewLoanStore(1, 90, nil)
	if _, err := store.Return("missing", loanNow); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListByUserKeepsIssueOrder(t *testing.T) {
	store := NewLoanStore(1, 90, nil)
	first, _ := store.Issue("u1", "c1", "b1", 7, loanNow)
	store.Issue("u2", "c2", "b1", 7, loanNow)
	second, _ := store.Issue("u1", "c3", "b2", 7, loanNow)

	loans, err := store.ListByUser("u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(loans) != 2 || loans[0].ID != first.ID || loans[1].ID != second.ID {
		t.Fatalf("unexpected order: %+v", loans)
	}

	none, _ := store.ListByUser("nobody")
	if len(none) != 0 {
		t.Fatalf("expected empty list, got %d", len(none))
	}
}

func TestComputedLoanStatus(t *testing.T) {
	store := NewLoanStore(1, 90, nil)
	loan, _ := store.Issue("u1", "c1", "b1", 7, loanNow)

	// Exactly at the due date the loan is still ACTIVE: overdue is strict
	if got := loan.ComputedStatus(loan.DueDate); got != domain.LoanActive {
		t.Fatalf("at due date: expected ACTIVE, got %s", got)
	}
	if got := loan.ComputedStatus(loan.DueDate.Add(time.Nanosecond)); got != domain.LoanOverdue {
		t.Fatalf("past due date: expected OVERDUE, got %s", got)
	}

	returned, _ := store.Return(loan.ID, loan.DueDate.AddDate(0, 0, 30))
	if got := returned.ComputedStatus(loan.DueDate.AddDate(0, 0, 60)); got != domain.LoanReturned {
		t.Fatalf("returned loan must stay RETURNED, got %s", got)
	}
}
