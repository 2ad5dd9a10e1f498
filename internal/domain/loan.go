package domain

import "time"

// LoanStatus is the state of a borrowing transaction. Only ACTIVE and
// RETURNED are ever stored; OVERDUE is a read-time view of ACTIVE.
type LoanStatus string

const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanReturned LoanStatus = "RETURNED"
	LoanOverdue  LoanStatus = "OVERDUE"
)

// Loan represents one borrowing transaction for a single copy
type Loan struct {
	ID         string
	UserID     string
	CopyID     string
	BookID     string // denormalized from the copy at issue time
	IssuedAt   time.Time
	DueDate    time.Time
	ReturnedAt *time.Time
	Status     LoanStatus
}

// ComputedStatus derives the loan status visible to readers. A loan due
// exactly at now is still ACTIVE; only a strictly later clock makes it
// OVERDUE.
func (l *Loan) ComputedStatus(now time.Time) LoanStatus {
	if l.Status == LoanReturned {
		return LoanReturned
	}
	if now.After(l.DueDate) {
		return LoanOverdue
	}
	return LoanActive
}

// LoanRepository defines data access for the lending ledger
type LoanRepository interface {
	// ValidateDays checks a loan period against the configured bounds
	// without touching any state.
	ValidateDays(days int) error
	// Issue creates an ACTIVE loan due in the given number of days.
	// It rejects a days value outside the configured bounds and does not
	// check copy availability; that precondition belongs to the caller.
	Issue(userID, copyID, bookID string, days int, now time.Time) (*Loan, error)
	// Return marks a loan RETURNED. Returning an already-returned loan is
	// a conflict, not a no-op.
	Return(loanID string, now time.Time) (*Loan, error)
	GetByID(loanID string) (*Loan, error)
	ListByUser(userID string) ([]*Loan, error)
	List() ([]*Loan, error)
}
