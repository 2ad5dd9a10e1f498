package domain

import "time"

// ReservationStatus is the state of a standing book request
type ReservationStatus string

const (
	ReservationWaiting   ReservationStatus = "WAITING"
	ReservationReady     ReservationStatus = "READY"
	ReservationCancelled ReservationStatus = "CANCELLED"
	// ReservationFulfilled is part of the status vocabulary but nothing
	// produces it yet; loans are issued against copies directly.
	ReservationFulfilled ReservationStatus = "FULFILLED"
)

// Reservation represents a member's standing request for a book. Status is
// fixed at creation from the availability snapshot: READY when a copy is
// available, WAITING otherwise.
type Reservation struct {
	ID          string
	UserID      string
	BookID      string
	BranchID    string
	Status      ReservationStatus
	CreatedAt   time.Time
	CancelledAt *time.Time
}

// Active reports whether the reservation still counts against the
// one-per-(user,book) limit.
func (r *Reservation) Active() bool {
	return r.Status != ReservationCancelled
}

// ReservationRepository defines data access for the reservation queue
type ReservationRepository interface {
	// Create stores a new reservation. The available flag is the catalog
	// availability snapshot taken by the caller and decides READY vs
	// WAITING. An existing non-cancelled reservation for the same
	// (user, book) pair is a conflict.
	Create(userID, bookID, branchID string, available bool, now time.Time) (*Reservation, error)
	Cancel(reservationID string, now time.Time) (*Reservation, error)
	GetByID(reservationID string) (*Reservation, error)
	ListByUser(userID string) ([]*Reservation, error)
	// PromoteOldestWaiting moves the oldest WAITING reservation for a book
	// to READY, returning nil when no WAITING reservation exists. Only the
	// reservation promotion sweep calls this.
	PromoteOldestWaiting(bookID string) (*Reservation, error)
}
