package domain

import "time"

// EventType labels an entry on the lending activity feed
type EventType string

const (
	EventLoanIssued           EventType = "loan.issued"
	EventLoanReturned         EventType = "loan.returned"
	EventReservationCreated   EventType = "reservation.created"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationPromoted  EventType = "reservation.promoted"
)

// LendingEvent is a broadcast record of one completed lending operation,
// consumed by the operator activity websocket.
type LendingEvent struct {
	Type          EventType `json:"type"`
	UserID        string    `json:"userId,omitempty"`
	BookID        string    `json:"bookId,omitempty"`
	CopyID        string    `json:"copyId,omitempty"`
	LoanID        string    `json:"loanId,omitempty"`
	ReservationID string    `json:"reservationId,omitempty"`
	Status        string    `json:"status,omitempty"`
	At            time.Time `json:"at"`
}
