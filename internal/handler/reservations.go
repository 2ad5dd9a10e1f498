package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/libralend/internal/domain"
	"github.com/yourorg/libralend/internal/service"
)

// CreateReservationRequest is the body for POST /api/v1/reservations
type CreateReservationRequest struct {
	UserID   string `json:"userId"`
	BookID   string `json:"bookId"`
	BranchID string `json:"branchId,omitempty"`
}

// ReservationResponse is the wire shape of a reservation
type ReservationResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	BookID      string     `json:"bookId"`
	BranchID    string     `json:"branchId,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

// ReservationsHandler serves reservation create, cancel and listing
type ReservationsHandler struct {
	lending *service.LendingService
	logger  *slog.Logger
}

// NewReservationsHandler creates a new reservations handler
func NewReservationsHandler(lending *service.LendingService, logger *slog.Logger) *ReservationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationsHandler{lending: lending, logger: logger}
}

// Create handles POST /api/v1/reservations
func (h *ReservationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode reservation request", slog.String("error", err.Error()))
		writeError(w, fmt.Errorf("invalid request body: %w", domain.ErrValidation))
		return
	}

	reservation, err := h.lending.Reserve(r.Context(), req.UserID, req.BookID, req.BranchID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(reservation))
}

// Cancel handles DELETE /api/v1/reservations/{id}
func (h *ReservationsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.lending.CancelReservation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(reservation))
}

// ListMine handles GET /api/v1/me/reservations
func (h *ReservationsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.lending.ListReservations(r.Context(), subjectID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]ReservationResponse, 0, len(reservations))
	for _, reservation := range reservations {
		items = append(items, toReservationResponse(reservation))
	}
	writeJSON(w, http.StatusOK, ListResponse{Items: items, Total: len(items)})
}

func toReservationResponse(reservation *domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:          reservation.ID,
		UserID:      reservation.UserID,
		BookID:      reservation.BookID,
		BranchID:    reservation.BranchID,
		Status:      string(reservation.Status),
		CreatedAt:   reservation.CreatedAt,
		CancelledAt: reservation.CancelledAt,
	}
}
