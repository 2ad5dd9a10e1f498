package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/libralend/internal/domain"
	"github.com/yourorg/libralend/internal/security/middleware"
	"github.com/yourorg/libralend/internal/service"
)

// IssueLoanRequest is the body for POST /api/v1/loans/issue. Days is a
// pointer so an absent field falls back to the configured default while an
// explicit zero is rejected.
type IssueLoanRequest struct {
	UserID string `json:"userId"`
	CopyID string `json:"copyId"`
	Days   *int   `json:"days,omitempty"`
}

// ReturnLoanRequest is the body for POST /api/v1/loans/return
type ReturnLoanRequest struct {
	LoanID string `json:"loanId"`
}

// LoanResponse is the wire shape of a loan
type LoanResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	CopyID         string     `json:"copyId"`
	BookID         string     `json:"bookId"`
	IssuedAt       time.Time  `json:"issuedAt"`
	DueDate        time.Time  `json:"dueDate"`
	ReturnedAt     *time.Time `json:"returnedAt,omitempty"`
	Status         string     `json:"status"`
	ComputedStatus string     `json:"computedStatus,omitempty"`
}

// LoansHandler serves loan issue, return and listing
type LoansHandler struct {
	lending     *service.LendingService
	defaultDays int
	logger      *slog.Logger
}

// NewLoansHandler creates a new loans handler
func NewLoansHandler(lending *service.LendingService, defaultDays int, logger *slog.Logger) *LoansHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoansHandler{lending: lending, defaultDays: defaultDays, logger: logger}
}

// Issue handles POST /api/v1/loans/issue
func (h *LoansHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req IssueLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode issue request", slog.String("error", err.Error()))
		writeError(w, fmt.Errorf("invalid request body: %w", domain.ErrValidation))
		return
	}

	days := h.defaultDays
	if req.Days != nil {
		days = *req.Days
	}

	loan, err := h.lending.IssueLoan(r.Context(), req.UserID, req.CopyID, days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLoanResponse(loan, ""))
}

// Return handles POST /api/v1/loans/return
func (h *LoansHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req ReturnLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode return request", slog.String("error", err.Error()))
		writeError(w, fmt.Errorf("invalid request body: %w", domain.ErrValidation))
		return
	}

	loan, err := h.lending.ReturnLoan(r.Context(), req.LoanID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanResponse(loan, ""))
}

// ListMine handles GET /api/v1/me/loans. The subject comes from the
// session when authenticated, the userId query parameter otherwise.
func (h *LoansHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := subjectID(r)

	views, err := h.lending.ListLoans(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]LoanResponse, 0, len(views))
	for _, view := range views {
		items = append(items, toLoanResponse(&view.Loan, string(view.ComputedStatus)))
	}
	writeJSON(w, http.StatusOK, ListResponse{Items: items, Total: len(items)})
}

func toLoanResponse(loan *domain.Loan, computed string) LoanResponse {
	return LoanResponse{
		ID:             loan.ID,
		UserID:         loan.UserID,
		CopyID:         loan.CopyID,
		BookID:         loan.BookID,
		IssuedAt:       loan.IssuedAt,
		DueDate:        loan.DueDate,
		ReturnedAt:     loan.ReturnedAt,
		Status:         string(loan.Status),
		ComputedStatus: computed,
	}
}

// subjectID resolves whose records a /me endpoint shows
func subjectID(r *http.Request) string {
	if session := middleware.GetPrincipal(r.Context()); session != nil {
		return session.UserID
	}
	return r.URL.Query().Get("userId")
}
