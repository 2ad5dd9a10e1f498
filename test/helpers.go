package test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/libralend/internal/domain"
	"github.com/yourorg/libralend/internal/handler"
	"github.com/yourorg/libralend/internal/repository"
	"github.com/yourorg/libralend/internal/security/auth"
	"github.com/yourorg/libralend/internal/service"
)

// FrozenClock pins the API's notion of time for deterministic assertions
type FrozenClock struct {
	Current time.Time
}

func (c *FrozenClock) Now() time.Time { return c.Current }

// TestServerHelper wires the full API over the in-memory stores, seeded
// with the demo catalog and accounts, and serves it from httptest.
type TestServerHelper struct {
	Server  *httptest.Server
	Clock   *FrozenClock
	Catalog *repository.CatalogStore
	Loans   *repository.LoanStore
	Lending *service.LendingService
}

func NewTestServer(t *testing.T) *TestServerHelper {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &FrozenClock{Current: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	catalog := repository.NewCatalogStore(log)
	loans := repository.NewLoanStore(1, 90, log)
	reservations := repository.NewReservationStore(log)
	members := repository.NewMemberStore(log)
	if err := repository.SeedCatalog(catalog, nil); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	if err := repository.SeedMembers(members, nil); err != nil {
		t.Fatalf("seed members: %v", err)
	}

	lending := service.NewLendingService(catalog, loans, reservations, members, clock, nil, log)
	sessions := auth.NewMemoryStore()
	tokens := auth.NewTokenManager(sessions, 15*time.Minute, time.Hour)
	authService := service.NewAuthService(members, tokens, log)

	booksHandler := handler.NewBooksHandler(catalog, log)
	loansHandler := handler.NewLoansHandler(lending, 14, log)
	reservationsHandler := handler.NewReservationsHandler(lending, log)
	authHandler := handler.NewAuthHandler(authService, log)
	healthHandler := handler.NewHealthHandler(sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/books", booksHandler.List)
	mux.HandleFunc("GET /api/v1/books/{id}", booksHandler.Get)
	mux.HandleFunc("POST /api/v1/loans/issue", loansHandler.Issue)
	mux.HandleFunc("POST /api/v1/loans/return", loansHandler.Return)
	mux.HandleFunc("GET /api/v1/me/loans", loansHandler.ListMine)
	mux.HandleFunc("POST /api/v1/reservations", reservationsHandler.Create)
	mux.HandleFunc("DELETE /api/v1/reservations/{id}", reservationsHandler.Cancel)
	mux.HandleFunc("GET /api/v1/me/reservations", reservationsHandler.ListMine)
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)

	return &TestServerHelper{
		Server:  httptest.NewServer(mux),
		Clock:   clock,
		Catalog: catalog,
		Loans:   loans,
		Lending: lending,
	}
}

func (h *TestServerHelper) Close() {
	h.Server.Close()
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// PostJSON sends a JSON body and decodes the JSON response into out when
// out is non-nil.
func (h *TestServerHelper) PostJSON(t *testing.T, path string, body any, out any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(h.URL()+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	decodeBody(t, resp, out)
	return resp
}

// GetJSON fetches a path and decodes the JSON response into out when out
// is non-nil.
func (h *TestServerHelper) GetJSON(t *testing.T, path string, out any) *http.Response {
	t.Helper()

	resp, err := http.Get(h.URL() + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	decodeBody(t, resp, out)
	return resp
}

// Delete issues a DELETE request and decodes the response
func (h *TestServerHelper) Delete(t *testing.T, path string, out any) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, h.URL()+path, nil)
	if err != nil {
		t.Fatalf("build DELETE %s: %v", path, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE %s: %v", path, err)
	}
	decodeBody(t, resp, out)
	return resp
}

// IssueLoan is a shortcut for tests that need an existing loan
func (h *TestServerHelper) IssueLoan(t *testing.T, userID, copyID string) *domain.Loan {
	t.Helper()

	loan, err := h.Lending.IssueLoan(t.Context(), userID, copyID, 14)
	if err != nil {
		t.Fatalf("issue loan: %v", err)
	}
	return loan
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("decode response %q: %v", data, err)
		}
	}
}

// AssertStatusCode fails the test when the response status differs
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}
