package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/libralend/internal/security/audit"
	"github.com/yourorg/libralend/internal/security/auth"
	"github.com/yourorg/libralend/internal/security/ratelimit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func principalEcho(t *testing.T, want string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := ""
		if session := GetPrincipal(r.Context()); session != nil {
			got = session.UserID
		}
		if got != want {
			t.Errorf("expected principal %q, got %q", want, got)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionMiddlewareAnonymousPassThrough(t *testing.T) {
	tm := auth.NewTokenManager(auth.NewMemoryStore(), time.Minute, time.Hour)
	handler := SessionMiddleware(tm, discardLogger())(principalEcho(t, ""))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous request rejected: %d", rec.Code)
	}
}

func TestSessionMiddlewareAttachesPrincipal(t *testing.T) {
	tm := auth.NewTokenManager(auth.NewMemoryStore(), time.Minute, time.Hour)
	pair, err := tm.Issue(context.Background(), "u1", "one@example.com", "MEMBER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	handler := SessionMiddleware(tm, discardLogger())(principalEcho(t, "u1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/loans", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated request rejected: %d", rec.Code)
	}
}

func TestSessionMiddlewareRejectsBadTokens(t *testing.T) {
	tm := auth.NewTokenManager(auth.NewMemoryStore(), time.Minute, time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with invalid credentials")
	})
	handler := SessionMiddleware(tm, discardLogger())(next)

	for _, header := range []string{"Bearer never-issued", "NotBearer abc", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me/loans", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.NewLimiter(2, time.Minute)
	defer limiter.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(limiter, discardLogger())(next)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
		req.RemoteAddr = "10.0.0.1:31337"
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d limited early: %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.RemoteAddr = "10.0.0.1:31337"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	// Health endpoints bypass the limiter entirely
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.1:31337"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("health check limited: %d", rec.Code)
	}
}

func TestAuditMiddlewareLogsCancelledReservationID(t *testing.T) {
	var buf bytes.Buffer
	auditLog := audit.NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := AuditMiddleware(auditLog)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/reservations/res_42", nil))

	out := buf.String()
	if !strings.Contains(out, `"action":"cancel"`) {
		t.Fatalf("cancel action not audited: %s", out)
	}
	if !strings.Contains(out, `"resource_id":"res_42"`) {
		t.Fatalf("reservation id missing from audit record: %s", out)
	}
}

func TestAuditMiddlewareRecordsMutatingActions(t *testing.T) {
	cases := []struct {
		method string
		path   string
		action string
	}{
		{http.MethodPost, "/api/v1/loans/issue", "issue"},
		{http.MethodPost, "/api/v1/loans/return", "return"},
		{http.MethodPost, "/api/v1/reservations", "reserve"},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		auditLog := audit.NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
		handler := AuditMiddleware(auditLog)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

		if !strings.Contains(buf.String(), `"action":"`+tc.action+`"`) {
			t.Errorf("%s %s: action %q not audited: %s", tc.method, tc.path, tc.action, buf.String())
		}
	}
}

func TestRateLimitKeyedBySession(t *testing.T) {
	limiter := ratelimit.NewLimiter(1, time.Minute)
	defer limiter.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(limiter, discardLogger())(next)

	send := func(userID, addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
		req.RemoteAddr = addr
		if userID != "" {
			ctx := context.WithValue(req.Context(), PrincipalContextKey{}, &auth.Session{UserID: userID})
			req = req.WithContext(ctx)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// Same address, different principals: independent budgets
	if code := send("u1", "10.0.0.1:1000"); code != http.StatusOK {
		t.Fatalf("u1 limited early: %d", code)
	}
	if code := send("u2", "10.0.0.1:1000"); code != http.StatusOK {
		t.Fatalf("u2 shares u1's budget: %d", code)
	}
	if code := send("u1", "10.0.0.2:1000"); code != http.StatusTooManyRequests {
		t.Fatalf("u1 budget not tracked across addresses: %d", code)
	}
}
