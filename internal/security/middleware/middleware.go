package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strings"

	"github.com/yourorg/libralend/internal/security/audit"
	"github.com/yourorg/libralend/internal/security/auth"
	"github.com/yourorg/libralend/internal/security/ratelimit"
)

type PrincipalContextKey struct{}

// SessionMiddleware resolves a bearer token to a session principal and
// attaches it to the request context. Requests without an Authorization
// header pass through anonymously (lending endpoints accept an explicit
// userId for those); a header that is present but invalid is rejected.
func SessionMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			session, err := tm.Validate(r.Context(), token)
			if err != nil {
				log.Debug("session validation failed", slog.String("error", err.Error()))
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalContextKey{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware applies the sliding-window limiter keyed by member
// ID when authenticated, client address otherwise. Health and metrics
// endpoints are exempt.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			key := clientKey(r)
			if !limiter.Allow(key) {
				log.Warn("rate limit exceeded", slog.String("client", key))
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records mutating lending requests before they execute
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			if session := GetPrincipal(r.Context()); session != nil {
				userID = session.UserID
			}

			switch {
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/loans/issue"):
				auditLog.LogIssue(r.Context(), userID, "", "initiated")
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/loans/return"):
				auditLog.LogReturn(r.Context(), userID, "", "initiated")
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/reservations"):
				auditLog.LogReserve(r.Context(), userID, "", "initiated")
			case r.Method == http.MethodDelete && strings.Contains(r.URL.Path, "/reservations/"):
				// Runs before routing, so the path value is not populated yet.
				auditLog.LogCancel(r.Context(), userID, path.Base(r.URL.Path), "initiated")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipal returns the authenticated session, or nil for anonymous
// requests.
func GetPrincipal(ctx context.Context) *auth.Session {
	if s := ctx.Value(PrincipalContextKey{}); s != nil {
		if session, ok := s.(*auth.Session); ok {
			return session
		}
	}
	return nil
}

func clientKey(r *http.Request) string {
	if session := GetPrincipal(r.Context()); session != nil {
		return session.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
