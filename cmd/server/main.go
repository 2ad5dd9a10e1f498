package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/libralend/internal/domain"
	"github.com/yourorg/libralend/internal/featureflags"
	"github.com/yourorg/libralend/internal/handler"
	"github.com/yourorg/libralend/internal/infrastructure/logger"
	redisinfra "github.com/yourorg/libralend/internal/infrastructure/redis"
	"github.com/yourorg/libralend/internal/observability/metrics"
	"github.com/yourorg/libralend/internal/observability/tracing"
	"github.com/yourorg/libralend/internal/repository"
	"github.com/yourorg/libralend/internal/security/audit"
	"github.com/yourorg/libralend/internal/security/auth"
	"github.com/yourorg/libralend/internal/security/middleware"
	"github.com/yourorg/libralend/internal/security/ratelimit"
	"github.com/yourorg/libralend/internal/service"
	"github.com/yourorg/libralend/internal/worker"
	"github.com/yourorg/libralend/pkg/config"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting libralend server", slog.String("environment", cfg.Environment))

	// 3. Initialize tracing (no-op without an OTLP endpoint)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, "libralend", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Choose session store backend
	var sessionStore auth.SessionStore
	if cfg.SessionRedisURL != "" {
		redisClient, err := redisinfra.NewClient(cfg.SessionRedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		sessionStore = auth.NewRedisStore(redisClient, log)
		log.Info("using redis session store")
	} else {
		sessionStore = auth.NewMemoryStore()
	}

	// 5. Initialize stores and seed demo data
	catalog := repository.NewCatalogStore(log)
	loans := repository.NewLoanStore(cfg.LoanMinDays, cfg.LoanMaxDays, log)
	reservations := repository.NewReservationStore(log)
	members := repository.NewMemberStore(log)

	if err := repository.SeedCatalog(catalog, log); err != nil {
		log.Error("failed to seed catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := repository.SeedMembers(members, log); err != nil {
		log.Error("failed to seed members", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Initialize services
	clock := domain.SystemClock{}
	feed := service.NewActivityFeed(log)
	lending := service.NewLendingService(catalog, loans, reservations, members, clock, feed, log)

	tokenManager := auth.NewTokenManager(
		sessionStore,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute,
		time.Duration(cfg.RefreshTTLMinutes)*time.Minute,
	)
	authService := service.NewAuthService(members, tokenManager, log)

	// 7. Initialize handlers
	booksHandler := handler.NewBooksHandler(catalog, log)
	loansHandler := handler.NewLoansHandler(lending, cfg.LoanDefaultDays, log)
	reservationsHandler := handler.NewReservationsHandler(lending, log)
	authHandler := handler.NewAuthHandler(authService, log)
	healthHandler := handler.NewHealthHandler(sessionStore)
	activityHandler := handler.NewActivityHandler(feed, log, cfg.CORSAllowedOrigins)

	// 7a. Security components
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLogger := audit.NewLogger(log)

	// 8. Setup HTTP routes
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
	mux.Handle("GET /ws/activity", activityHandler)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> session -> rate limit -> audit -> metrics -> CORS
	rootHandler := withRequestID(
		middleware.SessionMiddleware(tokenManager, log)(
			middleware.RateLimitMiddleware(rateLimiter, log)(
				middleware.AuditMiddleware(auditLogger)(
					metrics.HTTPMetricsMiddleware(handlerWithCORS),
				),
			),
		),
		log,
	)

	// 9. Start the overdue sweep worker
	promote := featureflags.Enabled("reservation_promotion")
	overdueWorker := worker.NewOverdueWorker(
		loans,
		reservations,
		catalog,
		clock,
		log,
		time.Duration(cfg.OverdueScanMinutes)*time.Minute,
		promote,
	)
	go overdueWorker.Start(ctx)

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "libralend"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "opaque-session"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.Bool("reservation_promotion", promote),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop the overdue worker
	rateLimiter.Stop()
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
