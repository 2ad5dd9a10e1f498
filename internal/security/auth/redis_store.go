package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/libralend/internal/infrastructure/redis"
	"github.com/yourorg/libralend/internal/observability/metrics"
	"github.com/yourorg/libralend/internal/reliability/circuitbreaker"
	"github.com/yourorg/libralend/internal/reliability/retry"
)

const sessionKeyPrefix = "session:"

// RedisStore keeps sessions in Redis so they survive a process restart.
// Calls go through a retry policy and a circuit breaker so a flapping
// Redis degrades to auth failures instead of hung requests.
type RedisStore struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	retry   *retry.Config
	logger  *slog.Logger
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client:  client,
		breaker: circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second),
		retry:   retry.DefaultConfig(),
		logger:  logger,
	}
}

func (s *RedisStore) Put(ctx context.Context, token string, session *Session, ttl time.Duration) error {
	if !s.breaker.AllowRequest() {
		metrics.ObserveSessionOperation("put", "rejected")
		return fmt.Errorf("session store unavailable")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = retry.Do(ctx, s.retry, s.logger, "session put", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.client.Set(ctx, sessionKeyPrefix+token, string(data), ttl)
	})
	s.record("put", err)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	if !s.breaker.AllowRequest() {
		metrics.ObserveSessionOperation("get", "rejected")
		return nil, fmt.Errorf("session store unavailable: %w", ErrInvalidSession)
	}

	data, err := s.client.Get(ctx, sessionKeyPrefix+token)
	if redis.IsNotFound(err) {
		s.breaker.RecordSuccess()
		metrics.ObserveSessionOperation("get", "miss")
		return nil, ErrInvalidSession
	}
	s.record("get", err)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if !s.breaker.AllowRequest() {
		metrics.ObserveSessionOperation("delete", "rejected")
		return fmt.Errorf("session store unavailable")
	}

	_, err := retry.Do(ctx, s.retry, s.logger, "session delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.client.Delete(ctx, sessionKeyPrefix+token)
	})
	s.record("delete", err)
	return err
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *RedisStore) record(operation string, err error) {
	if err != nil {
		s.breaker.RecordFailure()
		metrics.ObserveSessionOperation(operation, "error")
		return
	}
	s.breaker.RecordSuccess()
	metrics.ObserveSessionOperation(operation, "success")
}
