// Package resilience guards a store driver with a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"friendship-backend/application/ports"
	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	pkgerrors "friendship-backend/pkg/errors"
)

// BreakerConfig holds configuration for the circuit breaker
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the default configuration for a store breaker
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Compile-time interface check
var _ ports.Store = (*Store)(nil)

// Store decorates a store. Only infrastructure failures count against the
// breaker; not found, conflict and validation outcomes are normal answers.
// While the breaker is open every call fails fast with an UNAVAILABLE error.
type Store struct {
	next    ports.Store
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewStore wraps next with a circuit breaker
func NewStore(next ports.Store, cfg BreakerConfig, logger *zap.Logger) *Store {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isSuccessful,
	})

	return &Store{next: next, breaker: breaker, logger: logger}
}

// State returns the breaker state
func (s *Store) State() gobreaker.State {
	return s.breaker.State()
}

func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	// A cancelled request says nothing about the store's health.
	if errors.Is(err, context.Canceled) {
		return true
	}
	return !(pkgerrors.IsDatabase(err) ||
		pkgerrors.IsType(err, pkgerrors.ErrorTypeTimeout) ||
		pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable) ||
		pkgerrors.IsType(err, pkgerrors.ErrorTypeInternal) ||
		!pkgerrors.IsAppError(err))
}

func execute[T any](s *Store, fn func() (T, error)) (T, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, pkgerrors.NewUnavailableError("store").WithCause(err)
		}
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

func run(s *Store, fn func() error) error {
	_, err := execute(s, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func (s *Store) Create(ctx context.Context, user *entities.User) error {
	return run(s, func() error { return s.next.Create(ctx, user) })
}

func (s *Store) List(ctx context.Context) ([]*entities.User, error) {
	return execute(s, func() ([]*entities.User, error) { return s.next.List(ctx) })
}

func (s *Store) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	return execute(s, func() (*entities.User, error) { return s.next.GetByID(ctx, id) })
}

func (s *Store) Update(ctx context.Context, user *entities.User) error {
	return run(s, func() error { return s.next.Update(ctx, user) })
}

func (s *Store) Delete(ctx context.Context, id valueobjects.UserID) error {
	return run(s, func() error { return s.next.Delete(ctx, id) })
}

func (s *Store) SaveEdges(ctx context.Context, edges ...entities.Friendship) error {
	return run(s, func() error { return s.next.SaveEdges(ctx, edges...) })
}

func (s *Store) DeleteEdges(ctx context.Context, edges ...entities.Friendship) error {
	return run(s, func() error { return s.next.DeleteEdges(ctx, edges...) })
}

func (s *Store) FriendIDsOf(ctx context.Context, ids []valueobjects.UserID) ([]valueobjects.UserID, error) {
	return execute(s, func() ([]valueobjects.UserID, error) { return s.next.FriendIDsOf(ctx, ids) })
}

func (s *Store) UsersByIDs(ctx context.Context, ids []valueobjects.UserID) ([]*entities.User, error) {
	return execute(s, func() ([]*entities.User, error) { return s.next.UsersByIDs(ctx, ids) })
}

// Ping bypasses the breaker so readiness reflects the store itself
func (s *Store) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.next.Close(ctx)
}
