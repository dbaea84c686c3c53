package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"matflow/application/ports"
	"matflow/domain/core/valueobjects"
	pkgerrors "matflow/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
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

// DefaultBreakerConfig returns a default configuration for the circuit breaker
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

// BreakerImageStore guards another ImageStore with a circuit breaker. While
// the breaker is open uploads fail fast with an unavailable error.
type BreakerImageStore struct {
	next ports.ImageStore
	cb   *gobreaker.CircuitBreaker
}

var _ ports.ImageStore = (*BreakerImageStore)(nil)

// NewBreakerImageStore wraps next
func NewBreakerImageStore(next ports.ImageStore, config BreakerConfig, logger *zap.Logger) *BreakerImageStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Cancelled requests say nothing about the image host.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerImageStore{next: next, cb: cb}
}

func (s *BreakerImageStore) Upload(ctx context.Context, userID valueobjects.UserID, filename string, image io.Reader) (string, error) {
	url, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.Upload(ctx, userID, filename, image)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", pkgerrors.NewUnavailableError("image store")
		}
		return "", err
	}
	return url.(string), nil
}

// State reports the breaker state for health output
func (s *BreakerImageStore) State() string {
	return s.cb.State().String()
}
