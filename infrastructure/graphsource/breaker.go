package graphsource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/domain/network"
)

// BreakerConfig holds circuit breaker settings for a graph source
type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
	// CallTimeout bounds one fetch; zero leaves the caller's deadline alone.
	CallTimeout time.Duration
}

// BreakerSource stops calling a failing graph source until it recovers.
// While open every fetch fails fast with network.ErrDataSourceUnavailable,
// which the builder answers with the mock network.
type BreakerSource struct {
	next        network.Source
	cb          *gobreaker.CircuitBreaker
	callTimeout time.Duration
}

// NewBreakerSource wraps next with a circuit breaker
func NewBreakerSource(next network.Source, cfg BreakerConfig, logger *zap.Logger) *BreakerSource {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Graph source circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up is not a source failure
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerSource{next: next, cb: cb, callTimeout: cfg.CallTimeout}
}

// FetchNetwork calls the wrapped source through the breaker
func (s *BreakerSource) FetchNetwork(ctx context.Context, userID string) (network.RawNetwork, error) {
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.FetchNetwork(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return network.RawNetwork{}, fmt.Errorf("%w: %v", network.ErrDataSourceUnavailable, err)
		}
		return network.RawNetwork{}, err
	}
	return result.(network.RawNetwork), nil
}

// State returns the breaker state for readiness reporting
func (s *BreakerSource) State() gobreaker.State {
	return s.cb.State()
}
