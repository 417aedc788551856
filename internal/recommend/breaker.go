package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/tunescout/internal/domain"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerClient wraps a RecommendationRepository with a circuit breaker.
// After MaxFailures consecutive server-side failures it stops calling the
// service for the cooldown period and fails fast with ErrServiceUnavailable.
// 4xx answers and caller cancellation do not count as failures.
type BreakerClient struct {
	repo   domain.RecommendationRepository
	cb     *gobreaker.CircuitBreaker[*domain.RecommendationPage]
	logger *slog.Logger
}

// BreakerSettings configures NewBreakerClient
type BreakerSettings struct {
	MaxFailures uint32
	Cooldown    time.Duration
}

// NewBreakerClient creates a circuit-breaking wrapper around repo
func NewBreakerClient(repo domain.RecommendationRepository, settings BreakerSettings, logger *slog.Logger) *BreakerClient {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}

	cb := gobreaker.NewCircuitBreaker[*domain.RecommendationPage](gobreaker.Settings{
		Name:        "recommendation-service",
		MaxRequests: 1, // One probe request in half-open state
		Timeout:     settings.Cooldown,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= settings.MaxFailures
			if trip {
				logger.Warn("opening circuit", "consecutive_failures", counts.ConsecutiveFailures)
			}
			return trip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit state transition", "name", name, "from", from.String(), "to", to.String())
		},

		IsSuccessful: isSuccessful,
	})

	return &BreakerClient{repo: repo, cb: cb, logger: logger}
}

// isSuccessful reports whether err should leave the breaker's failure count alone
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) {
		return !svcErr.Temporary()
	}
	return false
}

// Recommend calls the wrapped repository with circuit breaker protection
func (b *BreakerClient) Recommend(ctx context.Context, r domain.RecommendationRequest) (*domain.RecommendationPage, error) {
	page, err := b.cb.Execute(func() (*domain.RecommendationPage, error) {
		return b.repo.Recommend(ctx, r)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.logger.Warn("request rejected by circuit breaker", "error", err)
			return nil, fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
		}
		return nil, err
	}
	return page, nil
}

// State returns the breaker state name ("closed", "half-open", "open")
func (b *BreakerClient) State() string {
	return b.cb.State().String()
}
