package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kailas-cloud/staysearch/internal/domain"
	"github.com/kailas-cloud/staysearch/internal/metrics"
)

// ResilienceConfig tunes retries and the circuit breaker around the provider.
type ResilienceConfig struct {
	Provider string

	// MaxRetries is the number of extra attempts after the first; 0 disables retries.
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// The breaker opens after FailureThreshold consecutive failures and
	// lets one probe through after OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// ResilientEmbedder retries transient provider failures with exponential backoff
// and stops calling the provider while it keeps failing.
type ResilientEmbedder struct {
	inner   domain.Embedder
	cfg     ResilienceConfig
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewResilientEmbedder wraps inner with retry and circuit breaking.
func NewResilientEmbedder(inner domain.Embedder, cfg ResilienceConfig, logger *zap.Logger) *ResilientEmbedder {
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	r := &ResilientEmbedder{inner: inner, cfg: cfg, logger: logger}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "embedding-" + cfg.Provider,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return !isProviderFault(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.EmbeddingCircuitState.WithLabelValues(cfg.Provider).Set(float64(to))
			logger.Warn("Embedding circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return r
}

// Embed calls the provider through the breaker. While the breaker is open the call
// fails immediately with domain.ErrCircuitOpen.
func (r *ResilientEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.embedWithRetry(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrCircuitOpen, domain.ErrEmbeddingProviderError)
	}
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return out.(domain.EmbeddingResult), nil //nolint:forcetypeassert // set by embedWithRetry
}

// State returns the current breaker state.
func (r *ResilientEmbedder) State() gobreaker.State { return r.breaker.State() }

// HealthCheck forwards to the inner embedder when it supports health checks.
func (r *ResilientEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := r.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (r *ResilientEmbedder) embedWithRetry(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	var result domain.EmbeddingResult
	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			metrics.EmbeddingRetriesTotal.WithLabelValues(r.cfg.Provider).Inc()
		}
		res, err := r.inner.Embed(ctx, text)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			r.logger.Debug("Transient embedding failure",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		result = res
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.MaxRetries)), ctx) //nolint:gosec // validated non-negative
	if err := backoff.Retry(operation, policy); err != nil {
		if !errors.Is(err, domain.ErrEmbeddingProviderError) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed after %d attempt(s): %w", attempt, err)
	}
	return result, nil
}

// isProviderFault reports whether err counts against the breaker. Caller
// cancellations and rejections of a single input (4xx other than 429) say
// nothing about provider health.
func isProviderFault(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return pe.Temporary()
	}
	return true
}

// isRetryable reports whether a provider failure may go away on its own.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return pe.Temporary()
	}
	return false
}
