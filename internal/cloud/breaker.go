// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package cloud

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/metrics"
)

// breakerProvider wraps a Provider with a circuit breaker.
//
// The breaker runs on wall-clock time. Tests that need to observe the open
// state drive it with failing calls rather than faking time.
type breakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker[interface{}]
	name  string
}

// withBreaker wraps p. Breaker configuration:
// - Max 3 requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func withBreaker(p Provider) *breakerProvider {
	cbName := "cloud-" + p.Name()

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Str("provider", p.Name()).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &breakerProvider{inner: p, cb: cb, name: cbName}
}

// execute runs fn through the breaker and counts the outcome.
func (b *breakerProvider) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Err(err).Str("breaker", b.name).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// State reports the breaker state as closed, half-open or open.
func (b *breakerProvider) State() string {
	return stateToString(b.cb.State())
}

func (b *breakerProvider) Name() string { return b.inner.Name() }

func (b *breakerProvider) Upload(ctx context.Context, localPath, remoteName string, meta Metadata) (*UploadResult, error) {
	return castResult[*UploadResult](b.execute(func() (interface{}, error) {
		return b.inner.Upload(ctx, localPath, remoteName, meta)
	}))
}

func (b *breakerProvider) Download(ctx context.Context, remoteName, localPath string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Download(ctx, remoteName, localPath)
	})
	return err
}

func (b *breakerProvider) Delete(ctx context.Context, remoteName string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Delete(ctx, remoteName)
	})
	return err
}

func (b *breakerProvider) List(ctx context.Context, prefix string, maxResults int) ([]Object, error) {
	return castResult[[]Object](b.execute(func() (interface{}, error) {
		return b.inner.List(ctx, prefix, maxResults)
	}))
}

// stateToFloat converts a breaker state to the gauge value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts a breaker state for logs and labels.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
