package utils

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	Jitter      bool
	// RetryIf decides whether an error is worth another attempt. Defaults to
	// IsTransient.
	RetryIf func(error) bool
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

// Retry runs operation up to MaxAttempts times with exponential backoff. It
// stops early on context cancellation or a non-retryable error.
func Retry(ctx context.Context, config *RetryConfig, operation func() error) error {
	retryIf := config.RetryIf
	if retryIf == nil {
		retryIf = IsTransient
	}

	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateDelay(config, attempt)):
			}
		}

		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err
		if !retryIf(err) {
			return err
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

func calculateDelay(config *RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(config.BaseDelay) * math.Pow(config.Multiplier, float64(attempt-1)))
	if config.Jitter {
		delay += time.Duration(rand.Float64() * float64(delay) * 0.1)
	}
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}
