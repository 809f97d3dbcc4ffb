package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_Success(t *testing.T) {
	config := DefaultRetryConfig()
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, config, func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Retry() error = %v, want nil", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_EventualSuccess(t *testing.T) {
	config := DefaultRetryConfig()
	config.BaseDelay = time.Millisecond
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, config, func() error {
		attempts++
		if attempts < 3 {
			return ErrWalletUnavailable
		}
		return nil
	})

	if err != nil {
		t.Errorf("Retry() error = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_MaxAttempts(t *testing.T) {
	config := DefaultRetryConfig()
	config.MaxAttempts = 3
	config.BaseDelay = time.Millisecond
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, config, func() error {
		attempts++
		return ErrPricingUnavailable
	})

	if err == nil {
		t.Error("Retry() expected error after exhausting attempts")
	}
	if !errors.Is(err, ErrPricingUnavailable) {
		t.Errorf("Retry() error = %v, want ErrPricingUnavailable", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	config := DefaultRetryConfig()
	config.BaseDelay = time.Millisecond
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, config, func() error {
		attempts++
		return ErrInsufficientFunds
	})

	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Retry() error = %v, want ErrInsufficientFunds", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	config := DefaultRetryConfig()
	config.BaseDelay = time.Second
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Retry(ctx, config, func() error {
		attempts++
		return ErrWalletUnavailable
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_CustomRetryIf(t *testing.T) {
	config := DefaultRetryConfig()
	config.BaseDelay = time.Millisecond
	config.RetryIf = func(err error) bool { return true }
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, config, func() error {
		attempts++
		return errors.New("flaky")
	})

	if err == nil {
		t.Error("Retry() expected error")
	}
	if attempts != config.MaxAttempts {
		t.Errorf("attempts = %d, want %d", attempts, config.MaxAttempts)
	}
}
