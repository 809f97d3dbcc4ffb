package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCircuitBreaker_Success(t *testing.T) {
	cb := CreateCircuitBreaker(3, 100*time.Millisecond)
	ctx := context.Background()

	err := cb.Execute(ctx, func() error {
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v, want nil", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("GetState() = %v, want StateClosed", cb.GetState())
	}
}

func TestCircuitBreaker_OpenAfterFailures(t *testing.T) {
	cb := CreateCircuitBreaker(3, 100*time.Millisecond)
	ctx := context.Background()

	testError := errors.New("test error")

	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, func() error { return testError }); err == nil {
			t.Error("Execute() expected error")
		}
	}

	if cb.GetState() != StateOpen {
		t.Errorf("GetState() = %v, want StateOpen", cb.GetState())
	}

	err := cb.Execute(ctx, func() error {
		return nil
	})
	if err == nil {
		t.Error("Execute() expected error when circuit is open")
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := CreateCircuitBreaker(2, 20*time.Millisecond)
	ctx := context.Background()

	testError := errors.New("test error")
	for i := 0; i < 2; i++ {
		cb.Execute(ctx, func() error { return testError })
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("GetState() = %v, want StateOpen", cb.GetState())
	}

	time.Sleep(30 * time.Millisecond)

	err := cb.Execute(ctx, func() error { return nil })
	if err != nil {
		t.Errorf("Execute() error = %v, want nil after reset timeout", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("GetState() = %v, want StateClosed", cb.GetState())
	}
}

func TestCircuitBreaker_CancelledContextSkipsOperation(t *testing.T) {
	cb := CreateCircuitBreaker(3, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := cb.Execute(ctx, func() error {
		ran = true
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if ran {
		t.Error("operation ran despite cancelled context")
	}
	if cb.GetState() != StateClosed {
		t.Errorf("GetState() = %v, want StateClosed (cancellation is not a failure)", cb.GetState())
	}
}

func TestCircuitBreaker_NoLockHeldDuringOperation(t *testing.T) {
	cb := CreateCircuitBreaker(3, 100*time.Millisecond)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cb.Execute(ctx, func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started

	// A concurrent state read must not block on the in-flight operation.
	done := make(chan CircuitState, 1)
	go func() { done <- cb.GetState() }()

	select {
	case state := <-done:
		if state != StateClosed {
			t.Errorf("GetState() = %v, want StateClosed", state)
		}
	case <-time.After(time.Second):
		t.Error("GetState() blocked while an operation was in flight")
	}

	close(release)
	wg.Wait()
}
