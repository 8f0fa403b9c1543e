package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"edupulse/pkg/payment"
)

func TestRunStopsOnTerminalStatus(t *testing.T) {
	calls := 0
	p := New(5*time.Millisecond, time.Second)
	status, err := p.Run(context.Background(), func(ctx context.Context) (payment.Status, error) {
		calls++
		if calls < 3 {
			return payment.StatusPending, nil
		}
		return payment.StatusSuccess, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != payment.StatusSuccess {
		t.Errorf("status = %q, want SUCCESS", status)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRunChecksImmediately(t *testing.T) {
	p := New(time.Hour, time.Hour)
	start := time.Now()
	status, err := p.Run(context.Background(), func(ctx context.Context) (payment.Status, error) {
		return payment.StatusFailed, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != payment.StatusFailed {
		t.Errorf("status = %q, want FAILED", status)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("first check did not run immediately")
	}
}

func TestRunExpires(t *testing.T) {
	p := New(5*time.Millisecond, 30*time.Millisecond)
	status, err := p.Run(context.Background(), func(ctx context.Context) (payment.Status, error) {
		return payment.StatusPending, nil
	})
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	if status != payment.StatusPending {
		t.Errorf("status = %q, want PENDING", status)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(5*time.Millisecond, time.Minute)
	done := make(chan struct{})
	var err error
	go func() {
		_, err = p.Run(ctx, func(ctx context.Context) (payment.Status, error) {
			return payment.StatusPending, nil
		})
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if errors.Is(err, ErrExpired) || err == nil {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// Check errors must not end the loop; a later round can still succeed.
func TestRunTreatsCheckErrorAsPending(t *testing.T) {
	calls := 0
	p := New(5*time.Millisecond, time.Second)
	status, err := p.Run(context.Background(), func(ctx context.Context) (payment.Status, error) {
		calls++
		if calls == 1 {
			return payment.StatusPending, errors.New("transient provider error")
		}
		return payment.StatusCancelled, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != payment.StatusCancelled {
		t.Errorf("status = %q, want CANCELLED", status)
	}
}

func TestRunChecksAreSequential(t *testing.T) {
	inFlight := 0
	p := New(time.Millisecond, 100*time.Millisecond)
	_, _ = p.Run(context.Background(), func(ctx context.Context) (payment.Status, error) {
		inFlight++
		if inFlight != 1 {
			t.Errorf("overlapping checks: %d in flight", inFlight)
		}
		time.Sleep(5 * time.Millisecond)
		inFlight--
		return payment.StatusPending, nil
	})
}
