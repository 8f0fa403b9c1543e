// Package poller runs a bounded, cancelable verification loop against a
// payment that is awaiting confirmation.
package poller

import (
	"context"
	"errors"
	"time"

	"edupulse/pkg/payment"
)

// ErrExpired means the maximum wait elapsed without a terminal outcome.
// Expiry is local to the poller: the payment record is untouched and a
// later manual check can still resolve it.
var ErrExpired = errors.New("payment verification expired")

// CheckFunc performs one verification round and returns the canonical
// status observed.
type CheckFunc func(ctx context.Context) (payment.Status, error)

// Poller repeatedly invokes a CheckFunc until a terminal status, the
// maximum wait, or context cancellation. Checks run strictly sequentially:
// a slow check delays the next tick, it never overlaps it.
type Poller struct {
	Interval time.Duration
	MaxWait  time.Duration
}

func New(interval, maxWait time.Duration) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if maxWait <= 0 {
		maxWait = 30 * time.Second
	}
	return &Poller{Interval: interval, MaxWait: maxWait}
}

// Run checks immediately, then on the fixed interval. It returns the first
// terminal status observed, ErrExpired once MaxWait elapses, or ctx.Err()
// on cancellation. Check errors are treated as a PENDING round and polling
// continues.
func (p *Poller) Run(ctx context.Context, check CheckFunc) (payment.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, p.MaxWait)
	defer cancel()

	for {
		status, err := check(ctx)
		if err == nil && status.Terminal() {
			return status, nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return payment.StatusPending, ErrExpired
			}
			return payment.StatusPending, ctx.Err()
		case <-time.After(p.Interval):
		}
	}
}
