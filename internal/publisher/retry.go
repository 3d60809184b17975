package publisher

import (
	"context"
	"time"
)

// RetryPolicy controls how Connect retries a failed dial.
type RetryPolicy struct {
	// MaxAttempts caps the number of dials. Zero retries forever.
	MaxAttempts int
	// Backoff is the fixed pause between attempts.
	Backoff time.Duration
	// Sleep pauses for d or until ctx is done. Nil uses SleepContext.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy retries forever, one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Backoff: time.Second,
		Sleep:   SleepContext,
	}
}

func (r RetryPolicy) exhausted(attempt int) bool {
	return r.MaxAttempts > 0 && attempt >= r.MaxAttempts
}

// Wait pauses for one backoff period.
func (r RetryPolicy) Wait(ctx context.Context) error {
	if r.Sleep == nil {
		return SleepContext(ctx, r.Backoff)
	}
	return r.Sleep(ctx, r.Backoff)
}

// SleepContext waits for d, returning early with ctx.Err() on cancellation.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
