package retry

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultBaseDelay = 100 * time.Millisecond

// NewBackOff returns an exponential policy that doubles from base up to max
// without jitter or an elapsed-time limit. A zero max means uncapped.
func NewBackOff(base, max time.Duration) *backoff.ExponentialBackOff {
	if base <= 0 {
		base = defaultBaseDelay
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	if max > 0 {
		b.MaxInterval = max
	} else {
		b.MaxInterval = time.Duration(math.MaxInt64)
	}
	b.Reset()
	return b
}

// Do calls fn until it succeeds, doubling the delay after each failure.
// It gives up after maxRetries retries and returns the last error, or the
// context error once ctx is done.
func Do(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(NewBackOff(baseDelay, 0), uint64(maxRetries)), ctx)
	return backoff.Retry(func() error { return fn(ctx) }, policy)
}
