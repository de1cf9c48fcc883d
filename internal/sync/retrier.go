package sync

import (
	"context"
	"time"

	"crmsync/internal/client/crm"
)

// Retrier wraps a single remote fetch with a bounded retry budget and
// exponential backoff. The credential expiry is threaded in per call; there
// is no ambient credential state.
type Retrier struct {
	Attempts  int           // total attempts, original included
	BaseDelay time.Duration // backoff is BaseDelay * 2^attempt

	// Overridable for tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewRetrier(attempts int, baseDelay time.Duration) *Retrier {
	if attempts <= 0 {
		attempts = 2
	}
	if baseDelay <= 0 {
		baseDelay = 5 * time.Second
	}
	return &Retrier{Attempts: attempts, BaseDelay: baseDelay}
}

// Do runs call until it succeeds, the budget is spent, or the credential
// expires. The same call is retried with identical parameters; expiry is
// checked before each backoff so an expired token never burns a sleep.
func (r *Retrier) Do(ctx context.Context, expiry time.Time, call func(context.Context) (*crm.SearchPage, error)) (*crm.SearchPage, error) {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt < r.Attempts; attempt++ {
		page, err := call(ctx)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if attempt+1 >= r.Attempts {
			break
		}
		if !now().Before(expiry) {
			return nil, ErrCredentialExpired
		}
		if err := sleep(ctx, r.BaseDelay*(1<<(attempt+1))); err != nil {
			return nil, err
		}
	}
	return nil, &FetchExhaustedError{Attempts: r.Attempts, Cause: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
