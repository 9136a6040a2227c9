package httputil

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Retry defaults.
const (
	DefaultRetries    = 2
	DefaultRetryDelay = 300 * time.Millisecond
	DefaultMaxJitter  = 150 * time.Millisecond

	// maxRetryAfter caps how long a server-provided Retry-After may stall a retry.
	maxRetryAfter = 30 * time.Second

	// maxDelay is where Backoff saturates.
	maxDelay = time.Duration(math.MaxInt64)
)

// ErrRequestFailed is returned when retries are exhausted without any
// captured error.
var ErrRequestFailed = errors.New("Request failed") //nolint:staticcheck // user-facing message

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Policy.Do] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is marked with [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// retryAfterer is implemented by errors that carry a server-requested delay.
type retryAfterer interface {
	RetryAfterDelay() time.Duration
}

// Policy controls how failed attempts are retried.
// The zero value performs a single attempt.
type Policy struct {
	// Retries is the number of additional attempts after the first.
	Retries int

	// BaseDelay is the backoff before the first retry. It doubles per retry.
	BaseDelay time.Duration

	// MaxJitter bounds the random delay added to each backoff.
	MaxJitter time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// Jitter returns a duration in [0, n). Nil uses math/rand/v2.
	Jitter func(n time.Duration) time.Duration

	// OnRetry is called before each backoff sleep with the number of the
	// attempt about to be made (1 for the first retry).
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy returns two retries starting at 300ms with up to 150ms jitter.
func DefaultPolicy() Policy {
	return Policy{
		Retries:   DefaultRetries,
		BaseDelay: DefaultRetryDelay,
		MaxJitter: DefaultMaxJitter,
	}
}

// Backoff returns the delay before retrying after the given failed attempt,
// counted from 0: BaseDelay*2^attempt plus jitter in [0, MaxJitter).
func (p Policy) Backoff(attempt int) time.Duration {
	attempt = min(max(attempt, 0), 62)
	delay := maxDelay
	if p.BaseDelay <= maxDelay>>attempt {
		delay = max(p.BaseDelay, 0) << attempt
	}
	if p.MaxJitter > 0 {
		j := max(p.jitter(p.MaxJitter), 0)
		if delay > maxDelay-j {
			return maxDelay
		}
		delay += j
	}
	return delay
}

// Do calls fn until it succeeds, returns a non-retryable error, or the retry
// budget is spent. fn receives the attempt number, starting at 0.
// On exhaustion the last error is returned. A cancelled ctx aborts the
// backoff sleep and returns ctx.Err().
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	retries := max(p.Retries, 0)
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == retries {
			break
		}

		delay := p.Backoff(attempt)
		var ra retryAfterer
		if errors.As(err, &ra) {
			delay = max(delay, min(ra.RetryAfterDelay(), maxRetryAfter))
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}

	if lastErr == nil {
		return ErrRequestFailed
	}
	return lastErr
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
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

func (p Policy) jitter(n time.Duration) time.Duration {
	if p.Jitter != nil {
		return p.Jitter(n)
	}
	return rand.N(n)
}
