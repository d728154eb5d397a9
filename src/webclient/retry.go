package webclient

import (
	"context"
	"net/http"
	"time"
)

type AttemptFunc func() (status int, body []byte, err error)

const maxRetryDelay = 30 * time.Second

// Retryable reports whether a status code is worth another attempt.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500 || status == 0
}

// RateLimited retries only 429 answers. It suits calls that must not be repeated after
// the server may have accepted them.
func RateLimited(status int) bool {
	return status == http.StatusTooManyRequests
}

// DoWithRetry retries the attempt function on transient errors (429/5xx) or transport
// errors. Other 4xx answers are returned immediately since repeating them cannot help.
func DoWithRetry(ctx context.Context, attempts int, initialDelay time.Duration, fn AttemptFunc) (int, []byte, error) {
	return DoWithRetryIf(ctx, attempts, initialDelay, Retryable, fn)
}

// DoWithRetryIf is DoWithRetry with a custom policy. A transport error is reported to
// retryable as status 0.
func DoWithRetryIf(ctx context.Context, attempts int, initialDelay time.Duration, retryable func(status int) bool, fn AttemptFunc) (int, []byte, error) {
	if attempts <= 0 {
		attempts = 1
	}
	if initialDelay <= 0 {
		initialDelay = 2 * time.Second
	}
	delay := initialDelay
	for i := 0; i < attempts; i++ {
		status, body, err := fn()
		if !retryable(status) {
			return status, body, err
		}
		if ctx.Err() != nil {
			return status, body, ctx.Err()
		}
		if i == attempts-1 {
			return status, body, err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return status, body, ctx.Err()
		case <-t.C:
		}
		if delay < maxRetryDelay {
			delay *= 2
		}
	}
	return 0, nil, context.DeadlineExceeded
}
