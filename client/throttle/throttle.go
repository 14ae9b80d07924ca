package throttle

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// New returns a Limiter refilling rps tokens per second up to burst.
// logFn is resolved on every dispatch so the client's logger can be
// swapped after the limiter is built; a nil result silences logging.
func New(rps, burst int, logFn func() *slog.Logger) (*Limiter, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}
	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	return &Limiter{
		bucket: rate.NewLimiter(rate.Limit(rps), burst),
		rps:    rps,
		burst:  burst,
		logFn:  logFn,
	}, nil
}

// Wrap returns an http.RoundTripper that takes a token from l before
// calling next. Every transport wrapped by the same Limiter draws from
// one bucket.
func (l *Limiter) Wrap(next http.RoundTripper) http.RoundTripper {
	return limitedTransport{limiter: l, next: next}
}

// Available reports the tokens currently left in the bucket.
func (l *Limiter) Available() float64 {
	return l.bucket.Tokens()
}

// acquire blocks until a token is free for r or its context ends.
func (l *Limiter) acquire(r *http.Request) error {
	ctx := r.Context()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	// Peeking must not spend a token.
	if logger := l.logFn(); logger != nil && l.bucket.Tokens() < 1 {
		start := time.Now()
		logger.Info("throttle tokens exhausted", "rate", l.rps, "burst", l.burst, "url", r.URL.Redacted())
		defer func() {
			logger.Info("throttle wait complete", "waited", time.Since(start).String(), "url", r.URL.Redacted())
		}()
	}

	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return nil
}

func (t limitedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := t.limiter.acquire(r); err != nil {
		return nil, err
	}

	return t.next.RoundTrip(r)
}
